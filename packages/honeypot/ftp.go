package honeypot

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/l3montree-dev/lowpot/packages/types"
)

var (
	ftpBanner           = []byte("220 FTP Server ready.\r\n")
	ftpPasswordRequired = []byte("331 Password required.\r\n")
	ftpLoginIncorrect   = []byte("530 Login incorrect.\r\n")
	ftpNotImplemented   = []byte("502 Command not implemented.\r\n")
)

// ftpHandler records every chunk until the peer hangs up. Logins never succeed.
type ftpHandler struct {
	handlerBase
}

func (f *ftpHandler) Service() types.Service {
	return types.ServiceFTP
}

func (f *ftpHandler) Handle(conn net.Conn, clientIP string) {
	defer conn.Close()

	if _, err := conn.Write(ftpBanner); err != nil {
		f.recordError(types.ServiceFTP, clientIP, err)
		return
	}
	for {
		data, err := f.read(conn)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			f.recordError(types.ServiceFTP, clientIP, err)
			return
		}

		command := decode(data)
		f.record(types.ServiceFTP, clientIP, command)
		if _, err := conn.Write(ftpResponse(command)); err != nil {
			f.recordError(types.ServiceFTP, clientIP, err)
			return
		}
	}
}

// ftpResponse only knows USER and PASS, matched as case-insensitive prefixes.
func ftpResponse(command string) []byte {
	upper := strings.ToUpper(command)
	switch {
	case strings.HasPrefix(upper, "USER"):
		return ftpPasswordRequired
	case strings.HasPrefix(upper, "PASS"):
		return ftpLoginIncorrect
	default:
		return ftpNotImplemented
	}
}
