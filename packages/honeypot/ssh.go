package honeypot

import (
	"net"

	"github.com/l3montree-dev/lowpot/packages/types"
)

var (
	sshBanner = []byte("SSH-2.0-OpenSSH_7.4\r\n")
	sshDenied = []byte("Permission denied (publickey,password).\r\n")
)

// sshHandler announces an OpenSSH banner, records the client identification
// (or whatever comes first) and denies access. No key exchange happens.
type sshHandler struct {
	handlerBase
}

func (s *sshHandler) Service() types.Service {
	return types.ServiceSSH
}

func (s *sshHandler) Handle(conn net.Conn, clientIP string) {
	defer conn.Close()

	if _, err := conn.Write(sshBanner); err != nil {
		s.recordError(types.ServiceSSH, clientIP, err)
		return
	}
	data, err := s.readOnce(conn)
	if err != nil {
		s.recordError(types.ServiceSSH, clientIP, err)
		return
	}
	s.record(types.ServiceSSH, clientIP, data)
	reply(conn, types.ServiceSSH, clientIP, sshDenied)
}
