package honeypot

import (
	"net"

	"github.com/l3montree-dev/lowpot/packages/types"
)

var httpNotFound = []byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n")

// httpHandler records the first bytes of a request unparsed and always answers 404.
type httpHandler struct {
	handlerBase
}

func (h *httpHandler) Service() types.Service {
	return types.ServiceHTTP
}

func (h *httpHandler) Handle(conn net.Conn, clientIP string) {
	defer conn.Close()

	data, err := h.readOnce(conn)
	if err != nil {
		h.recordError(types.ServiceHTTP, clientIP, err)
		return
	}
	h.record(types.ServiceHTTP, clientIP, data)
	reply(conn, types.ServiceHTTP, clientIP, httpNotFound)
}
