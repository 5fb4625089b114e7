package honeypot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/l3montree-dev/lowpot/packages/types"
	"golang.org/x/text/encoding/unicode"
)

const defaultReadSize = 1024

// Recorder receives attempt records. *eventlog.Logger implements it.
type Recorder interface {
	Record(rec types.AttemptRecord)
}

// Handler runs the interaction script of one emulated protocol.
type Handler interface {
	Service() types.Service
	// Handle talks to the peer, reports what it sent and closes conn.
	// Errors on conn are turned into attempt records, never returned or panicked.
	Handle(conn net.Conn, clientIP string)
}

type HandlerConfig struct {
	Recorder Recorder
	// ReadSize caps a single read. Defaults to 1024.
	ReadSize int
	// IdleTimeout is applied as read deadline before each read. Zero disables it.
	IdleTimeout time.Duration
}

// NewHandler returns the handler for service.
func NewHandler(service types.Service, config HandlerConfig) (Handler, error) {
	if config.Recorder == nil {
		return nil, errors.New("handler needs a recorder")
	}
	if config.ReadSize <= 0 {
		config.ReadSize = defaultReadSize
	}
	base := handlerBase{
		recorder:    config.Recorder,
		readSize:    config.ReadSize,
		idleTimeout: config.IdleTimeout,
	}
	switch service {
	case types.ServiceSSH:
		return &sshHandler{base}, nil
	case types.ServiceHTTP:
		return &httpHandler{base}, nil
	case types.ServiceFTP:
		return &ftpHandler{base}, nil
	}
	return nil, fmt.Errorf("unknown service %q", service)
}

type handlerBase struct {
	recorder    Recorder
	readSize    int
	idleTimeout time.Duration
}

// read performs one bounded read. io.EOF is only returned when nothing was read.
func (h handlerBase) read(conn net.Conn) ([]byte, error) {
	if h.idleTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(h.idleTimeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, h.readSize)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		err = io.EOF
	}
	return nil, err
}

// readOnce is the single unconditional read of SSH and HTTP: a peer closing
// without sending yields an empty payload.
func (h handlerBase) readOnce(conn net.Conn) (string, error) {
	data, err := h.read(conn)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return decode(data), nil
}

func (h handlerBase) record(service types.Service, clientIP, data string) {
	h.recorder.Record(types.NewAttempt(service, clientIP, data))
}

func (h handlerBase) recordError(service types.Service, clientIP string, err error) {
	h.recorder.Record(types.ErrorAttempt(service, clientIP, err))
}

// decode interprets data as UTF-8, replacing invalid sequences, and trims surrounding whitespace.
func decode(data []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		decoded = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}
	return strings.TrimSpace(string(decoded))
}

// reply writes a response after the attempt was already recorded. A failure
// only reaches the console so the connection keeps exactly one record.
func reply(conn net.Conn, service types.Service, clientIP string, msg []byte) {
	if _, err := conn.Write(msg); err != nil {
		slog.Warn("could not send response", "service", service, "client_ip", clientIP, "err", err)
	}
}
