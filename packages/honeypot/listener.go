package honeypot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/lowpot/packages/metrics"
	"github.com/l3montree-dev/lowpot/packages/utils"
	"golang.org/x/net/netutil"
)

// pause after a failed Accept to avoid a tight loop, e.g. on EMFILE
const acceptRetryDelay = 50 * time.Millisecond

type ListenerConfig struct {
	Address string
	Port    int
	Handler Handler
	// MaxConns caps concurrently served connections. Zero means unbounded.
	MaxConns int
	Metrics  *metrics.Metrics
}

// Listener owns one TCP port and serves every accepted connection with its
// handler in a dedicated goroutine.
type Listener struct {
	address  string
	port     int
	handler  Handler
	maxConns int
	metrics  *metrics.Metrics

	mu       sync.Mutex
	listener net.Listener
}

func NewListener(config ListenerConfig) *Listener {
	return &Listener{
		address:  config.Address,
		port:     config.Port,
		handler:  config.Handler,
		maxConns: config.MaxConns,
		metrics:  config.Metrics,
	}
}

// Listen binds the port. It fails fast if the port is taken or privileged.
func (l *Listener) Listen() error {
	addr := net.JoinHostPort(l.address, strconv.Itoa(l.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s for %s: %w", addr, l.handler.Service(), err)
	}
	if l.maxConns > 0 {
		listener = netutil.LimitListener(listener, l.maxConns)
	}

	l.mu.Lock()
	l.listener = listener
	l.mu.Unlock()
	slog.Info("honeypot listening", "service", l.handler.Service(), "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen succeeded.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Serve accepts connections until ctx is done. The accept loop never waits for handlers.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	listener := l.listener
	l.mu.Unlock()
	if listener == nil {
		return errors.New("listener is not bound")
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Error("failed to accept incoming connection", "service", l.handler.Service(), "err", err)
			time.Sleep(acceptRetryDelay)
			continue
		}
		go l.handle(conn)
	}
}

// Run binds and serves.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		return err
	}
	return l.Serve(ctx)
}

func (l *Listener) handle(conn net.Conn) {
	service := l.handler.Service()
	done := l.metrics.ConnectionOpened(service)
	defer done()

	clientIP, err := utils.NetAddrToIpStr(conn.RemoteAddr())
	if err != nil {
		clientIP = conn.RemoteAddr().String()
	}
	connID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			conn.Close()
			slog.Error("handler panicked", "service", service, "client_ip", clientIP, "conn", connID, "panic", r)
		}
	}()

	slog.Debug("connection accepted", "service", service, "client_ip", clientIP, "conn", connID)
	start := time.Now()
	l.handler.Handle(conn, clientIP)
	slog.Debug("connection closed", "service", service, "client_ip", clientIP, "conn", connID, "duration", time.Since(start))
}
