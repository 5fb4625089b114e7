package honeypot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/l3montree-dev/lowpot/packages/config"
	"github.com/l3montree-dev/lowpot/packages/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrNoListeners is returned when not a single configured port could be bound.
var ErrNoListeners = errors.New("no honeypot listener could be started")

// Supervisor runs one Listener per configured service.
type Supervisor struct {
	listeners []*Listener

	mu    sync.Mutex
	bound []*Listener
}

func NewSupervisor(cfg *config.Config, recorder Recorder, m *metrics.Metrics) (*Supervisor, error) {
	listeners := make([]*Listener, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		handler, err := NewHandler(svc.Protocol, HandlerConfig{
			Recorder:    recorder,
			ReadSize:    cfg.ReadSize,
			IdleTimeout: cfg.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("port %d: %w", svc.Port, err)
		}
		listeners = append(listeners, NewListener(ListenerConfig{
			Address:  cfg.BindAddress,
			Port:     svc.Port,
			Handler:  handler,
			MaxConns: cfg.MaxConns,
			Metrics:  m,
		}))
	}
	return &Supervisor{listeners: listeners}, nil
}

// Start binds every listener concurrently and serves the ones that succeeded.
// A bind failure is reported and does not affect the other listeners.
// Start does not block.
func (s *Supervisor) Start(ctx context.Context) error {
	var g errgroup.Group
	results := make([]bool, len(s.listeners))
	for i, l := range s.listeners {
		g.Go(func() error {
			if err := l.Listen(); err != nil {
				slog.Error("error starting honeypot", "service", l.handler.Service(), "port", l.port, "err", err)
				return fmt.Errorf("%s on port %d: %w", l.handler.Service(), l.port, err)
			}
			results[i] = true
			return nil
		})
	}
	// first bind failure, if any
	bindErr := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ok := range results {
		if !ok {
			continue
		}
		l := s.listeners[i]
		s.bound = append(s.bound, l)
		go func() {
			if err := l.Serve(ctx); err != nil {
				slog.Error("honeypot listener stopped", "service", l.handler.Service(), "port", l.port, "err", err)
			}
		}()
	}
	if len(s.bound) == 0 {
		if bindErr != nil {
			return fmt.Errorf("%w: %w", ErrNoListeners, bindErr)
		}
		return ErrNoListeners
	}
	if bindErr != nil {
		slog.Warn("honeypot running with a partial set of listeners", "bound", len(s.bound), "configured", len(s.listeners))
	}
	return nil
}

// Run starts all listeners and blocks until ctx is cancelled, e.g. by an interrupt.
// In-flight connections are not drained.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("shutting down honeypot")
	return nil
}

// Listeners returns the listeners that are bound.
func (s *Supervisor) Listeners() []*Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Listener(nil), s.bound...)
}
