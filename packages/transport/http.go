package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/l3montree-dev/lowpot/packages/analysis"
	"github.com/l3montree-dev/lowpot/packages/store"
	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultLatestLimit = 100
	feedBuffer         = 256
)

type HTTPConfig struct {
	Addr     string
	Store    store.Store[types.AttemptRecord]
	Gatherer prometheus.Gatherer
}

// HTTPTransport exposes recent attempts, aggregates and metrics over a local HTTP endpoint.
type HTTPTransport struct {
	addr     string
	store    store.Store[types.AttemptRecord]
	gatherer prometheus.Gatherer
}

func NewHTTP(config HTTPConfig) *HTTPTransport {
	return &HTTPTransport{
		addr:     config.Addr,
		store:    config.Store,
		gatherer: config.Gatherer,
	}
}

// Set default HTTP headers
func setDefaultHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func cacheControlMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			next.ServeHTTP(w, r)
		})
	}
}

func (h *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	// stats are cheap to recompute, keep them fresh
	cachingMiddleware := cacheControlMiddleware(10)

	mux.Handle("GET /latest-attacks", h.handleLatestAttacks())
	mux.Handle("GET /stats/service", cachingMiddleware(h.handleStats(func(r types.Report) any { return r.Services })))
	mux.Handle("GET /stats/ip", cachingMiddleware(h.handleStats(func(r types.Report) any { return r.TopIPs })))
	mux.Handle("GET /stats/hour", cachingMiddleware(h.handleStats(func(r types.Report) any { return r.Hours })))
	mux.Handle("GET /health", h.handleHealth())
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Listen binds addr, serves until ctx is done and stores every attempt sent on the returned channel.
func (h *HTTPTransport) Listen(ctx context.Context) (chan<- types.AttemptRecord, error) {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", h.addr, err)
	}
	server := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP transport stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) // nolint
	}()
	slog.Info("HTTP transport listening", "addr", listener.Addr().String())

	res := make(chan types.AttemptRecord, feedBuffer)
	go func() {
		for rec := range res {
			if err := h.store.Store(rec); err != nil {
				slog.Error("could not store attempt", "err", err)
			}
		}
	}()
	return res, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	arr, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	setDefaultHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(arr)
	if err != nil {
		slog.Debug("could not write response", "err", err)
	}
}

func (h *HTTPTransport) handleLatestAttacks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLatestLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		msgs := h.store.Get()
		if len(msgs) > limit {
			msgs = msgs[:limit]
		}
		writeJSON(w, msgs)
	}
}

func (h *HTTPTransport) handleStats(pick func(types.Report) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := analysis.Aggregate(h.store.Get(), analysis.Options{TopN: -1})
		writeJSON(w, pick(report))
	}
}

func (h *HTTPTransport) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":  "ok",
			"entries": h.store.Count(),
		})
	}
}
