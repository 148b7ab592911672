package prometheus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultScrapeReadHeaderTimeout = 10 * time.Second

// ExporterOption configures an [Exporter].
type ExporterOption func(*Exporter)

// WithReadHeaderTimeout sets the scrape server's header read timeout.
// Default: 10s.
func WithReadHeaderTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) { e.readHeaderTimeout = d }
}

// WithoutRuntimeCollectors skips the Go runtime and process collectors,
// leaving only the service's own metrics.
func WithoutRuntimeCollectors() ExporterOption {
	return func(e *Exporter) { e.runtimeCollectors = false }
}

// Exporter serves the service metrics at /metrics on its own listener,
// kept off the API port so scrapes bypass the API middleware.
type Exporter struct {
	addr              string
	readHeaderTimeout time.Duration
	runtimeCollectors bool
	registry          *prometheus.Registry

	httpSrv   *http.Server
	httpSrvMu sync.Mutex
}

// NewExporter creates an exporter listening at addr. All service
// metrics are registered on a fresh registry.
func NewExporter(addr string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		addr:              addr,
		readHeaderTimeout: defaultScrapeReadHeaderTimeout,
		runtimeCollectors: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(allMetrics...)
	if e.runtimeCollectors {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	e.registry = reg
	return e
}

// Handler returns the scrape handler, for embedding the metrics
// endpoint into an existing mux instead of a dedicated listener.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Start serves /metrics until Shutdown. Blocks; returns
// http.ErrServerClosed after a graceful shutdown.
func (e *Exporter) Start() error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", e.Handler())

	srv := &http.Server{
		Addr:              e.addr,
		Handler:           mux,
		ReadHeaderTimeout: e.readHeaderTimeout,
	}

	e.httpSrvMu.Lock()
	e.httpSrv = srv
	e.httpSrvMu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown drains in-flight scrapes.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.httpSrvMu.Lock()
	srv := e.httpSrv
	e.httpSrvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
