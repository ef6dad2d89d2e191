package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/statement-analyzer/pkg/config"
	"github.com/FACorreiaa/statement-analyzer/pkg/interceptors"
)

const serviceName = "statement-analyzer"

// Router builds the HTTP handler with the full middleware stack.
func (d *Dependencies) Router() http.Handler {
	mux := http.NewServeMux()
	d.StatementHandler.Register(mux)

	if d.Config.Observability.MetricsEnabled {
		mux.Handle("GET "+d.Config.Observability.MetricsPath, promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{
			Registry: d.Registry,
		}))
	}

	// HTTPMetrics wraps the mux directly so it can read the matched pattern.
	return interceptors.Chain(mux,
		interceptors.RequestID(),
		interceptors.Recover(d.Logger),
		interceptors.Trace(serviceName),
		interceptors.AccessLog(d.Logger),
		interceptors.CORS(d.Config.Server.CORSOrigins),
		d.RateLimiter.Middleware(),
		d.HTTPMetrics.Middleware(),
	)
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg config.ObservabilityConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", serviceName))
}
