package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/config"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/guardiao-url/internal/transport/http/middleware"
	"github.com/IgorGrieder/guardiao-url/pkg/httputils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var spanNames = map[string]string{
	"GET /health":                "health",
	"GET /metrics":               "metrics",
	"GET /v1/{key}":              "gateway.visit",
	"POST /api/links":            "links.create",
	"GET /api/links":             "links.list",
	"DELETE /api/links/{key}":    "links.delete",
	"GET /api/links/{key}/stats": "links.stats",
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
	}
}

type RouterDeps struct {
	Gateway  *GatewayHandler
	Links    *LinksHandler
	Profiles middleware.ProfileLookup
}

func NewRouter(cfg *config.Config, deps RouterDeps) http.Handler {
	return NewRouterWithOptions(cfg, deps, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, deps RouterDeps, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputils.RespondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", healthHandler.Metrics())

	// Public visit endpoint. Credential checks live inside the visit flow
	// because a missing or bad key has its own response contract.
	mux.HandleFunc("GET /v1/{key}", deps.Gateway.Visit)

	managementMiddlewares := []func(http.Handler) http.Handler{
		middleware.APIKeyMiddleware(deps.Profiles),
	}

	mux.Handle("POST /api/links", middleware.Chain(
		http.HandlerFunc(deps.Links.Create),
		managementMiddlewares...,
	))
	mux.Handle("GET /api/links", middleware.Chain(
		http.HandlerFunc(deps.Links.List),
		managementMiddlewares...,
	))
	mux.Handle("DELETE /api/links/{key}", middleware.Chain(
		http.HandlerFunc(deps.Links.Delete),
		managementMiddlewares...,
	))
	mux.Handle("GET /api/links/{key}/stats", middleware.Chain(
		http.HandlerFunc(deps.Links.Stats),
		managementMiddlewares...,
	))

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORSMiddleware(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			key := r.Method + " " + r.Pattern
			if name, ok := spanNames[key]; ok {
				return name
			}
			if r.Pattern != "" {
				return r.Pattern
			}
			path := strings.TrimSpace(r.URL.Path)
			if path == "" {
				path = "/"
			}
			return path
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}
