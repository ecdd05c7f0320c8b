// Package http exposes the lookup service over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/adapters/translation"
	"github.com/artpar/lookup/app"
	"github.com/artpar/lookup/domain/lookup"
	"github.com/artpar/lookup/pkg/paging"
)

// maxBodySize caps lookup request bodies.
const maxBodySize = 1 << 20

// ErrorResponseBody is the body of every error response.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VersionResponse is the body of the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// LookupHandler serves the lookup endpoints.
type LookupHandler struct {
	service *app.LookupService
	logger  zerolog.Logger
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(service *app.LookupService, logger zerolog.Logger) *LookupHandler {
	return &LookupHandler{
		service: service,
		logger:  logger,
	}
}

// Lookup runs a JSON lookup request.
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read request body")
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body is too large")
		return
	}

	result, err := h.service.LookupJSON(r.Context(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Models lists every registered entity.
func (h *LookupHandler) Models(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Lookup(r.Context(), lookup.Request{Kind: lookup.KindTables})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Enums lists every registered enumeration.
func (h *LookupHandler) Enums(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Lookup(r.Context(), lookup.Request{Kind: lookup.KindEnums})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Table looks up the records of one entity described by query parameters:
// module, extra, scopes (name or name:arg, comma separated), search,
// search_fields, page and per_page. A page or per_page turns pagination on.
func (h *LookupHandler) Table(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	spec := tableSpec(name, r)

	result, err := h.service.Lookup(r.Context(), lookup.Request{
		Kind:   lookup.KindTables,
		Tables: []lookup.TableSpec{spec},
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if items, ok := result.(map[string]any); ok {
		writeJSON(w, http.StatusOK, items[name])
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func tableSpec(name string, r *http.Request) lookup.TableSpec {
	query := r.URL.Query()
	spec := lookup.TableSpec{
		Name:   name,
		Module: query.Get("module"),
		Extra:  splitList(query.Get("extra")),
		Search: lookup.Search{
			Term:   query.Get("search"),
			Fields: splitList(query.Get("search_fields")),
		},
	}

	for _, item := range splitList(query.Get("scopes")) {
		call := lookup.ScopeCall{Name: item}
		if scope, arg, ok := strings.Cut(item, ":"); ok {
			call = lookup.ScopeCall{Name: scope, Arg: arg, HasArg: arg != ""}
		}
		spec.Scopes = append(spec.Scopes, call)
	}

	page, perPage := paging.ParseParams(query)
	paginate, _ := strconv.ParseBool(query.Get("paginate"))
	if paginate || page > 0 || perPage > 0 {
		spec.Paginate = true
		spec.Page = page
		spec.PerPage = perPage
		spec.BaseURL = r.URL.Path
		if raw := rawQueryWithout(query, "page", "per_page", "limit"); raw != "" {
			spec.BaseURL += "?" + raw
		}
	}
	return spec
}

func rawQueryWithout(query url.Values, drop ...string) string {
	values := make(url.Values, len(query))
	for k, v := range query {
		values[k] = v
	}
	for _, k := range drop {
		values.Del(k)
	}
	return values.Encode()
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fail maps a service error to a response.
func (h *LookupHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("lookup failed")

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "Internal server error"
	}
	writeError(w, status, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, lookup.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks that the database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LocaleMatcher picks a supported locale for an Accept-Language value.
type LocaleMatcher interface {
	Match(accept string) string
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // served at MetricsPath; promhttp.Handler() when nil
	MetricsPath    string       // empty disables the metrics endpoint
	Locales        LocaleMatcher
	Version        string
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router.
func NewRouter(lookupHandler *LookupHandler, healthHandler *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}
	if cfg.Locales != nil {
		r.Use(NewLocaleMiddleware(cfg.Locales))
	}

	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	if cfg.MetricsPath != "" {
		h := cfg.MetricsHandler
		if h == nil {
			h = promhttp.Handler()
		}
		r.Handle(cfg.MetricsPath, h)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, Service: "lookup"})
	})

	r.Post("/api/lookup", lookupHandler.Lookup)
	r.Get("/api/lookup/models", lookupHandler.Models)
	r.Get("/api/lookup/enums", lookupHandler.Enums)
	r.Get("/api/lookup/tables/{name}", lookupHandler.Table)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "No route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method "+r.Method+" is not allowed")
	})

	return r
}

// NewLocaleMiddleware stores the request locale in the context. An explicit
// ?locale= wins over the Accept-Language header.
func NewLocaleMiddleware(m LocaleMatcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept := r.URL.Query().Get("locale")
			if accept == "" {
				accept = r.Header.Get("Accept-Language")
			}
			locale := m.Match(accept)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(translation.WithLocale(r.Context(), locale)))
		})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInternalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.HTTPRequest(r.Method, route, statusLabel(ww.Status()))
		})
	}
}

// NewLoggingMiddleware logs HTTP requests.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if isInternalPath(r.URL.Path) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func isInternalPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics" || path == "/version"
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
