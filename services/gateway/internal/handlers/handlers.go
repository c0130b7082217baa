package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/services/gateway/internal/proxy"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	authProxy         *proxy.ServiceProxy
	appointmentsProxy *proxy.ServiceProxy
}

func New(authProxy, appointmentsProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		authProxy:         authProxy,
		appointmentsProxy: appointmentsProxy,
	}
}

// Routes maps public path prefixes to backends. Paths are forwarded
// unchanged; authorization is enforced by the backends.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Handle("/auth/*", h.forward(h.authProxy))

	for _, prefix := range []string{"/appointments", "/availability", "/notifications"} {
		r.Handle(prefix, h.forward(h.appointmentsProxy))
		r.Handle(prefix+"/*", h.forward(h.appointmentsProxy))
	}
	return r
}

func (h *Handlers) forward(p *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.proxyRequest(w, r, p)
	}
}

func (h *Handlers) proxyRequest(w http.ResponseWriter, r *http.Request, serviceProxy *proxy.ServiceProxy) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apperr.WriteError(w, http.StatusBadRequest, "Failed to read request body", apperr.CodeInvalidInput)
		return
	}
	defer r.Body.Close()

	headers := make(http.Header)
	for key, values := range r.Header {
		if shouldCopyHeader(key) {
			headers[key] = values
		}
	}

	resp, err := serviceProxy.ProxyRequest(r.Context(), r.Method, r.URL.RequestURI(), body, headers)
	if err != nil {
		logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", serviceProxy.Name(), "path", r.URL.Path)
		apperr.WriteError(w, http.StatusServiceUnavailable, "Service unavailable", "SERVICE_UNAVAILABLE")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if !shouldCopyHeader(key) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
	}
}

var hopHeaders = map[string]bool{
	"host":                true,
	"connection":          true,
	"keep-alive":          true,
	"upgrade":             true,
	"proxy-connection":    true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
}

func shouldCopyHeader(key string) bool {
	return !hopHeaders[strings.ToLower(key)]
}
