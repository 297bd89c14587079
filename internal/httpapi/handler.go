package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// NewHandler returns the production handler (router + observability
// middleware). Tests can use NewRouter directly to avoid noisy logs.
//
// Observability is attached as mux middleware so the matched route template
// is available for low-cardinality labels.
func NewHandler(opt Options) http.Handler {
	r := NewRouter(opt)
	r.Use(withObservability)
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			// Keep cardinality low: the route template, not the raw path.
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		dur := time.Since(start)
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(dur.Seconds())

		// Minimal access log. Never log the query string; locator URLs and
		// credentials must not reach the logs.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"dur", dur.Round(time.Millisecond).String(),
				"bytes", sw.bytes,
			)
		}
	})
}
