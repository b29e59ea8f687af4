package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const unmatchedRoute = "unmatched"

type statusRecorder struct {
	http.ResponseWriter
	code    int
	written int64
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

func (r *statusRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}

// instrument counts and logs every request by route template. Unknown paths
// are grouped under a single label to keep cardinality bounded.
func (s *Server) instrument(router *mux.Router, next http.Handler) http.Handler {
	log := s.log.With(slog.String("middleware", "access"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		route := routeTemplate(router, r)
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status())).Inc()

		log.Debug("Request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", route),
			slog.Int("status", rec.status()),
			slog.Int64("bytes", rec.written),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func routeTemplate(router *mux.Router, r *http.Request) string {
	var match mux.RouteMatch
	if !router.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
		return unmatchedRoute
	}

	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

// recoverer turns a handler panic into a logged 500 JSON response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	log := s.log.With(slog.String("middleware", "recover"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			log.Error("Handler panic",
				slog.String("path", r.URL.Path),
				slog.Any("panic", v),
				slog.String("stack", string(debug.Stack())))

			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Server error"})
		}()

		next.ServeHTTP(w, r)
	})
}
