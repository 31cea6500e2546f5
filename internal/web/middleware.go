package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"wikix/internal/render"
	"wikix/internal/view"
)

const requestIDHeader = "X-Request-Id"

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(withRequestID(r.Context(), id))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// stripTrailingSlash permanently redirects any path ending in one or more
// slashes to the same path without them. The wrapped handler is not run.
func stripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if len(p) <= 1 || !strings.HasSuffix(p, "/") {
			next.ServeHTTP(w, r)
			return
		}
		u := *r.URL
		u.Path = cleanRedirectPath(p)
		u.RawPath = ""
		if r.URL.RawPath != "" {
			u.RawPath = cleanRedirectPath(r.URL.RawPath)
		}
		location := u.EscapedPath()
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		writeResult(w, redirect(http.StatusPermanentRedirect, location))
	})
}

// cleanRedirectPath trims trailing slashes and collapses leading ones so
// the result can never be read as a protocol-relative URL.
func cleanRedirectPath(p string) string {
	p = strings.TrimRight(p, "/")
	return "/" + strings.TrimLeft(p, "/")
}

// handle runs h and writes its translated result. Panics are recovered
// and answered with a 500; they only end the current request.
func (s *Server) handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.run(h, r))
	}
}

func (s *Server) run(h HandlerFunc, r *http.Request) (res Result) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		err := fmt.Errorf("panic: %v", p)
		logHandlerError(r, err)
		res = translate(Result{}, err)
	}()
	out, err := h(r)
	if err != nil {
		logHandlerError(r, err)
	}
	return translate(out, err)
}

func logHandlerError(r *http.Request, err error) {
	id, _ := RequestID(r.Context())
	var serr *render.SyntaxError
	var herr *HTTPError
	switch {
	case errors.As(err, &herr), errors.Is(err, view.ErrNotFound):
		slog.Debug("request rejected", "request_id", id, "path", r.URL.Path, "err", err)
	case errors.As(err, &serr):
		slog.Warn("template error", "request_id", id, "path", r.URL.Path, "template", serr.Name, "line", serr.Line, "err", serr.Msg)
	default:
		slog.Error("request failed", "request_id", id, "method", r.Method, "path", r.URL.Path, "err", err)
	}
}
