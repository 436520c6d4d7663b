package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type pingHandler struct{}

func (pingHandler) Routes() []string { return []string{"GET /ping", "GET /pong"} }

func (pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.URL.Path))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc("post", "/submit", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("expected 202, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submit", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Handler Routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(pingHandler{})

		for _, path := range []string{"/ping", "/pong"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != path {
				t.Errorf("expected %q, got %q", path, rec.Body.String())
			}
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestID", func(t *testing.T) {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get(requestIDHeader) == "" {
			t.Error("expected generated request id")
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get(requestIDHeader) != "abc" {
			t.Errorf("expected client id to be reused, got %q", rec.Header().Get(requestIDHeader))
		}
	})

	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew?spotify_access_token=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/brew") {
			t.Errorf("unexpected log line %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Error("query string must not be logged")
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recoverer(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})
}
