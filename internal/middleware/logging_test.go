// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("passes status through", func(t *testing.T) {
		var called bool
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNotFound)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/generations/x", nil))

		if !called {
			t.Error("next handler should have been called")
		}
		if rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rr.Code)
		}
	})

	t.Run("assigns a request id", func(t *testing.T) {
		var seen string
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		got := rr.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("response id %q is not a uuid", got)
		}
		if seen != got {
			t.Errorf("context id %q, header id %q", seen, got)
		}
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)

		rr := httptest.NewRecorder()
		Logger(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got != id {
			t.Errorf("id: got %q, want %q", got, id)
		}
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")

		rr := httptest.NewRecorder()
		Logger(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got == "<script>" {
			t.Error("malformed id was echoed")
		}
	})
}

func TestRequestIDWithoutLogger(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestID(req.Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)

		if rw.status != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rw.status)
		}
	})

	t.Run("Write defaults to 200 and counts bytes", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
		rw.Write([]byte("test"))
		rw.Write([]byte("ing"))

		if rw.status != http.StatusOK {
			t.Errorf("status: got %d, want 200", rw.status)
		}
		if rw.bytes != 7 {
			t.Errorf("bytes: got %d, want 7", rw.bytes)
		}
	})

	t.Run("Write keeps explicit status", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
		rw.WriteHeader(http.StatusAccepted)
		rw.Write([]byte("ok"))

		if rw.status != http.StatusAccepted {
			t.Errorf("status: got %d, want 202", rw.status)
		}
	})
}
