// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	t.Parallel()

	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("request ID should be generated")
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("response header = %q, context = %q", got, captured)
	}
}

func TestRequestIDHonorsIncoming(t *testing.T) {
	t.Parallel()

	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "upstream-id" {
		t.Errorf("GetRequestID = %q, want upstream-id", captured)
	}
}

func TestListenerIDSetsCookie(t *testing.T) {
	t.Parallel()

	var captured string
	h := ListenerID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetListenerID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("listener ID should be assigned")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == ListenerCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("listener cookie should be set")
	}
	if cookie.Value != captured {
		t.Errorf("cookie = %q, context = %q", cookie.Value, captured)
	}
	if !cookie.HttpOnly {
		t.Error("listener cookie should be HttpOnly")
	}
}

func TestListenerIDReusesCookie(t *testing.T) {
	t.Parallel()

	var captured string
	h := ListenerID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetListenerID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ListenerCookieName, Value: "existing-listener"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "existing-listener" {
		t.Errorf("GetListenerID = %q, want existing-listener", captured)
	}
}

func TestGetListenerIDWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetListenerID(req.Context()); got != "" {
		t.Errorf("GetListenerID = %q, want empty", got)
	}
}

func TestMetricsRecordsStatus(t *testing.T) {
	t.Parallel()

	// Metrics reads the chi route pattern, so it must run inside a
	// chi router.
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/thing/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
