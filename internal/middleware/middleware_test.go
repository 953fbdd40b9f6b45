package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
		w.Write([]byte("redirecting"))
	}))

	req := httptest.NewRequest("POST", "/checkout-bridge", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusFound)
	}

	logged := buf.String()

	checks := []string{"method=POST", "path=/checkout-bridge", "status=302"}
	for _, check := range checks {
		if !strings.Contains(logged, check) {
			t.Errorf("Log missing %q: %s", check, logged)
		}
	}
}

func TestLoggingDefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit status, defaults to 200
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	logged := buf.String()
	if !strings.Contains(logged, "status=200") {
		t.Errorf("Expected status=200 in log: %s", logged)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	logged := buf.String()
	if !strings.Contains(logged, "panic recovered") {
		t.Errorf("Log missing panic recovery: %s", logged)
	}
	if !strings.Contains(logged, "test panic") {
		t.Errorf("Log missing panic message: %s", logged)
	}
}

func TestRecoveryNoPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "ok" {
		t.Errorf("Body = %s, want ok", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	req := httptest.NewRequest("POST", "/checkout-bridge", nil)
	req.Header.Set("Origin", "https://store-a.example")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if w.Code != http.StatusFound {
		t.Errorf("Status = %d, want handler status passed through", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	reached := false
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest("OPTIONS", "/checkout-bridge", nil)
	req.Header.Set("Origin", "https://store-a.example")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if reached {
		t.Error("preflight reached the wrapped handler")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Allow-Headers = %q", got)
	}
}

func TestChain(t *testing.T) {
	var order []string

	middleware1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-before")
			next.ServeHTTP(w, r)
			order = append(order, "m1-after")
		})
	}

	middleware2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-before")
			next.ServeHTTP(w, r)
			order = append(order, "m2-after")
		})
	}

	handler := Chain(middleware1, middleware2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(order) != len(expected) {
		t.Fatalf("Order length = %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Order[%d] = %s, want %s", i, order[i], v)
		}
	}
}

func TestResponseWriterMultipleWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

	rw.WriteHeader(http.StatusFound)
	if rw.status != http.StatusFound {
		t.Errorf("Status = %d, want %d", rw.status, http.StatusFound)
	}

	// Second write is ignored
	rw.WriteHeader(http.StatusNotFound)
	if rw.status != http.StatusFound {
		t.Errorf("Status after second write = %d, want %d", rw.status, http.StatusFound)
	}

	if w.Code != http.StatusFound {
		t.Errorf("Underlying status = %d, want %d", w.Code, http.StatusFound)
	}
}

func TestResponseWriterImplicitStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

	rw.Write([]byte("test"))

	if !rw.wroteHeader {
		t.Error("wroteHeader should be true after Write")
	}
	if rw.status != http.StatusOK {
		t.Errorf("Status = %d, want %d", rw.status, http.StatusOK)
	}
}
