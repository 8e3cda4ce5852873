package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf}).
		WithComponent(ComponentReservation)

	logger.ReservationChanged(context.Background(), OpCreate, "res-1", "plan-2025", "cat-health", 1000, "active")

	out := buf.String()
	for _, want := range []string{"component=reservation", "reservation_id=res-1", "operation=create", "plan_id=plan-2025"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestHTTPEndLevels(t *testing.T) {
	cases := map[int]string{200: "level=INFO", 404: "level=WARN", 503: "level=ERROR"}
	for status, want := range cases {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})
		r := httptest.NewRequest(http.MethodGet, "/api/plans?x=1", nil)
		logger.HTTPEnd(context.Background(), r, status, 12, "10.0.0.1")
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status %d: %q missing %q", status, buf.String(), want)
		}
	}
}

func TestFields(t *testing.T) {
	f := NewFields().WithError(nil).WithOperation(OpExport)
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error should not be recorded")
	}
	f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" || len(f.ToSlice()) != 4 {
		t.Fatalf("fields = %v", f)
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})
	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentApp {
		t.Fatalf("logger not propagated: %+v", got)
	}
	got.WithComponent(ComponentEditor).Info("opened")
	if out := buf.String(); !strings.Contains(out, "request_id=req_1") || !strings.Contains(out, "component=editor") {
		t.Fatalf("log output = %q", out)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("fallback logger should be unknown")
	}
}
