package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "opsdesk/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if !strings.HasPrefix(a, "req_") || len(a) != len("req_")+16 {
		t.Errorf("unexpected id format %q", a)
	}
	if a == b {
		t.Error("ids should differ")
	}
}

func TestHandlerPropagatesID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" })

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		applog.FromContext(r.Context()).InfoContext(r.Context(), "handler ran")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	if strings.Count(out, "request_id="+seen) < 2 {
		t.Errorf("expected handler and completion logs tagged with id, got %q", out)
	}
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "level=WARN") {
		t.Errorf("completion log should carry status and warn level, got %q", out)
	}
	if m.Total() != 1 {
		t.Errorf("Total() = %d, want 1", m.Total())
	}
}
