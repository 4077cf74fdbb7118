package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/config"
	"opsdesk/internal/session"
	"opsdesk/internal/sheets/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e audit.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audit.Event(nil), p.events...)
}

// fakeBackend answers the subset of the REST API the pages use.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	jsonOK := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("GET /cashbox/summary", jsonOK(`{"totalSessions":1,"openSessions":1,"totalSales":120.5,"totalExpenses":20}`))
	mux.HandleFunc("GET /cashbox/sessions", jsonOK(`[]`))
	mux.HandleFunc("GET /raw-materials", jsonOK(`[{"_id":"m1","name":"Flour","unit":"kg","unitCost":1.5,"currentStock":2,"minimumStock":5}]`))
	mux.HandleFunc("GET /tasks/scheduler/status", jsonOK(`{"isRunning":true,"nextRun":"tomorrow 06:00"}`))
	mux.HandleFunc("GET /settings", jsonOK(`{"taxRate":0.08,"shippingCost":5,"freeShippingThreshold":50}`))
	mux.HandleFunc("GET /expense-categories", jsonOK(`[{"_id":"c1","name":"Supplies"}]`))
	mux.HandleFunc("GET /users", jsonOK(`[{"_id":"u1","firstName":"Sam","lastName":"Reyes"}]`))
	mux.HandleFunc("GET /expenses", jsonOK(`{"data":[{"_id":"e1","description":"Flour sacks","amount":42.5,"date":"2026-10-02","paymentType":"cash","category":"c1","paidBy":"u1"}],"total":1,"page":1,"pages":1}`))
	mux.HandleFunc("GET /products", jsonOK(`[{"_id":"p1","name":"Sourdough","price":6.5,"stock":10,"isActive":true},{"_id":"p2","name":"Retired loaf","price":3,"stock":4,"isActive":false}]`))
	mux.HandleFunc("POST /orders/calculate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CouponCode string `json:"couponCode"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.CouponCode == "BOGUS" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Coupon is not valid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"subtotal":13,"couponDiscount":0,"amountAfterCoupon":13,"taxRate":0.08,"taxAmount":1.04,"shippingCost":5,
			"automaticDiscounts":[{"discount":{"name":"Weekend","type":"fixed","value":1},"discountAmount":1}],
			"totalAutomaticDiscount":1,"finalTotal":18.04}`))
	})
	mux.HandleFunc("POST /orders", jsonOK(`{"_id":"o1","orderNumber":"ORD-0001","total":18.04,"status":"pending"}`))
	mux.HandleFunc("GET /orders/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Order not found"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testServer struct {
	*Server
	audit    *recordingPublisher
	exporter *memory.Exporter
}

func newTestServer(t *testing.T, withExporter bool) *testServer {
	t.Helper()
	backend := fakeBackend(t)
	cfg := &config.Config{
		RateLimitPerMinute: 1000,
		CacheTTL:           time.Minute,
		CurrencySymbol:     "$",
		PricingAssertions:  true,
		APISessionCookie:   "token",
	}
	client := api.NewClient(api.Options{BaseURL: backend.URL, Timeout: 5 * time.Second, CookieName: cfg.APISessionCookie})
	sessions := session.NewManager(session.NewMemoryStore(time.Hour), session.Options{TTL: time.Hour}, nil)

	ts := &testServer{audit: &recordingPublisher{}}
	deps := Deps{Config: cfg, API: client, Sessions: sessions, Audit: ts.audit}
	if withExporter {
		ts.exporter = memory.New()
		deps.Exporter = ts.exporter
	}
	srv, err := NewServer(":0", deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	ts.Server = srv
	return ts
}

// client replays cookies set by earlier responses.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (ts *testServer) client(t *testing.T) *client {
	return &client{t: t, h: ts.Handler, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rr
}

func (c *client) get(path string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func (c *client) post(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.client(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := c.get(path, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", path, rr.Code, rr.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s body is not JSON: %v", path, err)
		}
		if body["status"] == nil {
			t.Errorf("%s body has no status: %v", path, body)
		}
	}
}

func TestDashboardRendersFullPage(t *testing.T) {
	ts := newTestServer(t, false)
	rr := ts.client(t).get("/", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"<html", "Dashboard", "$120.50", "Flour", `id="notifications"`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard body missing %q", want)
		}
	}
}

func TestHTMXRequestGetsContentOnly(t *testing.T) {
	ts := newTestServer(t, false)
	rr := ts.client(t).get("/expenses", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("htmx response contains the layout")
	}
	for _, want := range []string{"Flour sacks", "Supplies", "Sam Reyes", "$42.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("expenses body missing %q", want)
		}
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	ts := newTestServer(t, false)
	rr := ts.client(t).post("/expenses", url.Values{
		"amount":      {"12.50"},
		"date":        {"2026-10-02"},
		"paymentType": {"cash"},
		"category":    {"c1"},
	}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, "show-notification") {
		t.Errorf("HX-Trigger = %q, want an error notification", trig)
	}
	if len(ts.audit.Events()) != 0 {
		t.Error("a rejected form must not publish an audit event")
	}
}

func TestExportDisabled(t *testing.T) {
	ts := newTestServer(t, false)
	rr := ts.client(t).post("/expenses/export", url.Values{}, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestExportWritesSummary(t *testing.T) {
	ts := newTestServer(t, true)
	rr := ts.client(t).post("/expenses/export?range=custom&start=2026-10-01&end=2026-10-31", url.Values{}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	reports := ts.exporter.Reports()
	if len(reports) != 1 {
		t.Fatalf("exported %d reports, want 1", len(reports))
	}
	if got := reports[0].Summary.Total.Cents; got != 4250 {
		t.Errorf("exported total = %d cents, want 4250", got)
	}
	events := ts.audit.Events()
	if len(events) != 1 || events[0].Action != audit.ActionExport {
		t.Errorf("audit events = %+v, want one export", events)
	}
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.client(t)

	rr := c.post("/cart/items", url.Values{"productId": {"p1"}, "quantity": {"2"}}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", rr.Code, rr.Body.String())
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"cart:updated":{"count":2}`) {
		t.Errorf("HX-Trigger = %q, want cart count 2", trig)
	}

	rr = c.post("/cart/items", url.Values{"productId": {"p2"}, "quantity": {"1"}}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("inactive product status = %d, want 422", rr.Code)
	}

	rr = c.get("/cart", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("cart status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Sourdough", "Weekend", "$18.04", "Automatic discounts were applied"} {
		if !strings.Contains(body, want) {
			t.Errorf("cart body missing %q", want)
		}
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, "Automatic discounts were applied") {
		t.Errorf("HX-Trigger = %q, want the discount notice", trig)
	}

	rr = c.post("/cart/coupon", url.Values{"code": {"bogus"}}, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("rejected coupon status = %d, want 400", rr.Code)
	}
	rr = c.get("/cart", true)
	if strings.Contains(rr.Body.String(), "BOGUS") {
		t.Error("rejected coupon is still on the cart")
	}
}

func TestCheckoutPlacesOrder(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.client(t)

	rr := c.post("/checkout", url.Values{"shippingAddress": {"1 Main St"}}, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty cart checkout status = %d, want 422", rr.Code)
	}

	c.post("/cart/items", url.Values{"productId": {"p1"}, "quantity": {"2"}}, true)
	rr = c.post("/checkout", url.Values{"shippingAddress": {"1 Main St"}}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("checkout status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("HX-Redirect"); got != "/orders/o1" {
		t.Errorf("HX-Redirect = %q, want /orders/o1", got)
	}
	events := ts.audit.Events()
	if len(events) != 1 || events[0].Resource != audit.ResourceOrder || events[0].ResourceID != "o1" {
		t.Errorf("audit events = %+v, want the created order", events)
	}

	rr = c.get("/cart", false)
	if !strings.Contains(rr.Body.String(), "Your cart is empty") {
		t.Error("cart was not cleared after the order")
	}
}

func TestOrderDetailMissingRedirectsWithFlash(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.client(t)

	rr := c.get("/orders/missing", false)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/orders" {
		t.Errorf("Location = %q, want /orders", loc)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	ts := newTestServer(t, false)
	rr := ts.client(t).get("/static/../.env", false)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
