package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/cache"
	"opsdesk/internal/config"
	"opsdesk/internal/core"
	applog "opsdesk/internal/log"
	"opsdesk/internal/middleware/ratelimit"
	"opsdesk/internal/middleware/security"
	"opsdesk/internal/middleware/trace"
	"opsdesk/internal/session"
	"opsdesk/internal/sheets"
	appweb "opsdesk/web"
)

const (
	readyTimeout     = 2 * time.Second
	cacheCleanup     = 10 * time.Minute
	lookupCacheSize  = 200
	staticMaxAgeSecs = 3600
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server needs. AuditLog, Exporter and Storage
// are optional.
type Deps struct {
	Config   *config.Config
	API      *api.Client
	Sessions *session.Manager
	Audit    audit.Publisher
	AuditLog audit.Reader
	Exporter sheets.SummaryExporter
	Storage  Pinger
	Logger   *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	cfg       *config.Config
	api       *api.Client
	sessions  *session.Manager
	audit     audit.Publisher
	auditLog  audit.Reader
	exporter  sheets.SummaryExporter
	storage   Pinger
	logger    *applog.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	categoryCache *cache.LRUCache[[]core.Category]
	userCache     *cache.LRUCache[[]core.User]
	productCache  *cache.LRUCache[[]core.Product]
	settingsCache *cache.LRUCache[core.Settings]
	cacheManager  *cache.Manager

	now          func() time.Time
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers every route and wraps
// the mux in the middleware chain.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	publisher := deps.Audit
	if publisher == nil {
		publisher = audit.NewLogPublisher(logger)
	}

	s := &Server{
		cfg:           deps.Config,
		api:           deps.API,
		sessions:      deps.Sessions,
		audit:         publisher,
		auditLog:      deps.AuditLog,
		exporter:      deps.Exporter,
		storage:       deps.Storage,
		logger:        logger.WithComponent(applog.ComponentHTTP),
		detector:      security.NewDetector(),
		categoryCache: cache.NewLRUCache[[]core.Category](lookupCacheSize, deps.Config.CacheTTL),
		userCache:     cache.NewLRUCache[[]core.User](lookupCacheSize, deps.Config.CacheTTL),
		productCache:  cache.NewLRUCache[[]core.Product](lookupCacheSize, deps.Config.CacheTTL),
		settingsCache: cache.NewLRUCache[core.Settings](lookupCacheSize, deps.Config.CacheTTL),
		cacheManager:  cache.NewManager(logger),
		now:           time.Now,
		startedAt:     time.Now(),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.Register(s.userCache)
	s.cacheManager.Register(s.productCache)
	s.cacheManager.Register(s.settingsCache)
	s.cacheManager.StartCleanup(cacheCleanup)

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = deps.Config.RateLimitPerMinute
	s.limiter = ratelimit.NewLimiter(limiterCfg)
	s.tracer = trace.NewMiddleware(logger.WithComponent(applog.ComponentTrace), s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.withRequestContext(handler)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.rejectSuspicious(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Handler(handler)
	handler = otelhttp.NewHandler(handler, "opsdesk",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAgeSecs)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Admin
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /cashbox", s.handleCashbox)

	mux.HandleFunc("GET /expenses", s.handleExpenses)
	mux.HandleFunc("GET /expenses/new", s.handleNewExpense)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}/edit", s.handleEditExpense)
	mux.HandleFunc("POST /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)
	mux.HandleFunc("POST /expenses/export", s.handleExportExpenses)
	mux.HandleFunc("POST /expense-categories", s.handleCreateCategory)

	mux.HandleFunc("GET /coupons", s.handleCoupons)
	mux.HandleFunc("POST /coupons", s.handleCreateCoupon)
	mux.HandleFunc("POST /coupons/{id}/toggle", s.handleToggleCoupon)
	mux.HandleFunc("POST /coupons/{id}/delete", s.handleDeleteCoupon)
	mux.HandleFunc("GET /discounts", s.handleDiscounts)
	mux.HandleFunc("POST /discounts", s.handleCreateDiscount)
	mux.HandleFunc("POST /discounts/{id}/toggle", s.handleToggleDiscount)
	mux.HandleFunc("POST /discounts/{id}/delete", s.handleDeleteDiscount)
	mux.HandleFunc("GET /settings", s.handleSettings)
	mux.HandleFunc("POST /settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /inventory/raw-materials", s.handleRawMaterials)
	mux.HandleFunc("POST /inventory/raw-materials", s.handleCreateRawMaterial)
	mux.HandleFunc("POST /inventory/raw-materials/{id}/delete", s.handleDeleteRawMaterial)
	mux.HandleFunc("GET /inventory/recipes", s.handleRecipes)
	mux.HandleFunc("GET /inventory/recipes/{id}", s.handleRecipe)

	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.HandleFunc("POST /tasks/{id}/status", s.handleTaskStatus)
	mux.HandleFunc("POST /tasks/generate", s.handleGenerateTasks)
	mux.HandleFunc("GET /tasks/scheduler", s.handleScheduler)
	mux.HandleFunc("POST /tasks/scheduler/start", s.handleSchedulerStart)
	mux.HandleFunc("POST /tasks/scheduler/stop", s.handleSchedulerStop)

	mux.HandleFunc("GET /admin/orders", s.handleAdminOrders)
	mux.HandleFunc("POST /admin/orders/{id}/status", s.handleOrderStatus)

	// Storefront
	mux.HandleFunc("GET /shop", s.handleShop)
	mux.HandleFunc("GET /cart", s.handleCart)
	mux.HandleFunc("POST /cart/items", s.handleAddToCart)
	mux.HandleFunc("POST /cart/items/{productID}/remove", s.handleRemoveFromCart)
	mux.HandleFunc("POST /cart/coupon", s.handleApplyCoupon)
	mux.HandleFunc("POST /cart/coupon/remove", s.handleRemoveCoupon)
	mux.HandleFunc("GET /checkout", s.handleCheckout)
	mux.HandleFunc("POST /checkout", s.handlePlaceOrder)
	mux.HandleFunc("GET /orders", s.handleMyOrders)
	mux.HandleFunc("GET /orders/{id}", s.handleOrderDetail)
}

// withRequestContext forwards the visitor's backend session cookie to API
// calls and records the client address as the audit actor.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c, err := r.Cookie(s.api.CookieName()); err == nil && c.Value != "" {
			ctx = api.WithSessionCookie(ctx, c.Value)
		}
		ctx = audit.WithActor(ctx, s.detector.ExtractClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request rejected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.").
		TriggerErrorNotification("Too many requests. Please wait a moment and try again.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// handleHealth reports liveness along with the in-process counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"counters":  s.counters(),
	})
}

func (s *Server) counters() map[string]int64 {
	out := map[string]int64{
		"requests_total":            s.tracer.Total(),
		"rate_limited_total":        s.limiter.Rejected(),
		"rate_limit_clients":        int64(s.limiter.ActiveClients()),
		"suspicious_requests_total": s.detector.SuspiciousCount(),
	}
	for name, c := range map[string]interface {
		Stats() (int64, int64)
		Size() int
	}{
		"categories": s.categoryCache,
		"users":      s.userCache,
		"products":   s.productCache,
		"settings":   s.settingsCache,
	} {
		hits, misses := c.Stats()
		out["cache_"+name+"_hits"] = hits
		out["cache_"+name+"_misses"] = misses
		out["cache_"+name+"_entries"] = int64(c.Size())
	}
	return out
}

// handleReady checks the backend API and, when configured, local storage.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if err := s.api.Ping(ctx); err != nil {
		s.logger.WarnContextErr(ctx, "Backend readiness check failed", err)
		checks["backend"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	if s.storage != nil {
		if err := s.storage.Ping(ctx); err != nil {
			s.logger.WarnContextErr(ctx, "Storage readiness check failed", err)
			checks["storage"] = "failed"
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
