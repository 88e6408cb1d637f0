package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-pos/internal/audit"
	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/health"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/ratelimit"
	"github.com/noah-isme/backend-pos/internal/resilience"
	"github.com/noah-isme/backend-pos/internal/security"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// Options toggles the operational surface mounted next to the API.
type Options struct {
	Tracing        bool
	Metrics        bool
	Pprof          bool
	PprofUser      string
	PprofPass      string
	DBTimeout      time.Duration
	RedisTimeout   time.Duration
	HSTSMaxAge     int
	RateLimitClock func() time.Time
}

// NewRouter builds the services and mounts every route of the POS API.
func NewRouter(cfg *config.Config, deps Dependencies, opts Options) (http.Handler, error) {
	logger := deps.Logger
	policies := deps.Policies
	if policies == nil {
		policies = tax.DefaultPolicies()
	}

	cacheBreaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("tax_config_cache").
		WithLogger(logger)
	configSvc, err := taxconfig.NewService(taxconfig.ServiceConfig{
		Store:   deps.configStore(),
		Cache:   taxconfig.NewCache(deps.Redis, cfg.TaxConfigCacheTTL).WithBreaker(cacheBreaker),
		Metrics: deps.Metrics,
		Logger:  &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("tax config service: %w", err)
	}

	billingSvc, err := billing.NewService(billing.ServiceConfig{
		Configs:    configSvc,
		Invoices:   deps.invoiceStore(),
		Calculator: tax.NewCalculator(policies),
		Metrics:    deps.Metrics,
		Logger:     &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("billing service: %w", err)
	}

	auditStore := deps.auditStore()
	auditSvc := &audit.Service{
		Store:        auditStore,
		Enabled:      cfg.AuditEnabled,
		SamplingRate: cfg.AuditSamplingRate,
	}
	onAuditError := func(err error) {
		logger.Error().Err(err).Msg("record audit log")
	}
	auditRecorder := audit.HTTPRecorder{Service: auditSvc, OnError: onAuditError}
	auditHandler := audit.Handler{Store: auditStore}

	configHandler := taxconfig.NewHandler(taxconfig.HandlerConfig{
		Service:      configSvc,
		Audit:        auditSvc,
		OnAuditError: onAuditError,
	})
	billingHandler := billing.NewHandler(billing.HandlerConfig{Service: billingSvc})

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, Scope: storeScope}
	quoteLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "rl:quote:", Now: opts.RateLimitClock},
		Config: ratelimit.Config{
			Key:    ratelimit.StoreClientKey,
			Window: cfg.QuoteRateLimitWindow,
			Max:    cfg.QuoteRateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("quote rate limiter unavailable")
		},
		OnLimited: func(r *http.Request, key string) {
			deps.Metrics.Limited("quote")
			logger.Debug().Str("key", key).Str("request_id", middleware.GetReqID(r.Context())).Msg("quote rate limited")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tenant.Track)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.Metrics && deps.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: deps.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Content-Type", cfg.TenantHeader,
			common.IdempotencyHeader, common.TerminalHeader, "If-Match", audit.ActorHeader,
		},
		ExposedHeaders: []string{"ETag", "Location", "Retry-After", "X-RateLimit-Remaining", "X-Total-Count", billing.InvoiceIDHeader},
		MaxAge:         300,
	}))
	r.Use(security.Headers{
		Enable:     cfg.SecurityHeadersEnabled,
		EnableHSTS: cfg.AppEnv == "production",
		HSTSMaxAge: opts.HSTSMaxAge,
		NoStore:    true,
	}.Middleware)

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Pprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), opts.PprofUser, opts.PprofPass))
	}

	checker := deps.Checker
	if checker == nil {
		checker = health.Deps{Redis: deps.Redis}
	}
	healthHandler := health.Handler{
		Checker:      checker,
		DBTimeout:    opts.DBTimeout,
		RedisTimeout: opts.RedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, "")
	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.Use(resolver.Middleware)

		v.Get("/jurisdictions", jurisdictionsHandler(policies))

		v.Group(func(s chi.Router) {
			s.Use(tenant.Require)

			s.Get("/tax-config", configHandler.Get)
			s.Put("/tax-config", configHandler.Put)

			s.With(quoteLimit.Middleware).Post("/billing/quote", billingHandler.Quote)

			s.Route("/invoices", func(inv chi.Router) {
				inv.With(
					idem.Middleware,
					auditRecorder.Middleware(audit.HTTPConfig{
						Action:           audit.ActionInvoiceCreate,
						ResourceType:     "invoice",
						ResourceIDHeader: billing.InvoiceIDHeader,
						SkipStatus:       audit.OnlySuccess,
					}),
				).Post("/", billingHandler.CreateInvoice)
				inv.Get("/", billingHandler.ListInvoices)
				inv.Get("/{id}", billingHandler.GetInvoice)
			})

			s.Get("/audit-logs", auditHandler.List)
		})
	})

	return r, nil
}

func storeScope(r *http.Request) string {
	storeID, _ := tenant.FromContext(r.Context())
	return storeID
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// jurisdictionsHandler lists the policies the calculator knows about.
func jurisdictionsHandler(policies tax.Policies) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := make([]tax.Policy, 0, len(policies))
		for _, code := range policies.Codes() {
			items = append(items, policies.Lookup(code))
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": items})
	}
}
