package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/joshyycmechanical/fieldserve/internal/api/handlers"
	"github.com/joshyycmechanical/fieldserve/internal/api/middleware"
	"github.com/joshyycmechanical/fieldserve/internal/audit"
	"github.com/joshyycmechanical/fieldserve/internal/auth"
	"github.com/joshyycmechanical/fieldserve/internal/cache"
	"github.com/joshyycmechanical/fieldserve/internal/config"
	"github.com/joshyycmechanical/fieldserve/internal/invoice"
	"github.com/joshyycmechanical/fieldserve/internal/metrics"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
	"github.com/joshyycmechanical/fieldserve/internal/roles"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
	"github.com/joshyycmechanical/fieldserve/internal/workorder"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	authz *auth.Authorizer
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	roleSvc := roles.NewService(db)
	profiles := tenant.NewService(db)
	authz := auth.NewAuthorizer(cfg.Auth.JWTSecret, profiles, auth.NewEvaluator(roleSvc))

	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		authz: authz,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(metrics.Middleware)

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Unauthenticated endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// Services
	var statusCache *cache.Cache
	if rt.redis != nil {
		statusCache = cache.NewCache(rt.redis)
	}
	registry := workflow.NewRegistry(workflow.NewStatusStore(rt.db), statusCache)
	triggers := workflow.NewTriggerStore(rt.db, registry)
	queueClient := queue.NewClient(rt.cfg.Redis)
	engine := workflow.NewEngine(triggers, queueClient)
	roleSvc := roles.NewService(rt.db)
	auditSvc := audit.NewService(rt.db)
	rt.authz.RecordDenials(auditSvc)
	workOrderSvc := workorder.NewService(rt.db, registry, engine)
	invoiceSvc := invoice.NewService(rt.db)

	// API v1: every route group is gated on its module permission.
	r.Route("/api/v1", func(r chi.Router) {
		companyH := handlers.NewCompanyHandler(tenant.NewService(rt.db), auditSvc)
		r.Route("/companies", func(r chi.Router) {
			r.With(rt.authz.RequireCompanyPermission("platform-companies:view", "id")).Get("/{id}", companyH.Get)
			r.With(rt.authz.RequirePermission("platform-companies:create")).Post("/", companyH.Create)
		})

		roleH := handlers.NewRoleHandler(roleSvc, auditSvc)
		r.Route("/roles", func(r chi.Router) {
			r.With(rt.authz.RequirePermission("roles:view")).Get("/", roleH.List)
			r.With(rt.authz.RequirePermission("roles:view")).Get("/{id}", roleH.Get)
			r.With(rt.authz.RequirePermission("roles:create")).Post("/", roleH.Create)
			r.With(rt.authz.RequirePermission("roles:edit")).Put("/{id}", roleH.Update)
			r.With(rt.authz.RequirePermission("roles:delete")).Delete("/{id}", roleH.Delete)
			r.With(rt.authz.RequirePermission("roles:assign")).Post("/{id}/assign", roleH.Assign)
			r.With(rt.authz.RequirePermission("roles:assign")).Post("/{id}/unassign", roleH.Unassign)
		})

		statusH := handlers.NewWorkflowStatusHandler(registry, auditSvc)
		r.Route("/workflow-statuses", func(r chi.Router) {
			r.With(rt.authz.RequirePermission("workflow-statuses:view")).Get("/", statusH.List)
			r.With(rt.authz.RequirePermission("workflow-statuses:create")).Post("/", statusH.Create)
			r.With(rt.authz.RequirePermission("workflow-statuses:edit")).Put("/{id}", statusH.Update)
			r.With(rt.authz.RequirePermission("workflow-statuses:delete")).Delete("/{id}", statusH.Delete)
		})

		triggerH := handlers.NewWorkflowTriggerHandler(triggers, auditSvc)
		r.Route("/workflow-triggers", func(r chi.Router) {
			r.With(rt.authz.RequirePermission("workflow-triggers:view")).Get("/", triggerH.List)
			r.With(rt.authz.RequirePermission("workflow-triggers:view")).Get("/{id}", triggerH.Get)
			r.With(rt.authz.RequirePermission("workflow-triggers:create")).Post("/", triggerH.Create)
			r.With(rt.authz.RequirePermission("workflow-triggers:edit")).Put("/{id}", triggerH.Update)
			r.With(rt.authz.RequirePermission("workflow-triggers:delete")).Delete("/{id}", triggerH.Delete)
		})

		workOrderH := handlers.NewWorkOrderHandler(workOrderSvc, auditSvc)
		r.Route("/work-orders", func(r chi.Router) {
			r.With(rt.authz.RequirePermission("work-orders:view")).Get("/", workOrderH.List)
			r.With(rt.authz.RequirePermission("work-orders:view")).Get("/{id}", workOrderH.Get)
			r.With(rt.authz.RequirePermission("work-orders:create")).Post("/", workOrderH.Create)
			r.With(rt.authz.RequirePermission("work-orders:edit")).Put("/{id}", workOrderH.Update)
			r.With(rt.authz.RequirePermission("work-orders:edit")).Patch("/{id}/status", workOrderH.UpdateStatus)
			r.With(rt.authz.RequirePermission("work-orders:delete")).Delete("/{id}", workOrderH.Delete)
		})

		invoiceH := handlers.NewInvoiceHandler(invoiceSvc)
		r.Route("/invoices", func(r chi.Router) {
			r.With(rt.authz.RequirePermission("invoices:view")).Get("/", invoiceH.List)
			r.With(rt.authz.RequirePermission("invoices:view")).Get("/{id}", invoiceH.Get)
		})
	})

	return r
}
