// Package http exposes the contribution services as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teamfin/internal/cache"
	"teamfin/internal/core"
	applog "teamfin/internal/log"
	"teamfin/internal/middleware/ratelimit"
	"teamfin/internal/middleware/trace"
	"teamfin/internal/services"
)

// Config controls the HTTP surface.
type Config struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// JWTSecret enables bearer authentication on /api when set.
	JWTSecret       string
	JWTTTL          time.Duration
	DefaultCurrency core.Currency
	Logger          *applog.Logger
}

// Services bundles the application services behind the routes.
type Services struct {
	Teams         *services.TeamService
	Types         *services.TypeService
	Templates     *services.TemplateService
	Contributions *services.ContributionService
	Payments      *services.PaymentService
	Reports       *services.ReportService
	Imports       *services.ImportService
	Recurring     *services.RecurringProcessor
}

// NewServices wires every service over the same dependencies.
func NewServices(d services.Deps, recurringAmount core.Money) Services {
	return Services{
		Teams:         services.NewTeamService(d),
		Types:         services.NewTypeService(d),
		Templates:     services.NewTemplateService(d),
		Contributions: services.NewContributionService(d),
		Payments:      services.NewPaymentService(d),
		Reports:       services.NewReportService(d),
		Imports:       services.NewImportService(d),
		Recurring:     services.NewRecurringProcessor(d, recurringAmount),
	}
}

// Server is the API server.
type Server struct {
	http.Server

	cfg      Config
	deps     services.Deps
	svc      Services
	engine   *gin.Engine
	tokens   *tokenIssuer
	limiter  *ratelimit.Limiter
	reports  *cache.LRU[uuid.UUID, services.TeamReport]
	sweep    func()
	tracer   *trace.Middleware
	shutdown sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps services.Deps, svc Services) *Server {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = core.EUR
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.FromContext(context.Background())
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		svc:     svc,
		reports: cache.NewLRU[uuid.UUID, services.TeamReport](100, 5*time.Minute),
		tracer:  trace.NewMiddleware(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}
	if cfg.JWTSecret != "" {
		s.tokens = newTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, s.now)
	}
	s.sweep = s.reports.StartSweep(10 * time.Minute)

	s.engine = s.routes()
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the gin engine, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.tracer.Handler())
	r.Use(applog.Middleware(s.cfg.Logger))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", handleHealth)
	r.GET("/readyz", s.handleReady)
	if s.tokens != nil {
		r.POST("/auth/login", s.handleLogin)
	}

	api := r.Group("/api", applog.ComponentMiddleware("api"), s.rateLimit(), s.invalidateReports())
	api.POST("/users", s.requireAuthUnlessEmpty(), s.handleCreateUser)

	authed := api.Group("", s.requireAuth())
	authed.GET("/users", s.handleListUsers)

	authed.POST("/teams", s.handleCreateTeam)
	authed.GET("/teams", s.handleListTeams)
	authed.GET("/teams/:id", s.handleGetTeam)
	authed.POST("/teams/:id/activate", s.handleSetTeamActive(true))
	authed.POST("/teams/:id/deactivate", s.handleSetTeamActive(false))
	authed.POST("/teams/:id/members", s.handleAddMember)
	authed.GET("/teams/:id/members", s.handleListMembers)
	authed.GET("/teams/:id/report", s.handleTeamReport)
	authed.GET("/teams/:id/contributions.csv", s.handleExportContributions)
	authed.POST("/teams/:id/templates", s.handleCreateTemplate)
	authed.GET("/teams/:id/templates", s.handleListTemplates)

	authed.POST("/contribution-types", s.handleCreateType)
	authed.GET("/contribution-types", s.handleListTypes)
	authed.GET("/contribution-types/:id", s.handleGetType)
	authed.PUT("/contribution-types/:id", s.handleUpdateType)
	authed.DELETE("/contribution-types/:id", s.handleDeleteType)
	authed.POST("/contribution-types/:id/activate", s.handleSetTypeActive(true))
	authed.POST("/contribution-types/:id/deactivate", s.handleSetTypeActive(false))
	authed.GET("/contribution-types/:id/next-due-date", s.handleNextDueDate)

	authed.GET("/templates/:id", s.handleGetTemplate)
	authed.PUT("/templates/:id", s.handleUpdateTemplate)
	authed.DELETE("/templates/:id", s.handleDeleteTemplate)
	authed.POST("/templates/:id/apply", s.handleApplyTemplate)

	authed.POST("/contributions", s.handleCreateContribution)
	authed.GET("/contributions", s.handleListContributions)
	authed.POST("/contributions/import", s.handleImportContributions)
	authed.GET("/contributions/:id", s.handleGetContribution)
	authed.PUT("/contributions/:id", s.handleUpdateContribution)
	authed.DELETE("/contributions/:id", s.handleDeleteContribution)
	authed.PATCH("/contributions/:id/due-date", s.handleUpdateDueDate)
	authed.POST("/contributions/:id/pay", s.handlePayContribution)
	authed.POST("/contributions/:id/activate", s.handleSetContributionActive(true))
	authed.POST("/contributions/:id/deactivate", s.handleSetContributionActive(false))
	authed.POST("/contributions/:id/payments", s.handleAddPayment)
	authed.GET("/contributions/:id/payments", s.handleListPayments)

	authed.PUT("/payments/:id", s.handleUpdatePayment)
	authed.DELETE("/payments/:id", s.handleDeletePayment)

	authed.POST("/recurring/run", s.handleRunRecurring)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", trace.HeaderRequestID)
	cfg.ExposeHeaders = []string{trace.HeaderRequestID}
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) rateLimit() gin.HandlerFunc {
	if s.cfg.RateLimitPerMinute == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return s.limiter.Middleware(nil)
}

// invalidateReports drops the cached team reports a successful write may
// have changed. Writes under /teams/:id touch only that team; writes that
// create, change or settle contributions can touch any team.
func (s *Server) invalidateReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		switch scope, teamID := reportScope(c.FullPath(), c.Param("id")); scope {
		case scopeTeam:
			s.reports.Invalidate(teamID)
		case scopeAll:
			s.reports.Purge()
		}
	}
}

type invalidation int

const (
	scopeNone invalidation = iota
	scopeTeam
	scopeAll
)

// reportScope classifies a write route by the reports it can affect.
func reportScope(route, id string) (invalidation, uuid.UUID) {
	switch {
	case route == "/api/users", route == "/api/teams",
		strings.HasPrefix(route, "/api/contribution-types"),
		route == "/api/teams/:id/templates",
		route == "/api/templates/:id":
		return scopeNone, uuid.Nil
	case strings.HasPrefix(route, "/api/teams/:id"):
		teamID, err := uuid.Parse(id)
		if err != nil {
			return scopeNone, uuid.Nil
		}
		return scopeTeam, teamID
	}
	return scopeAll, uuid.Nil
}

func (s *Server) now() time.Time {
	if s.deps.Clock != nil {
		return s.deps.Clock()
	}
	return time.Now().UTC()
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdown.Do(func() {
		m := s.tracer.GetMetrics()
		slog.InfoContext(ctx, "Request metrics",
			"total_requests", m.TotalRequests,
			"avg_response_us", m.AverageResponseTime,
			"tracked_clients", s.limiter.ActiveClients())
		s.sweep()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
		slog.ErrorContext(c.Request.Context(), "Readiness check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	c.String(http.StatusOK, "ready")
}
