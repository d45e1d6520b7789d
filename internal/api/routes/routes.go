package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cyberguard/backend/internal/api/handlers"
	"github.com/cyberguard/backend/internal/api/middleware"
	"github.com/cyberguard/backend/internal/broadcast"
	"github.com/cyberguard/backend/internal/config"
	"github.com/cyberguard/backend/internal/guard"
	"github.com/cyberguard/backend/internal/inspect"
	"github.com/cyberguard/backend/internal/logger"
	"github.com/cyberguard/backend/internal/metrics"
	"github.com/cyberguard/backend/internal/services"
)

// Dependencies are the long-lived components shared by the HTTP surface and
// the background observers.
type Dependencies struct {
	Audit      *services.AuditService
	Hub        *broadcast.Hub
	Classifier *inspect.Classifier
	Tokens     *services.TokenService
	Registry   *prometheus.Registry
}

// NewDependencies builds the inspection pipeline components from cfg. A
// configured rules file must parse; a broken one stops startup.
func NewDependencies(db *gorm.DB, cfg config.Config) (*Dependencies, error) {
	rules := inspect.DefaultRuleSet()
	if cfg.Inspection.RulesFile != "" {
		rs, err := inspect.LoadRuleSet(cfg.Inspection.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		rules = rs
		logger.Log().WithField("path", cfg.Inspection.RulesFile).Info("loaded rule overrides")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	return &Dependencies{
		Audit:      services.NewAuditService(db, cfg.Inspection.PersistTimeout),
		Hub:        broadcast.NewHub(cfg.Stream.ObserverBuffer),
		Classifier: inspect.NewClassifier(rules),
		Tokens:     services.NewTokenService(cfg.APISecret),
		Registry:   reg,
	}, nil
}

// Register wires up API routes.
func Register(router *gin.Engine, deps *Dependencies, cfg config.Config) {
	router.GET("/api/status", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	// Every demonstration endpoint is inspected; blocked requests never
	// reach the handlers.
	g := guard.New(deps.Classifier, deps.Audit, deps.Hub, cfg.Inspection.MaxBodyBytes)
	attackHandler := handlers.NewAttackHandler(deps.Audit, deps.Hub)
	attack := api.Group("/attack")
	attack.Use(g.Middleware())
	{
		attack.POST("/sql-injection", attackHandler.SQLInjection)
		attack.POST("/xss", attackHandler.XSS)
		attack.POST("/ransomware-trigger", attackHandler.RansomwareTrigger)
		attack.POST("/safe-request", attackHandler.SafeRequest)
	}

	logsHandler := handlers.NewAuditLogHandler(deps.Audit)
	logs := api.Group("/logs")
	logs.Use(middleware.RequireToken(deps.Tokens))
	{
		logs.GET("", logsHandler.List)
		logs.GET("/stats", logsHandler.Stats)
		logs.GET("/:id", logsHandler.Get)
	}

	api.GET("/stream", handlers.StreamHandler(broadcast.NewWebSocketObserver(deps.Hub, cfg.CORSOrigin)))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}
