// Package api exposes the menu operations over HTTP
package api

import (
	"errors"
	"net/http"
	"time"

	"menuops/internal/dashboard"
	"menuops/internal/linker"
	"menuops/internal/monitoring"
	"menuops/internal/prep"
	"menuops/internal/pricing"
	"menuops/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the components the API serves
type Deps struct {
	Stores    *store.Stores
	Linker    *linker.Linker
	Pricing   *pricing.Comparator
	Prep      *prep.Aggregator
	Dashboard *dashboard.Reconciler
	Monitor   *monitoring.Monitor
	JWTSecret string
	Log       zerolog.Logger
}

// Server handles the menu operations API
type Server struct {
	router    *gin.Engine
	stores    *store.Stores
	linker    *linker.Linker
	pricing   *pricing.Comparator
	prep      *prep.Aggregator
	dashboard *dashboard.Reconciler
	monitor   *monitoring.Monitor
	log       zerolog.Logger
}

// NewServer creates the server and its routes
func NewServer(deps Deps) *Server {
	router := gin.New()
	log := deps.Log.With().Str("component", "api").Logger()
	router.Use(gin.Recovery(), requestLogger(log))

	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	s := &Server{
		router:    router,
		stores:    deps.Stores,
		linker:    deps.Linker,
		pricing:   deps.Pricing,
		prep:      deps.Prep,
		dashboard: deps.Dashboard,
		monitor:   monitor,
		log:       log,
	}
	if deps.Dashboard != nil {
		deps.Dashboard.Subscribe(monitor.ObserveSnapshot)
	}
	s.setupRoutes(deps.JWTSecret)
	return s
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes(secret string) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "menuops API is running"})
	})

	auth := AuthMiddleware(secret)
	s.router.GET("/ws/dashboard", auth, s.handleDashboardFeed)

	v1 := s.router.Group("/api/v1", auth)
	{
		// Project and menu
		v1.GET("/project", s.GetProject)
		v1.PUT("/project", s.SetProject)
		v1.GET("/menu", s.GetMenu)
		v1.PUT("/menu", s.SaveMenu)
		v1.GET("/menu/statuses", s.GetStatuses)
		v1.POST("/menu/links/sync", s.SyncLinks)
		v1.DELETE("/menu/items/:id", s.DeleteMenuItem)

		// Recipe links
		v1.GET("/menu/items/:id/recipe", s.GetItemRecipe)
		v1.POST("/menu/items/:id/stub", s.CreateStub)
		v1.POST("/menu/items/:id/link", s.LinkRecipe)
		v1.POST("/menu/items/:id/unlink", s.UnlinkRecipe)
		v1.GET("/menu/items/:id/status", s.GetItemStatus)
		v1.GET("/menu/items/:id/cost", s.GetItemCost)

		// Recipes
		v1.GET("/recipes", s.ListRecipes)
		v1.POST("/recipes", s.SaveRecipe)
		v1.GET("/recipes/:id", s.GetRecipe)
		v1.DELETE("/recipes/:id", s.DeleteRecipe)

		// Vendors and prices
		v1.GET("/vendors", s.ListVendors)
		v1.PUT("/vendors", s.SaveVendors)
		v1.POST("/vendors/mix", s.VendorMix)
		v1.POST("/vendors/:id/price-sheet", s.ImportPriceSheet)
		v1.GET("/connections", s.ListConnections)
		v1.PUT("/connections", s.UpdateConnection)
		v1.GET("/ingredients/:id/vendors", s.CompareVendors)
		v1.GET("/ingredients/:id/trends", s.PriceTrends)
		v1.POST("/price-changes", s.RecordPriceChange)

		// Reports
		v1.GET("/prep-plan", s.GetPrepPlan)
		v1.GET("/prep-plan/xlsx", s.ExportPrepPlan)
		v1.GET("/foh-briefing", s.GetBriefing)
		v1.GET("/dashboard", s.GetDashboard)
		v1.GET("/metrics", s.GetMetrics)
	}
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, linker.ErrNoRecipe):
		return http.StatusNotFound
	case errors.Is(err, linker.ErrAlreadyLinked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
