package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/api/middleware"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	fleet   *fleet.Service
	config  *config.Config
	limiter *middleware.IPRateLimiter
	metrics prometheus.Gatherer
}

// NewServer builds the HTTP API over svc. The rate limiter runs until ctx is
// done; gatherer backs the /metrics endpoint.
func NewServer(ctx context.Context, svc *fleet.Service, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	server := &Server{
		router: router,
		fleet:  svc,
		config: cfg,
		limiter: middleware.NewIPRateLimiter(ctx, middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.Burst,
			CleanupInterval:   5 * time.Minute,
		}),
		metrics: gatherer,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/alerting")
	api.Use(s.limiter.Middleware())

	{
		api.GET("/monitors", s.listMonitors)
		api.POST("/monitors", s.createMonitor)
		api.POST("/monitors/_execute", s.executeMonitor)
		api.GET("/monitors/:id", s.getMonitor)
		api.PUT("/monitors/:id", s.updateMonitor)
		api.DELETE("/monitors/:id", s.deleteMonitor)
		api.POST("/monitors/:id/_acknowledge/alerts", s.acknowledgeAlerts)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{})))
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

type listMonitorsQuery struct {
	From          int    `form:"from"`
	Size          int    `form:"size"`
	Search        string `form:"search"`
	SortField     string `form:"sortField"`
	SortDirection string `form:"sortDirection"`
	State         string `form:"state"`
}

func (s *Server) listMonitors(c *gin.Context) {
	q := listMonitorsQuery{
		SortField:     s.config.Fleet.DefaultSortField,
		SortDirection: s.config.Fleet.DefaultSortDirection,
		State:         string(fleet.StateAll),
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": err.Error()})
		return
	}

	result, err := s.fleet.ListMonitors(c.Request.Context(), fleet.ListRequest{
		From:          q.From,
		Size:          q.Size,
		Search:        q.Search,
		SortField:     q.SortField,
		SortDirection: q.SortDirection,
		State:         q.State,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"monitors":      result.Monitors,
		"totalMonitors": result.TotalMonitors,
	})
}

func (s *Server) getMonitor(c *gin.Context) {
	detail, err := s.fleet.GetMonitor(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"resp":        detail.Monitor.Monitor,
		"version":     detail.Monitor.Version,
		"activeCount": detail.Summary.ActiveCount,
		"dayCount":    detail.Summary.DayCount,
	})
}

func (s *Server) createMonitor(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	m, err := s.fleet.CreateMonitor(c.Request.Context(), body)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok": true,
		"resp": gin.H{
			"_id":      m.ID,
			"_version": m.Version,
			"monitor":  m.Monitor,
		},
	})
}

func (s *Server) updateMonitor(c *gin.Context) {
	version, err := strconv.ParseInt(c.Query("version"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": "version query parameter is required"})
		return
	}

	body, ok := s.readBody(c)
	if !ok {
		return
	}

	m, err := s.fleet.UpdateMonitor(c.Request.Context(), c.Param("id"), version, body)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "version": m.Version, "id": m.ID})
}

func (s *Server) deleteMonitor(c *gin.Context) {
	if err := s.fleet.DeleteMonitor(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) executeMonitor(c *gin.Context) {
	dryrun := true
	if v := c.Query("dryrun"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": "dryrun must be a boolean"})
			return
		}
		dryrun = parsed
	}

	body, ok := s.readBody(c)
	if !ok {
		return
	}

	resp, err := s.fleet.ExecuteMonitor(c.Request.Context(), body, dryrun)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "resp": resp})
}

func (s *Server) acknowledgeAlerts(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	resp, err := s.fleet.AcknowledgeAlerts(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": len(resp.Failed) == 0, "resp": resp})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readBody reads a JSON request body, answering 400 itself when it is not.
func (s *Server) readBody(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": err.Error()})
		return nil, false
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": "request body must be JSON"})
		return nil, false
	}
	return body, true
}

// fail writes the error response for err. Not-found and conflict answers
// carry no message.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
	case errors.Is(err, fleet.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"ok": false})
	case isBadRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "resp": err.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "resp": err.Error()})
	}
}

func isBadRequest(err error) bool {
	for _, target := range []error{
		fleet.ErrInvalidSortKey,
		fleet.ErrInvalidDirection,
		fleet.ErrInvalidState,
		fleet.ErrInvalidPage,
		fleet.ErrInvalidMonitor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
