package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/table"
	"sales-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DashboardService is the render cycle behind the HTTP API
type DashboardService interface {
	Render(ctx context.Context, p dashboard.Params) (*dashboard.Page, error)
	ExportCustomers(ctx context.Context, p dashboard.Params) (*table.Projection, error)
	InvalidateSnapshot(ctx context.Context, trigger string) error
	Ready(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	dashboardService DashboardService
	logger           *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(dashboardService DashboardService) *Handler {
	return &Handler{
		dashboardService: dashboardService,
		logger:           util.Named("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/views", h.listViews)
		v1.GET("/dashboard/:view", h.getDashboard)
		v1.GET("/customers/export.csv", h.exportCustomers)
		v1.DELETE("/cache", h.invalidateCache)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports whether the sales database is reachable
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.dashboardService.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"views": dashboard.Views})
}

// getDashboard renders one view
func (h *Handler) getDashboard(c *gin.Context) {
	view, err := dashboard.ParseView(c.Param("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid view",
			"details": err.Error(),
		})
		return
	}

	params, err := parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	params.View = view

	page, err := h.dashboardService.Render(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, "Failed to render dashboard", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// exportCustomers streams the filtered customer table as CSV
func (h *Handler) exportCustomers(c *gin.Context) {
	params, err := parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	projection, err := h.dashboardService.ExportCustomers(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, "Failed to export customers", err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="customers.csv"`)
	c.Status(http.StatusOK)
	if err := table.WriteCSV(c.Writer, projection); err != nil {
		h.logger.Error("Failed to write CSV", zap.Error(err))
	}
}

// invalidateCache drops the cached snapshot
func (h *Handler) invalidateCache(c *gin.Context) {
	if err := h.dashboardService.InvalidateSnapshot(c.Request.Context(), "api"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to invalidate cache",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, dashboard.ErrUnknownView) ||
		errors.Is(err, dashboard.ErrInvalidAgeRange) ||
		errors.Is(err, table.ErrUnknownColumn) {
		status = http.StatusBadRequest
	} else {
		h.logger.Error(msg, zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// parseParams reads min_age, max_age and columns. A missing bound is left
// open and later clamped to the observed ages.
func parseParams(c *gin.Context) (dashboard.Params, error) {
	var p dashboard.Params

	minStr, maxStr := c.Query("min_age"), c.Query("max_age")
	if minStr != "" || maxStr != "" {
		r := table.AgeRange{Min: math.MinInt32, Max: math.MaxInt32}
		var err error
		if minStr != "" {
			if r.Min, err = strconv.Atoi(minStr); err != nil {
				return p, fmt.Errorf("invalid min_age %q", minStr)
			}
		}
		if maxStr != "" {
			if r.Max, err = strconv.Atoi(maxStr); err != nil {
				return p, fmt.Errorf("invalid max_age %q", maxStr)
			}
		}
		if r.Min > r.Max {
			return p, fmt.Errorf("%w: min_age %d > max_age %d", dashboard.ErrInvalidAgeRange, r.Min, r.Max)
		}
		p.Age = &r
	}

	for _, col := range strings.Split(c.Query("columns"), ",") {
		if col = strings.TrimSpace(col); col != "" {
			p.Columns = append(p.Columns, col)
		}
	}
	return p, nil
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger logs each request through zap
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
