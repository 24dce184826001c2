package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/service"
)

// Metrics records per-request method/route/status timings. The route
// template (c.FullPath) keys the series so /timetables/:id stays one label
// value instead of one per timetable; unmatched routes fall back to the raw
// path. A nil service disables collection.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
