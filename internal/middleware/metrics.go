package middleware

import (
	"strconv"
	"time"

	"directory_backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware пишет латентность по шаблону маршрута, не по сырому пути
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
