package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"directory_backend/internal/logger"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

var errRateLimited = apperrors.New(apperrors.CodeLimitExceeded, "request", "Too many requests, try again later", http.StatusTooManyRequests)

// RateLimitMiddleware - фиксированное окно в redis (INCR + EXPIRE) по ip и маршруту.
// Без redis или при его ошибке запрос пропускается.
func RateLimitMiddleware(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		bucket := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("%s%s:%s:%d", rateLimitPrefix, c.FullPath(), c.ClientIP(), bucket)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		defer cancel()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > limit {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			apperrors.HandleError(c, errRateLimited)
			return
		}
		c.Next()
	}
}
