package middleware

import (
	"net/http"
	"strings"

	"directory_backend/internal/logger"
	"directory_backend/internal/models"

	"github.com/gin-gonic/gin"
)

const isAdminKey = "isAdmin"

// SiteStatusSource - кэш выключателя сайта
type SiteStatusSource interface {
	Current() models.SiteStatus
}

// MaintenanceResponse - ответ гейта при выключенном сайте
type MaintenanceResponse struct {
	Maintenance bool   `json:"maintenance"`
	Message     string `json:"message"`
}

// GateMiddleware - выключатель сайта. При is_online=false запросы не-админов
// получают 503, кроме путей из exemptPrefixes. Админ определяется по таблице
// ролей, поэтому перед гейтом должен стоять OptionalAuthMiddleware.
func GateMiddleware(status SiteStatusSource, checker CapabilityChecker, exemptPrefixes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := status.Current()
		if current.IsOnline || isExempt(c.Request.URL.Path, exemptPrefixes) {
			c.Next()
			return
		}

		if userID := GetUserID(c); userID != "" {
			ok, err := checker.HasCapability(dbFromContext(c), userID, models.CapabilityAdmin)
			if err != nil {
				logger.CtxWarn(c.Request.Context(), "Admin check in gate failed", "error", err)
			}
			if ok {
				c.Set(isAdminKey, true)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable, MaintenanceResponse{
			Maintenance: true,
			Message:     current.MaintenanceMessage,
		})
	}
}

// isExempt сравнивает по границе сегмента: "/dashboard" покрывает "/dashboard/x", но не "/dashboards"
func isExempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
