package middleware

import (
	"directory_backend/internal/models"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CapabilityChecker - хранилище ролей (реализуется RoleRepository)
type CapabilityChecker interface {
	HasCapability(db *gorm.DB, userID string, capability models.Capability) (bool, error)
}

// RequireCapability пропускает только пользователей с выданной возможностью.
// Должен стоять после AuthMiddleware.
func RequireCapability(checker CapabilityChecker, capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
			return
		}

		ok, err := checker.HasCapability(dbFromContext(c), userID, capability)
		if err != nil {
			apperrors.HandleError(c, apperrors.InternalError(err))
			return
		}
		if !ok {
			apperrors.HandleError(c, apperrors.ErrInsufficientRights)
			return
		}

		c.Set(isAdminKey, capability == models.CapabilityAdmin)
		c.Next()
	}
}
