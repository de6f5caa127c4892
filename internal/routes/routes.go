package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"directory_backend/internal/handlers"
	"directory_backend/internal/logger"
	"directory_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options - служебные маршруты, зависящие от конфигурации
type Options struct {
	// UploadsURL/UploadsDir - раздача локального хранилища; пусто для S3/R2.
	// UploadsURL должен совпадать с storage.base_url
	UploadsURL string
	UploadsDir string
	// Ready - проверка готовности для /healthz
	Ready func() error
}

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards handlers.Guards,
	opts Options,
) {
	api := ginRouter.Group("/api/v1")
	appHandlers.RegisterRoutes(api, guards)

	ginRouter.GET("/ws", appHandlers.WSHandler.ServeWS)
	logger.Info("WebSocket route /ws registered")

	ginRouter.GET("/healthz", healthz(opts.Ready))
	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.UploadsURL != "" && opts.UploadsDir != "" {
		base := strings.TrimRight(opts.UploadsURL, "/")
		ginRouter.Static(base+"/"+storage.BucketProfileImages, filepath.Join(opts.UploadsDir, storage.BucketProfileImages))

		// пруфы оплаты приватные: локально их видит только админ
		proofs := ginRouter.Group(base+"/"+storage.BucketPaymentProofs, guards.Auth, guards.Admin)
		proofs.Static("/", filepath.Join(opts.UploadsDir, storage.BucketPaymentProofs))
	}
}

func healthz(ready func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			if err := ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
