package workers

import (
	"context"
	"time"

	"directory_backend/internal/logger"
	"directory_backend/internal/repositories"

	"gorm.io/gorm"
)

const tokenCleanupInterval = 6 * time.Hour

// TokenWorker удаляет просроченные refresh токены
type TokenWorker struct {
	db     *gorm.DB
	tokens repositories.RefreshTokenRepository
}

func NewTokenWorker(db *gorm.DB, tokens repositories.RefreshTokenRepository) *TokenWorker {
	return &TokenWorker{db: db, tokens: tokens}
}

// Start запускает очистку в фоне
func (w *TokenWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *TokenWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход очистки
func (w *TokenWorker) RunOnce(ctx context.Context) int64 {
	removed, err := w.tokens.CleanExpired(w.db.WithContext(ctx))
	logger.WorkerLog("tokens", "clean_expired", err)
	if removed > 0 {
		logger.Info("Removed expired refresh tokens", "count", removed)
	}
	return removed
}
