// Package sitestatus - закешированное в процессе состояние выключателя сайта.
// Обновляется push-событиями (локально и через redis) и периодическим опросом БД.
package sitestatus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"directory_backend/internal/events"
	"directory_backend/internal/logger"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"

	"gorm.io/gorm"
)

// Loader читает актуальную строку из хранилища
type Loader interface {
	Get(db *gorm.DB) (*models.SiteStatus, error)
}

type Cache struct {
	db     *gorm.DB
	loader Loader

	mu       sync.RWMutex
	current  models.SiteStatus
	loadedAt time.Time
}

func NewCache(db *gorm.DB, loader Loader) *Cache {
	return &Cache{
		db:      db,
		loader:  loader,
		current: models.DefaultSiteStatus(),
	}
}

// Current - копия текущего состояния
func (c *Cache) Current() models.SiteStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// IsOnline - сокращение для гейта
func (c *Cache) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.IsOnline
}

// Set заменяет состояние, если оно не старее текущего
func (c *Cache) Set(status models.SiteStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !status.UpdatedAt.IsZero() && status.UpdatedAt.Before(c.current.UpdatedAt) {
		return
	}
	c.current = status
	c.loadedAt = time.Now()
}

// Refresh перечитывает строку из БД. Отсутствие строки = сайт онлайн.
func (c *Cache) Refresh(ctx context.Context) error {
	db := c.db
	if db != nil {
		db = db.WithContext(ctx)
	}
	status, err := c.loader.Get(db)
	if err != nil {
		if errors.Is(err, repositories.ErrSiteStatusNotFound) {
			c.Set(models.DefaultSiteStatus())
			return nil
		}
		return err
	}
	c.mu.Lock()
	c.current = *status
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// HandleEvent - подписчик шины на site_status.changed
func (c *Cache) HandleEvent(ctx context.Context, ev events.Event) {
	var status models.SiteStatus
	if err := json.Unmarshal(ev.Payload, &status); err != nil {
		logger.Warn("site status event with bad payload, reloading", "error", err)
		if err := c.Refresh(ctx); err != nil {
			logger.Error("site status reload failed", "error", err)
		}
		return
	}
	status.ID = models.GlobalSiteStatusID
	c.Set(status)
}

// Poll перечитывает состояние с интервалом до отмены ctx
func (c *Cache) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.Refresh(ctx)
			logger.WorkerLog("site_status_poll", "refresh", err)
		}
	}
}
