package workers

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"directory_backend/internal/logger"
	"directory_backend/internal/repositories"
	"directory_backend/internal/storage"

	"gorm.io/gorm"
)

// proofGrace - объекты моложе этого возраста не трогаем: запись о проверке может еще создаваться
const proofGrace = 15 * time.Minute

// ProofWorker удаляет файлы пруфов, на которые не ссылается ни одна проверка.
// Такие остаются, если загрузка прошла, а вставка проверки упала.
type ProofWorker struct {
	db            *gorm.DB
	verifications repositories.VerificationRepository
	store         storage.Storage
	interval      time.Duration
	now           func() time.Time
}

func NewProofWorker(db *gorm.DB, verifications repositories.VerificationRepository, store storage.Storage, interval time.Duration) *ProofWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ProofWorker{
		db:            db,
		verifications: verifications,
		store:         store,
		interval:      interval,
		now:           time.Now,
	}
}

func (w *ProofWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("Proof worker stopped")
				return
			case <-ticker.C:
				if _, err := w.RunOnce(ctx); err != nil {
					logger.WorkerLog("proofs", "sweep", err)
				}
			}
		}
	}()
}

// RunOnce проходит по payment-proofs/ и возвращает число удаленных объектов
func (w *ProofWorker) RunOnce(ctx context.Context) (int, error) {
	objects, err := w.store.List(ctx, storage.BucketPaymentProofs+"/")
	if err != nil {
		return 0, err
	}

	byUser := make(map[string][]string)
	for _, obj := range objects {
		parts := strings.Split(strings.TrimPrefix(obj, storage.BucketPaymentProofs+"/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		byUser[parts[0]] = append(byUser[parts[0]], obj)
	}

	removed := 0
	db := w.db.WithContext(ctx)
	for userID, paths := range byUser {
		referenced, err := w.verifications.ProofPathsByUser(db, userID)
		if err != nil {
			logger.WorkerLog("proofs", "lookup", err)
			continue
		}
		keep := make(map[string]struct{}, len(referenced))
		for _, p := range referenced {
			keep[p] = struct{}{}
		}

		for _, p := range paths {
			if _, ok := keep[p]; ok || !w.oldEnough(p) {
				continue
			}
			if err := w.store.Delete(ctx, p); err != nil {
				logger.WorkerLog("proofs", "delete", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		logger.Info("Removed orphaned payment proofs", "count", removed)
	}
	return removed, nil
}

// oldEnough читает время загрузки из имени <unix_nano><ext>; непонятные имена считаются старыми
func (w *ProofWorker) oldEnough(objectPath string) bool {
	name := path.Base(objectPath)
	name = strings.TrimSuffix(name, path.Ext(name))
	nanos, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return true
	}
	return w.now().Sub(time.Unix(0, nanos)) >= proofGrace
}
