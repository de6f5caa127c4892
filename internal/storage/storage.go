package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Бакеты хранятся как префиксы верхнего уровня
const (
	BucketPaymentProofs = "payment-proofs"
	BucketProfileImages = "profile-images"
)

// ErrNotFound возвращается бэкендами, когда объекта нет
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get retrieves a file from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path; missing files are not an error
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the paths of all objects under prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL returns a public URL for the file
	GetURL(ctx context.Context, path string) (string, error)

	// GetSignedURL returns a temporary signed URL for private files
	GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// GetSize returns the size of a file in bytes
	GetSize(ctx context.Context, path string) (int64, error)
}

// Config holds storage configuration
type Config struct {
	Type       string // local, s3, cloudflare_r2
	BasePath   string // For local storage
	BaseURL    string // Public URL base
	Bucket     string // For S3/R2
	Region     string // For S3
	AccessKey  string // For S3/R2
	SecretKey  string // For S3/R2
	Endpoint   string // For R2 or custom S3
	AccountID  string // For R2 when Endpoint is empty
	UseSSL     bool   // For custom S3 endpoints
	PublicRead bool   // Make files public by default
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Join собирает путь объекта из частей через "/"
func Join(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}

// RemoveAll удаляет перечисленные объекты; возвращает первую ошибку, но пытается удалить все
func RemoveAll(ctx context.Context, s Storage, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.Delete(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// RemovePrefix удаляет все объекты под prefix и возвращает их число
func RemovePrefix(ctx context.Context, s Storage, prefix string) (int, error) {
	paths, err := s.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", prefix, err)
	}
	if err := RemoveAll(ctx, s, paths); err != nil {
		return 0, err
	}
	return len(paths), nil
}

// ResolveURL - подписанная ссылка, при ошибке подписи публичная
func ResolveURL(ctx context.Context, s Storage, path string, ttl time.Duration) (string, error) {
	if url, err := s.GetSignedURL(ctx, path, ttl); err == nil && url != "" {
		return url, nil
	}
	return s.GetURL(ctx, path)
}
