package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStorage - хранилище в памяти для тестов и локального запуска без диска
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string

	// SignErr, если задан, возвращается из GetSignedURL
	SignErr error
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *MemoryStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[path] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for p := range s.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStorage) GetURL(ctx context.Context, path string) (string, error) {
	return s.baseURL + "/" + path, nil
}

func (s *MemoryStorage) GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return s.baseURL + "/" + path + "?expires=" + time.Now().Add(expiry).UTC().Format("20060102T150405Z"), nil
}

func (s *MemoryStorage) GetSize(ctx context.Context, path string) (int64, error) {
	s.mu.RLock()
	data, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	return int64(len(data)), nil
}
