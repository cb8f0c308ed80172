package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rentflow/backend/internal/application/notification"
)

var _ notification.ReceiptStore = (*MemoryReceiptStore)(nil)

// MemoryReceiptStore keeps receipts in process memory. It is used when
// object storage is disabled, typically in development.
type MemoryReceiptStore struct {
	// BaseURL prefixes the generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryReceiptStore creates an empty store
func NewMemoryReceiptStore(baseURL string) *MemoryReceiptStore {
	if baseURL == "" {
		baseURL = "http://localhost:8080/receipts"
	}
	return &MemoryReceiptStore{BaseURL: baseURL, objects: make(map[string]memoryObject)}
}

// Upload stores a copy of data under key
func (s *MemoryReceiptStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrKeyRequired
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()
	return nil
}

// Download returns the object under key, or false if there is none
func (s *MemoryReceiptStore) Download(_ context.Context, key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// ObjectExists reports whether key was uploaded
func (s *MemoryReceiptStore) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// GenerateDownloadURL returns an unsigned link carrying the expiry
func (s *MemoryReceiptStore) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	link := s.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}
