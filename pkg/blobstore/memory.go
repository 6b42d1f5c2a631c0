package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryStore is an in-process Store used for local development and tests.
// It honors the same overwrite-by-key semantics as the S3 driver.
type MemoryStore struct {
	mu            sync.RWMutex
	objects       map[string]memoryObject
	publicBaseURL string
	now           func() time.Time
}

// NewMemory constructs an empty in-memory store.
func NewMemory(publicBaseURL string) *MemoryStore {
	return &MemoryStore{
		objects:       make(map[string]memoryObject),
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Put stores a copy of body at key, replacing any prior object.
func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) (Object, error) {
	data := make([]byte, len(body))
	copy(data, body)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: m.now().UTC()}
	m.mu.Unlock()

	return Object{Key: key, Size: int64(len(data)), URL: m.PublicURL(key)}, nil
}

// Get returns a copy of the object body at key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

// List returns all objects under prefix in key order.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Object
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, Object{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
			URL:          m.PublicURL(key),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	return objects, nil
}

// PublicURL joins the configured base URL with key.
func (m *MemoryStore) PublicURL(key string) string {
	if m.publicBaseURL == "" {
		return ""
	}
	return m.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}
