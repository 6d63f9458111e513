package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-process ObjectStore for local development and tests.
type Memory struct {
	Bucket string
	Now    func() time.Time

	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemory(bucket string) *Memory {
	return &Memory{Bucket: bucket, objects: map[string]memObject{}}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Memory) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string]memObject{}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = memObject{data: buf, contentType: contentType, modified: m.now()}
	return nil
}

func (m *Memory) URL(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("memory storage: %s not found", key)
	}
	return fmt.Sprintf("memory://%s/%s", m.Bucket, key), nil
}

func (m *Memory) Link(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("memory://%s/%s", m.Bucket, key), nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Object, 0, len(m.objects))
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Object{Key: k, Size: int64(len(o.data)), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns the stored bytes for key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.data, ok
}
