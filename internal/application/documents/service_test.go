package documents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps the memory store and fails URL lookups a configurable number of times.
type countingStore struct {
	*storage.Memory
	mu       sync.Mutex
	puts     int
	urlCalls int
	urlFails int
	putErr   error
}

func (c *countingStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	return c.Memory.Put(ctx, key, data, contentType)
}

func (c *countingStore) URL(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	c.urlCalls++
	fail := c.urlCalls <= c.urlFails
	c.mu.Unlock()
	if fail {
		return "", errors.New("object not yet visible")
	}
	return c.Memory.URL(ctx, key)
}

func newService(store *countingStore) *Service {
	return &Service{Store: store, URLBackoff: time.Millisecond}
}

func pdf(n int) Upload {
	data := bytes.Repeat([]byte("%"), n)
	return Upload{ContentType: "application/pdf", Size: int64(n), Data: data}
}

func TestUpload_StoresAndReturnsReference(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents")}
	s := newService(store)
	id := uuid.New()
	f := pdf(128)

	doc, err := s.Upload(context.Background(), id, domain.PartyCreator, f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Key, "mou/"+id.String()+"_creator_"))
	assert.True(t, strings.HasSuffix(doc.Key, ".pdf"))
	assert.Equal(t, "memory://mou-documents/"+doc.Key, doc.URL)
	sum := sha256.Sum256(f.Data)
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.SHA256)
}

func TestUpload_SameFileTwiceGivesDistinctReferences(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents")}
	s := newService(store)
	frozen := time.Unix(1700000000, 0)
	s.Now = func() time.Time { return frozen }
	id := uuid.New()

	a, err := s.Upload(context.Background(), id, domain.PartyInvestor, pdf(10))
	require.NoError(t, err)
	b, err := s.Upload(context.Background(), id, domain.PartyInvestor, pdf(10))
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
	assert.NotEqual(t, a.URL, b.URL)

	for _, key := range []string{a.Key, b.Key} {
		_, ok := store.Get(key)
		assert.True(t, ok, key)
	}
}

func TestUpload_RejectsWithoutContactingStore(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents")}
	s := newService(store)
	id := uuid.New()

	_, err := s.Upload(context.Background(), id, domain.PartyCreator, Upload{ContentType: "image/png", Size: 10, Data: []byte("png")})
	assert.ErrorIs(t, err, domain.ErrInvalidFileType)

	_, err = s.Upload(context.Background(), id, domain.PartyCreator, pdf(6<<20))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = s.Upload(context.Background(), id, domain.PartyCreator, Upload{ContentType: "application/pdf", Size: 6 << 20, Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	assert.Zero(t, store.puts)
}

func TestUpload_AcceptsExactlyFiveMiB(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents")}
	s := newService(store)
	_, err := s.Upload(context.Background(), uuid.New(), domain.PartyCreator, Upload{ContentType: "application/pdf; charset=binary", Size: MaxSize, Data: make([]byte, MaxSize)})
	assert.NoError(t, err)
}

func TestUpload_RetriesURL(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents"), urlFails: 2}
	s := newService(store)
	_, err := s.Upload(context.Background(), uuid.New(), domain.PartyCreator, pdf(10))
	require.NoError(t, err)
	assert.Equal(t, 3, store.urlCalls)
}

func TestUpload_URLRetriesExhausted(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents"), urlFails: 5}
	s := newService(store)
	_, err := s.Upload(context.Background(), uuid.New(), domain.PartyCreator, pdf(10))
	assert.ErrorIs(t, err, domain.ErrUpload)
	assert.Equal(t, 3, store.urlCalls)
}

func TestUpload_PutFailure(t *testing.T) {
	store := &countingStore{Memory: storage.NewMemory("mou-documents"), putErr: errors.New("connection reset")}
	s := newService(store)
	_, err := s.Upload(context.Background(), uuid.New(), domain.PartyCreator, pdf(10))
	assert.ErrorIs(t, err, domain.ErrUpload)
	assert.Zero(t, store.urlCalls)
}

func TestKey_StrictlyIncreasingUnderConcurrency(t *testing.T) {
	s := &Service{Now: func() time.Time { return time.Unix(0, 42) }}
	id := uuid.New()
	var wg sync.WaitGroup
	keys := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys <- s.Key(id, domain.PartyCreator)
		}()
	}
	wg.Wait()
	close(keys)
	seen := map[string]bool{}
	for k := range keys {
		assert.False(t, seen[k], k)
		seen[k] = true
	}
	assert.Len(t, seen, 100)
}
