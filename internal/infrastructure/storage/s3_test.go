package storage

import (
	"context"
	"net/http"
	"net/url"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3_RequiresCredentials(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3(context.Background(), S3Config{AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)
}

func TestS3_PutURLDelete(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut, http.MethodHead:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := NewS3(ctx, S3Config{
		Endpoint:       srv.URL,
		Region:         "us-east-1",
		AccessKey:      "access",
		SecretKey:      "secret",
		Bucket:         "mou-documents",
		ForcePathStyle: true,
		PublicBaseURL:  "https://cdn.example.com/mou-documents/",
	})
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "mou/a.pdf", []byte("%PDF-1.4"), "application/pdf"))
	url, err := c.URL(ctx, "mou/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/mou-documents/mou/a.pdf", url)
	require.NoError(t, c.Delete(ctx, "mou/a.pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "PUT /mou-documents/mou/a.pdf")
	assert.Contains(t, seen, "HEAD /mou-documents/mou/a.pdf")
	assert.Contains(t, seen, "DELETE /mou-documents/mou/a.pdf")
}

func TestS3_LinkPresignsWithoutPublicBase(t *testing.T) {
	ctx := context.Background()
	c, err := NewS3(ctx, S3Config{
		Endpoint:       "http://127.0.0.1:9",
		Region:         "us-east-1",
		AccessKey:      "access",
		SecretKey:      "secret",
		Bucket:         "mou-documents",
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	link, err := c.Link(ctx, "mou/a.pdf")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/mou-documents/mou/a.pdf", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
