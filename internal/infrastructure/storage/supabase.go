package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Signed URL lifetimes, in seconds.
const (
	signedURLExpiry = 365 * 24 * 60 * 60
	linkExpiry      = 60 * 60
)

const listPageSize = 1000

// Supabase stores documents through the Supabase storage HTTP API.
type Supabase struct {
	BaseURL   string
	SecretKey string // service_role key
	Bucket    string
	Client    *http.Client
}

type supabaseSignResponse struct {
	SignedURL      string `json:"signedURL"`
	SignedURLCamel string `json:"signedUrl"`
}

type supabaseListItem struct {
	Name      string    `json:"name"`
	ID        *string   `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Metadata  *struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
}

func (c *Supabase) base() string {
	return strings.TrimRight(c.BaseURL, "/") + "/storage/v1"
}

func (c *Supabase) do(ctx context.Context, method, url string, body io.Reader, contentType string, out interface{}) error {
	if c.BaseURL == "" {
		return fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		if (resp.StatusCode == 400 || resp.StatusCode == 403) &&
			(strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized")) {
			return fmt.Errorf("supabase storage requires the service_role key, not the anon key (body: %s)", bodyStr)
		}
		return fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("supabase response decode: %w", err)
	}
	return nil
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func (c *Supabase) Put(ctx context.Context, key string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/object/%s/%s", c.base(), c.Bucket, key)
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(data), contentType, nil)
}

// URL signs a long-lived download URL. Signing fails until the object is visible.
func (c *Supabase) URL(ctx context.Context, key string) (string, error) {
	return c.sign(ctx, key, signedURLExpiry)
}

// Link signs a one-hour download URL.
func (c *Supabase) Link(ctx context.Context, key string) (string, error) {
	return c.sign(ctx, key, linkExpiry)
}

func (c *Supabase) sign(ctx context.Context, key string, expiresIn int) (string, error) {
	url := fmt.Sprintf("%s/object/sign/%s/%s", c.base(), c.Bucket, key)
	var data supabaseSignResponse
	if err := c.do(ctx, http.MethodPost, url, jsonBody(map[string]interface{}{"expiresIn": expiresIn}), "application/json", &data); err != nil {
		return "", err
	}
	signed := data.SignedURL
	if signed == "" {
		signed = data.SignedURLCamel
	}
	if signed == "" {
		return "", fmt.Errorf("supabase returned no signed URL for %s", key)
	}
	if strings.HasPrefix(signed, "http") {
		return signed, nil
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	return c.base() + signed, nil
}

// List returns objects directly under the folder named by prefix (e.g. "mou/").
func (c *Supabase) List(ctx context.Context, prefix string) ([]Object, error) {
	folder := strings.TrimSuffix(prefix, "/")
	url := fmt.Sprintf("%s/object/list/%s", c.base(), c.Bucket)
	var out []Object
	for offset := 0; ; offset += listPageSize {
		var items []supabaseListItem
		body := jsonBody(map[string]interface{}{"prefix": folder, "limit": listPageSize, "offset": offset})
		if err := c.do(ctx, http.MethodPost, url, body, "application/json", &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.ID == nil {
				// nested folder placeholder
				continue
			}
			obj := Object{Key: folder + "/" + it.Name, LastModified: it.CreatedAt}
			if it.Metadata != nil {
				obj.Size = it.Metadata.Size
			}
			out = append(out, obj)
		}
		if len(items) < listPageSize {
			return out, nil
		}
	}
}

func (c *Supabase) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/object/%s", c.base(), c.Bucket)
	return c.do(ctx, http.MethodDelete, url, jsonBody(map[string]interface{}{"prefixes": []string{key}}), "application/json", nil)
}
