package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Bucket talks to a storage REST endpoint (Supabase-style object API).
// Object writes set x-upsert so re-uploading a key overwrites it.
type Bucket struct {
	URL    string // e.g. https://xyz.supabase.co/storage/v1
	Key    string // service role key
	Name   string // bucket name
	Client *http.Client
}

func NewBucket(url, key, name string) *Bucket {
	return &Bucket{
		URL:    strings.TrimRight(url, "/"),
		Key:    key,
		Name:   name,
		Client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (b *Bucket) Upsert(ctx context.Context, key, contentType string, r io.Reader) error {
	url := fmt.Sprintf("%s/object/%s/%s", b.URL, b.Name, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.Key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.URL, b.Name, key)
}
