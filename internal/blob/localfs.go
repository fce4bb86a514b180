package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS stores artifacts under Root and serves them through the API's
// /files route. Used when no remote bucket is configured, and in tests.
type LocalFS struct {
	Root    string
	BaseURL string
}

func (l LocalFS) Upsert(_ context.Context, key, _ string, r io.Reader) error {
	clean := filepath.Clean(key)
	abs := filepath.Join(l.Root, clean)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	f, err := os.Create(abs)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return nil
}

func (l LocalFS) PublicURL(key string) string {
	base := strings.TrimRight(l.BaseURL, "/")
	return fmt.Sprintf("%s/files/%s", base, filepath.ToSlash(filepath.Clean(key)))
}

func (l LocalFS) Open(key string) (*os.File, error) {
	return os.Open(filepath.Join(l.Root, filepath.Clean(key)))
}

func (l LocalFS) Exists(key string) bool {
	_, err := os.Stat(filepath.Join(l.Root, filepath.Clean(key)))
	return err == nil
}
