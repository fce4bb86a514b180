package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalFSUpsertOverwrites(t *testing.T) {
	l := LocalFS{Root: t.TempDir(), BaseURL: "http://localhost:8090"}
	ctx := context.Background()

	if err := l.Upsert(ctx, "prod-1/scene.ply", "application/octet-stream", strings.NewReader("v1")); err != nil {
		t.Fatal(err)
	}
	if err := l.Upsert(ctx, "prod-1/scene.ply", "application/octet-stream", strings.NewReader("v2")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(l.Root, "prod-1", "scene.ply"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Fatalf("got %q, want the second write", data)
	}
	if !l.Exists("prod-1/scene.ply") {
		t.Fatal("Exists should see the stored key")
	}
}

func TestLocalFSPublicURL(t *testing.T) {
	l := LocalFS{Root: t.TempDir(), BaseURL: "http://localhost:8090/"}
	got := l.PublicURL("prod-1/thumbnail.jpg")
	want := "http://localhost:8090/files/prod-1/thumbnail.jpg"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
