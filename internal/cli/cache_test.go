package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

func TestCacheDirDefault(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	if got := cacheDir(ws); got != ws.CacheDir() {
		t.Errorf("cacheDir() = %q, want workspace default %q", got, ws.CacheDir())
	}
}

func TestCacheDirOverride(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	ws.Config.Cache.Dir = "/tmp/elsewhere"

	if got := cacheDir(ws); got != "/tmp/elsewhere" {
		t.Errorf("cacheDir() = %q, want the configured override", got)
	}
}

func TestMeasureDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), []byte("123"), 0o644); err != nil {
		t.Fatal(err)
	}

	count, size := measureDir(dir)
	if count != 2 {
		t.Errorf("measureDir() count = %d, want 2", count)
	}
	if size != 8 {
		t.Errorf("measureDir() size = %d, want 8", size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
