package download

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/httputil"
)

func TestFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write([]byte("ocio_profile_version: 2"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "config.ocio")
	if err := NewClient(nil).File(context.Background(), srv.URL, dst); err != nil {
		t.Fatalf("File() failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ocio_profile_version: 2" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestFileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "missing.ocio")
	err := NewClient(nil).File(context.Background(), srv.URL, dst)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("destination should not exist after failed download")
	}
}

func TestFileRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "file")
	if err := NewClient(nil).File(context.Background(), srv.URL, dst); err != nil {
		t.Fatalf("File() failed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("server hit %d times, want 2", calls)
	}
}

func TestFilePOST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("file") != "TCAMv3.zip" {
			t.Errorf("form file = %q", r.PostForm.Get("file"))
		}
		if r.Header.Get("Referer") != "https://example.com/downloads" {
			t.Errorf("referer = %q", r.Header.Get("Referer"))
		}
		w.Write([]byte("zipbytes"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "tcam.zip")
	params := map[string][]string{"file": {"TCAMv3.zip"}}
	headers := map[string]string{"Referer": "https://example.com/downloads"}
	if err := NewClient(nil).FilePOST(context.Background(), srv.URL, dst, params, headers); err != nil {
		t.Fatalf("FilePOST() failed: %v", err)
	}

	data, _ := os.ReadFile(dst)
	if string(data) != "zipbytes" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestFileRejectsNonHTTPURL(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")
	if err := NewClient(nil).File(context.Background(), "ftp://example.com/config.ocio", dst); err == nil {
		t.Fatal("expected error for a non-http URL")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not exist after a rejected URL")
	}
}

func TestFileServedFromCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("ocio_profile_version: 2"))
	}))
	defer srv.Close()

	responses, err := httputil.NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	dl := NewClient(nil).WithCache(responses, cache.NewDefaultKeyer())

	dir := t.TempDir()
	ctx := context.Background()
	if err := dl.File(ctx, srv.URL, filepath.Join(dir, "first.ocio")); err != nil {
		t.Fatalf("File() failed: %v", err)
	}
	second := filepath.Join(dir, "second.ocio")
	if err := dl.File(ctx, srv.URL, second); err != nil {
		t.Fatalf("cached File() failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("server hit %d times, want 1", calls)
	}
	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ocio_profile_version: 2" {
		t.Errorf("cached content = %q", data)
	}
}

func TestFilePOSTCacheKeyIncludesParams(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		r.ParseForm()
		w.Write([]byte(r.PostForm.Get("file")))
	}))
	defer srv.Close()

	responses, err := httputil.NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	dl := NewClient(nil).WithCache(responses, cache.NewDefaultKeyer())

	dir := t.TempDir()
	ctx := context.Background()
	for _, name := range []string{"TCAMv3.zip", "TCAMv2.zip"} {
		dst := filepath.Join(dir, name)
		params := url.Values{"file": {name}}
		if err := dl.FilePOST(ctx, srv.URL, dst, params, nil); err != nil {
			t.Fatalf("FilePOST(%s) failed: %v", name, err)
		}
		data, _ := os.ReadFile(dst)
		if string(data) != name {
			t.Errorf("content for %s = %q", name, data)
		}
	}
	if calls != 2 {
		t.Errorf("distinct params should not share a cache entry, server hit %d times", calls)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "config.zip")
	writeZip(t, zipPath, map[string]string{
		"config.ocio":      "ocio_profile_version: 2",
		"luts/agx.spi3d":   "SPILUT",
		"luts/nested/x.cub": "LUT",
	})

	root, err := ExtractZip(zipPath, true)
	if err != nil {
		t.Fatalf("ExtractZip() failed: %v", err)
	}
	if root != dir {
		t.Errorf("root = %q, want %q", root, dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, "luts", "agx.spi3d"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != "SPILUT" {
		t.Errorf("extracted content = %q", data)
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("archive should be removed after extraction")
	}
}

func TestExtractZipKeepsArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "keep.zip")
	writeZip(t, zipPath, map[string]string{"a.txt": "a"})

	if _, err := ExtractZip(zipPath, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(zipPath); err != nil {
		t.Error("archive should survive when removeZip is false")
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../escape.txt": "evil"})

	if _, err := ExtractZip(zipPath, false); err == nil {
		t.Fatal("expected error for path traversal entry")
	}
}

func TestExtractZipRejectsBackslashPath(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{`sub\escape.txt`: "evil"})

	if _, err := ExtractZip(zipPath, false); err == nil {
		t.Fatal("expected error for backslash entry")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
