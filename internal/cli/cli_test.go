package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"init":       false,
		"asset":      false,
		"renderer":   false,
		"comparison": false,
		"set":        false,
		"site":       false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}

	if root.PersistentFlags().Lookup("no-cache") == nil {
		t.Error("root command should expose the --no-cache flag")
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("root command should expose the --verbose flag")
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"AgX", []string{"AgX"}},
		{"AgX,TCAMv3", []string{"AgX", "TCAMv3"}},
		{" AgX , TCAMv3 ,", []string{"AgX", "TCAMv3"}},
	}
	for _, tt := range tests {
		if got := parseList(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConfigGenerators(t *testing.T) {
	generators := configGenerators(workspace.ComparisonConfig{
		ExposuresOffset: 0.25,
		FullHeight:      864,
	})
	if len(generators) != 2 {
		t.Fatalf("expected 2 generators, got %d", len(generators))
	}
	if generators[0].Shortname() != comparison.ExposureBandsShortname {
		t.Errorf("first generator = %q, want %q", generators[0].Shortname(), comparison.ExposureBandsShortname)
	}
	if generators[1].Shortname() != comparison.FullShortname {
		t.Errorf("second generator = %q, want %q", generators[1].Shortname(), comparison.FullShortname)
	}

	generators = configGenerators(workspace.ComparisonConfig{ExposuresOffset: 0})
	if len(generators) != 1 {
		t.Fatalf("full generator should be disabled at height 0, got %d generators", len(generators))
	}
}

func writeTestRenderer(t *testing.T, ws *workspace.Workspace, id string) {
	t.Helper()
	dir := filepath.Join(ws.RendererDir(), id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating renderer dir: %v", err)
	}
	r := &renderer.Renderer{
		Name:          id,
		Filename:      id,
		Description:   "test renderer",
		ConfigPath:    filepath.Join(dir, "config.ocio"),
		SRGBLin:       "Linear Rec.709 (sRGB)",
		Display:       "sRGB",
		View:          id,
		SrcColorspace: renderer.ACES20651Colorspace,
	}
	if err := r.Write(filepath.Join(dir, id+".json")); err != nil {
		t.Fatalf("writing renderer %s: %v", id, err)
	}
}

func TestLoadRenderers(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	writeTestRenderer(t, ws, "AgX")
	writeTestRenderer(t, ws, "TCAMv3")

	renderers, err := loadRenderers(ws, nil)
	if err != nil {
		t.Fatalf("loadRenderers() error: %v", err)
	}
	if len(renderers) != 2 {
		t.Fatalf("expected 2 renderers, got %d", len(renderers))
	}
	if renderers[0].Filename != "AgX" || renderers[1].Filename != "TCAMv3" {
		t.Errorf("renderers should be sorted by id, got %s, %s",
			renderers[0].Filename, renderers[1].Filename)
	}

	renderers, err = loadRenderers(ws, []string{"TCAMv3"})
	if err != nil {
		t.Fatalf("filtered loadRenderers() error: %v", err)
	}
	if len(renderers) != 1 || renderers[0].Filename != "TCAMv3" {
		t.Errorf("filter should return only TCAMv3, got %v", renderers)
	}

	if _, err := loadRenderers(ws, []string{"nosuch"}); err == nil {
		t.Error("unknown renderer filter should fail")
	}
}

func TestLoadRenderersEmptyWorkspace(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if _, err := loadRenderers(ws, nil); err == nil {
		t.Error("loadRenderers() should fail when nothing is built")
	}
}

func writeTestImage(t *testing.T, dir, id string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".exr"), []byte("exr"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestComparisonTargets(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	const assetID = "PAfm-SWE-neongirl"
	const setID = "lxmpicturelab.al.sorted-color.bg-black"
	writeTestImage(t, filepath.Join(ws.AssetDir(), assetID), assetID)
	writeTestImage(t, filepath.Join(ws.SetDir(), setID), setID)

	targets, err := comparisonTargets(ws, nil)
	if err != nil {
		t.Fatalf("comparisonTargets() error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected the asset and the set, got %d targets", len(targets))
	}
	if targets[0].ID() != assetID || targets[1].ID() != setID {
		t.Errorf("targets = %s, %s", targets[0].ID(), targets[1].ID())
	}

	targets, err = comparisonTargets(ws, []string{setID})
	if err != nil {
		t.Fatalf("comparisonTargets(set) error: %v", err)
	}
	if len(targets) != 1 || targets[0].ID() != setID {
		t.Fatalf("set lookup by identifier failed: %v", targets)
	}
	if _, err := targets[0].ImagePath(); err != nil {
		t.Errorf("set target has no image: %v", err)
	}

	if _, err := comparisonTargets(ws, []string{"PAfm-XXX-nosuch"}); err == nil {
		t.Error("unknown identifier should fail")
	}
}

func TestNewStoreFileBackend(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	c := New(io.Discard, LogInfo)
	ctx := context.Background()
	store, keyer, err := c.newStore(ctx, ws)
	if err != nil {
		t.Fatalf("newStore() error: %v", err)
	}
	defer store.Close()
	if keyer == nil {
		t.Fatal("newStore() returned nil keyer")
	}

	if err := store.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := store.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get() = hit %v, err %v, want a hit", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want %q", data, "value")
	}
}

func TestNewDownloaderCreatesResponseCache(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	c := New(io.Discard, LogInfo)
	if _, err := c.newDownloader(ws, cache.NewDefaultKeyer()); err != nil {
		t.Fatalf("newDownloader() error: %v", err)
	}
	httpDir := filepath.Join(cacheDir(ws), "http")
	if info, err := os.Stat(httpDir); err != nil || !info.IsDir() {
		t.Errorf("missing response cache directory %s: %v", httpDir, err)
	}

	c.noCache = true
	if _, err := c.newDownloader(ws, cache.NewDefaultKeyer()); err != nil {
		t.Errorf("newDownloader() with --no-cache error: %v", err)
	}
}

func TestNewStoreRedisEnvOverridesBackend(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	// nothing listens on port 1, so selecting redis must fail the ping
	t.Setenv(redisEnvVar, "localhost:1")

	c := New(io.Discard, LogInfo)
	if _, _, err := c.newStore(context.Background(), ws); err == nil {
		t.Error("an unreachable shared cache address should fail newStore")
	}
}

func TestNewStoreRedisEnvRespectsDisabledCache(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	ws.Config.Cache.Backend = "none"
	t.Setenv(redisEnvVar, "localhost:1")

	c := New(io.Discard, LogInfo)
	ctx := context.Background()
	store, _, err := c.newStore(ctx, ws)
	if err != nil {
		t.Fatalf("newStore() error: %v", err)
	}
	defer store.Close()

	store.Set(ctx, "key", []byte("value"), time.Minute)
	if _, hit, _ := store.Get(ctx, "key"); hit {
		t.Error("the none backend should stay a null cache under the env override")
	}
}

func TestNewStoreNoCache(t *testing.T) {
	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	c := New(io.Discard, LogInfo)
	c.noCache = true
	ctx := context.Background()
	store, _, err := c.newStore(ctx, ws)
	if err != nil {
		t.Fatalf("newStore() error: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, hit, _ := store.Get(ctx, "key"); hit {
		t.Error("the null cache should never hit")
	}
}
