package site

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AgX Blender-4.2.7", "agx-blender-427"},
		{"PAfm-SWE-neongirl", "pafm-swe-neongirl"},
		{"  spaced   out  ", "spaced-out"},
		{"café crème", "cafe-creme"},
		{"sRGB Display: 2.2 Gamma", "srgb-display-22-gamma"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// writeSession creates a comparison output directory: the session metadata,
// its asset side-car and fake image artifacts.
func writeSession(t *testing.T, comparisonsDir, assetID string) {
	t.Helper()
	assetDir := filepath.Join(t.TempDir(), assetID)
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		t.Fatal(err)
	}
	meta := &asset.Metadata{
		Source:       "https://example.com",
		Authors:      []string{"alice", "bob"},
		References:   []string{"https://example.com/ref"},
		CaptureGamut: "sRGB",
		PrimaryColor: asset.ColorBlue,
		Type:         asset.TypePlate,
		Context:      "a test asset",
	}
	jsonPath := filepath.Join(assetDir, assetID+".json")
	if err := meta.Write(jsonPath); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(comparisonsDir, assetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	rdr := &renderer.Renderer{
		Name: "AgX", Filename: "AgX", ConfigPath: "/c.ocio",
		SRGBLin: "Linear BT.709", Display: "sRGB", View: "Punchy",
		SrcColorspace: renderer.ACES20651Colorspace,
	}
	session := &comparison.Session{Asset: jsonPath}
	fullName := comparison.ArtifactName(assetID, comparison.FullShortname, "AgX")
	combinedName := comparison.ArtifactName(assetID, comparison.FullShortname, comparison.CombinedShortname)
	session.AddRender(&comparison.Render{
		Generator: comparison.Full{MaxHeight: 864},
		Renderer:  rdr,
		SrcPaths:  []string{filepath.Join(assetDir, assetID+".exr")},
		DstPath:   filepath.Join(dir, fullName),
	})
	session.AddRender(&comparison.Render{
		Generator: comparison.Combined{},
		SrcPaths:  []string{filepath.Join(dir, fullName)},
		DstPath:   filepath.Join(dir, combinedName),
	})
	if err := session.Write(comparison.SessionPath(dir, assetID)); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{fullName, combinedName} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("jpg"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPageFromSession(t *testing.T) {
	comparisonsDir := t.TempDir()
	writeSession(t, comparisonsDir, "PAfm-SWE-neongirl")

	session, err := comparison.ReadSession(
		comparison.SessionPath(filepath.Join(comparisonsDir, "PAfm-SWE-neongirl"), "PAfm-SWE-neongirl"))
	if err != nil {
		t.Fatal(err)
	}
	page, err := PageFromSession(session)
	if err != nil {
		t.Fatalf("PageFromSession() error: %v", err)
	}

	if page.AssetID != "PAfm-SWE-neongirl" {
		t.Errorf("asset id = %q", page.AssetID)
	}
	if page.MetaAuthors != "alice; bob" {
		t.Errorf("authors = %q", page.MetaAuthors)
	}
	if len(page.Generators) != 1 {
		t.Fatalf("generators = %d, want 1", len(page.Generators))
	}
	gen := page.Generators[0]
	if gen.Name != comparison.FullShortname {
		t.Errorf("generator name = %q", gen.Name)
	}
	if len(gen.Renders) != 1 || gen.Renders[0].RendererName != "AgX" {
		t.Errorf("renders = %+v", gen.Renders)
	}
	if gen.Combined == nil {
		t.Fatal("combined render not attached to its generator")
	}
	if !strings.Contains(gen.Combined.Path, "__combined__") {
		t.Errorf("combined path = %q", gen.Combined.Path)
	}
}

func TestSortPages(t *testing.T) {
	pages := []*ComparisonPage{
		{AssetID: "PAfm-SWE-neongirl"},
		{AssetID: "lxmpicturelab.al.sorted-color.bg-black"},
		{AssetID: "CAlc-D8T-dragon"},
	}
	SortPages(pages)
	want := []string{
		"lxmpicturelab.al.sorted-color.bg-black",
		"CAlc-D8T-dragon",
		"PAfm-SWE-neongirl",
	}
	for i, w := range want {
		if pages[i].AssetID != w {
			t.Errorf("pages[%d] = %q, want %q", i, pages[i].AssetID, w)
		}
	}
}

func TestBuild(t *testing.T) {
	comparisonsDir := t.TempDir()
	buildDir := filepath.Join(t.TempDir(), "build")
	writeSession(t, comparisonsDir, "PAfm-SWE-neongirl")
	writeSession(t, comparisonsDir, "CAlc-D8T-dragon")

	pageCount, err := Build(context.Background(), BuildOpts{
		SiteName:        "lxmpicturelab",
		ComparisonsDir:  comparisonsDir,
		BuildDir:        buildDir,
		Footer:          "footer text",
		MetaDescription: "Comparison of different picture formation algorithms.",
		Renderers: []*renderer.Renderer{
			{Name: "AgX", Filename: "AgX", Display: "sRGB", View: "Punchy"},
		},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if pageCount != 4 {
		t.Errorf("page count = %d, want 4", pageCount)
	}

	for _, name := range []string{
		"index.html",
		"about.html",
		"PAfm-SWE-neongirl.html",
		"CAlc-D8T-dragon.html",
		"main.css",
		".nojekyll",
		filepath.Join("img", "PAfm-SWE-neongirl.full.AgX.jpg"),
		filepath.Join("img", "PAfm-SWE-neongirl.full.__combined__.jpg"),
	} {
		if _, err := os.Stat(filepath.Join(buildDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	html, err := os.ReadFile(filepath.Join(buildDir, "PAfm-SWE-neongirl.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"img/PAfm-SWE-neongirl.full.AgX.jpg",
		"alice; bob",
		"lxmpicturelab",
	} {
		if !strings.Contains(string(html), want) {
			t.Errorf("page missing %q", want)
		}
	}

	// session metadata must not leak into the published site
	if _, err := os.Stat(filepath.Join(buildDir, "img", "PAfm-SWE-neongirl.metadata.json")); err == nil {
		t.Error("session metadata copied into the site")
	}
}

func TestBuildWithSiteURL(t *testing.T) {
	comparisonsDir := t.TempDir()
	buildDir := filepath.Join(t.TempDir(), "build")
	writeSession(t, comparisonsDir, "CAlc-D8T-dragon")

	if _, err := Build(context.Background(), BuildOpts{
		SiteName:       "lxmpicturelab",
		SiteURL:        "https://mrlixm.github.io/picture-lab-lxm",
		ComparisonsDir: comparisonsDir,
		BuildDir:       buildDir,
	}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	html, err := os.ReadFile(filepath.Join(buildDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "https://mrlixm.github.io/picture-lab-lxm/CAlc-D8T-dragon.html") {
		t.Error("index does not use the absolute site URL")
	}
}

func TestHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>home</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "about.html"), []byte("<html>about</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(Handler(dir))
	defer server.Close()

	tests := []struct {
		path string
		want string
		code int
	}{
		{"/", "home", http.StatusOK},
		{"/index.html", "home", http.StatusOK},
		{"/about", "about", http.StatusOK},
		{"/about.html", "about", http.StatusOK},
		{"/missing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(server.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.code {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.code)
		}
		if tt.want != "" && !strings.Contains(string(body), tt.want) {
			t.Errorf("GET %s body = %q, want %q", tt.path, body, tt.want)
		}
	}
}
