package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/download"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

func testMetadata() *asset.Metadata {
	return &asset.Metadata{
		Source:       "https://example.com/source",
		Authors:      []string{"alice"},
		References:   []string{"https://example.com/ref"},
		CaptureGamut: "sRGB",
		PrimaryColor: asset.ColorBlue,
		Type:         asset.TypePlate,
	}
}

func TestParseColorMatrix(t *testing.T) {
	matrix, err := ParseColorMatrix("2.52,-1.13,-0.38, -0.27,1.36,-0.09, -0.01,-0.14,1.16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matrix) != 9 || matrix[0] != 2.52 || matrix[8] != 1.16 {
		t.Errorf("matrix = %v", matrix)
	}

	if _, err := ParseColorMatrix("1,2,3"); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("short matrix error code = %v", errors.GetCode(err))
	}
	if _, err := ParseColorMatrix("a,b,c,d,e,f,g,h,i"); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("bad value error code = %v", errors.GetCode(err))
	}
}

func TestOptimizeArgs(t *testing.T) {
	meta := testMetadata()

	t.Run("large plate", func(t *testing.T) {
		args, err := OptimizeArgs("/in/src.tif", "/out/dst.exr", 4096, 2160, true, meta, OptimizeOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := strings.Join(args, " ")
		for _, want := range []string{
			"--ch R,G,B",
			"--fit:filter=cubic 2204x1504",
			"--fullpixels --origin +0+0 --fullsize +0+0",
			"-d half",
			"--compression zip",
			"--attrib ColorSpace ACES2065-1",
			"--attrib:type=float[8] chromaticities " + oiio.AP0Chromaticities,
			"--attrib lxmpicturelab/__version__ 2",
			"-o /out/dst.exr",
		} {
			if !strings.Contains(joined, want) {
				t.Errorf("args missing %q:\n%s", want, joined)
			}
		}
		if strings.Contains(joined, "--colorconvert") {
			t.Errorf("unexpected colorspace conversion:\n%s", joined)
		}
	})

	t.Run("small cgi", func(t *testing.T) {
		args, err := OptimizeArgs("/in/src.exr", "/out/dst.exr", 1000, 800, false, meta, OptimizeOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--fit:filter=cubic 1000x800") {
			t.Errorf("small image should keep its size:\n%s", joined)
		}
		if !strings.Contains(joined, "-d float") {
			t.Errorf("cgi should keep 32bit floats:\n%s", joined)
		}
	})

	t.Run("with colorspace", func(t *testing.T) {
		args, err := OptimizeArgs("/in/src.exr", "/out/dst.exr", 100, 100, false, meta, OptimizeOpts{
			SourceColorspace: "Linear Rec.709 (sRGB)",
			ConfigPath:       "/work/config.ocio",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--colorconfig /work/config.ocio --colorconvert Linear Rec.709 (sRGB) ACES2065-1") {
			t.Errorf("args missing colorspace conversion:\n%s", joined)
		}
	})

	t.Run("with matrix", func(t *testing.T) {
		matrix := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
		args, err := OptimizeArgs("/in/src.exr", "/out/dst.exr", 100, 100, false, meta, OptimizeOpts{
			ColorMatrix: matrix,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--ccmatrix:transpose=1") {
			t.Errorf("args missing matrix conversion:\n%s", joined)
		}
	})

	t.Run("invalid matrix", func(t *testing.T) {
		_, err := OptimizeArgs("/in/src.exr", "/out/dst.exr", 100, 100, false, meta, OptimizeOpts{
			ColorMatrix: []float64{1, 2, 3},
		})
		if errors.GetCode(err) != errors.ErrCodeInvalidInput {
			t.Errorf("error code = %v, want ErrCodeInvalidInput", errors.GetCode(err))
		}
	})
}

func TestEnsureConfigSkipsExisting(t *testing.T) {
	workDir := t.TempDir()
	configPath := filepath.Join(workDir, filepath.Base(acesConfigURL))
	if err := os.WriteFile(configPath, []byte("ocio_profile_version: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// no network access happens when the config is already present
	got, err := EnsureConfig(context.Background(), download.NewClient(nil), workDir)
	if err != nil {
		t.Fatalf("EnsureConfig() error: %v", err)
	}
	if got != configPath {
		t.Errorf("config path = %q, want %q", got, configPath)
	}
}

// stubTool returns a Tool whose binary mimics the two oiiotool behaviors
// exercised here: echoing image dimensions and writing its output file.
func stubTool(t *testing.T) *oiio.Tool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "oiiotool-stub")
	content := `#!/bin/sh
case "$*" in
*--echo*) printf '4096\n2160\n'; exit 0;;
esac
for last; do :; done
: > "$last"
`
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return &oiio.Tool{Path: script}
}

func writeSourceAsset(t *testing.T, dir, id string) string {
	t.Helper()
	jsonPath := filepath.Join(dir, id+".json")
	if err := testMetadata().Write(jsonPath); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".tif"), []byte("tif"), 0o644); err != nil {
		t.Fatal(err)
	}
	return jsonPath
}

func TestRun(t *testing.T) {
	srcDir := t.TempDir()
	assetDir := t.TempDir()
	workDir := t.TempDir()
	jsonPath := writeSourceAsset(t, srcDir, "PWsjw-90G-icecave")

	configPath := filepath.Join(workDir, filepath.Base(acesConfigURL))
	if err := os.WriteFile(configPath, []byte("ocio_profile_version: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Opts{
		SrcJSONPath: jsonPath,
		AssetDir:    assetDir,
		WorkDir:     workDir,
	}
	if err := Run(context.Background(), stubTool(t), download.NewClient(nil), opts); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	dstDir := filepath.Join(assetDir, "PWsjw-90G-icecave")
	for _, name := range []string{"PWsjw-90G-icecave.json", "PWsjw-90G-icecave.exr"} {
		if _, err := os.Stat(filepath.Join(dstDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// a second run without overwrite must skip, even with a broken tool
	failing := &oiio.Tool{Path: filepath.Join(t.TempDir(), "missing-binary")}
	if err := Run(context.Background(), failing, download.NewClient(nil), opts); err != nil {
		t.Fatalf("skip run error: %v", err)
	}

	// with overwrite the tool runs again
	opts.Overwrite = true
	if err := Run(context.Background(), stubTool(t), download.NewClient(nil), opts); err != nil {
		t.Fatalf("overwrite run error: %v", err)
	}
}

func TestRunRejectsInvalidAsset(t *testing.T) {
	srcDir := t.TempDir()
	jsonPath := filepath.Join(srcDir, "badid.json")
	if err := testMetadata().Write(jsonPath); err != nil {
		t.Fatal(err)
	}

	err := Run(context.Background(), stubTool(t), download.NewClient(nil), Opts{
		SrcJSONPath: jsonPath,
		AssetDir:    t.TempDir(),
		WorkDir:     t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected an error for an invalid identifier")
	}
}
