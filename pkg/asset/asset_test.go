package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// writeAsset creates a minimal asset on disk: side-car JSON plus an empty
// image file.
func writeAsset(t *testing.T, dir, id, imageExt string) *Asset {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, id+".json")
	if err := validMetadata().Write(jsonPath); err != nil {
		t.Fatal(err)
	}
	if imageExt != "" {
		if err := os.WriteFile(filepath.Join(dir, id+imageExt), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return FromJSONPath(jsonPath)
}

func TestAssetID(t *testing.T) {
	a := FromJSONPath("/assets/PAfm-SWE-neongirl/PAfm-SWE-neongirl.json")
	if a.ID() != "PAfm-SWE-neongirl" {
		t.Errorf("ID() = %q", a.ID())
	}
	if !a.IsPlate() {
		t.Error("P-prefixed asset should be a plate")
	}

	c := FromJSONPath("/assets/CAlc-D8T-dragon/CAlc-D8T-dragon.json")
	if c.IsPlate() {
		t.Error("C-prefixed asset should not be a plate")
	}
}

func TestAssetImagePath(t *testing.T) {
	dir := t.TempDir()
	a := writeAsset(t, dir, "PAfm-SWE-neongirl", ".exr")

	got, err := a.ImagePath()
	if err != nil {
		t.Fatalf("ImagePath() failed: %v", err)
	}
	if got != filepath.Join(dir, "PAfm-SWE-neongirl.exr") {
		t.Errorf("ImagePath() = %q", got)
	}
}

func TestAssetImagePathPrefersExr(t *testing.T) {
	dir := t.TempDir()
	a := writeAsset(t, dir, "PAfm-SWE-neongirl", ".exr")
	os.WriteFile(filepath.Join(dir, "PAfm-SWE-neongirl.jpg"), []byte("jpg"), 0o644)

	got, _ := a.ImagePath()
	if filepath.Ext(got) != ".exr" {
		t.Errorf("ImagePath() = %q, want .exr preferred", got)
	}
}

func TestAssetImagePathMissing(t *testing.T) {
	a := writeAsset(t, t.TempDir(), "PAfm-SWE-neongirl", "")
	_, err := a.ImagePath()
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestAssetWithRootDir(t *testing.T) {
	a := FromJSONPath("/in/PAfm-SWE-neongirl.json")
	moved := a.WithRootDir("/assets/PAfm-SWE-neongirl")
	want := filepath.Join("/assets/PAfm-SWE-neongirl", "PAfm-SWE-neongirl.json")
	if moved.JSONPath != want {
		t.Errorf("JSONPath = %q, want %q", moved.JSONPath, want)
	}
}

func TestAssetValidate(t *testing.T) {
	a := writeAsset(t, t.TempDir(), "PAfm-SWE-neongirl", ".exr")
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}

	bad := writeAsset(t, t.TempDir(), "not-an-identifier", ".exr")
	if err := bad.Validate(); !errors.Is(err, errors.ErrCodeInvalidIdentifier) {
		t.Errorf("error code = %v, want INVALID_IDENTIFIER", errors.GetCode(err))
	}
}

func TestBrowseAll(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "PAfm-SWE-neongirl"), "PAfm-SWE-neongirl", ".exr")
	writeAsset(t, filepath.Join(root, "CAlc-D8T-dragon"), "CAlc-D8T-dragon", ".exr")

	assets, err := All(root)
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("len(assets) = %d, want 2", len(assets))
	}
	// sorted by identifier
	if assets[0].ID() != "CAlc-D8T-dragon" || assets[1].ID() != "PAfm-SWE-neongirl" {
		t.Errorf("order = %s, %s", assets[0].ID(), assets[1].ID())
	}
}

func TestBrowseAllSkipsPreviewSideCars(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "PAfm-SWE-neongirl", ".exr")
	os.WriteFile(filepath.Join(root, "PAfm-SWE-neongirl.preview.json"), []byte("{}"), 0o644)

	assets, err := All(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 1 {
		t.Errorf("len(assets) = %d, want 1", len(assets))
	}
}

func TestBrowseAllFindsSetSideCars(t *testing.T) {
	root := t.TempDir()
	const id = "lxmpicturelab.al.sorted-color.bg-black"
	setDir := filepath.Join(root, id)
	os.MkdirAll(setDir, 0o755)
	os.WriteFile(filepath.Join(setDir, id+".json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(setDir, id+".exr"), []byte("exr"), 0o644)
	os.WriteFile(filepath.Join(setDir, id+".preview.jpg"), []byte("jpg"), 0o644)

	assets, err := All(root)
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("len(assets) = %d, want 1", len(assets))
	}
	if assets[0].ID() != id {
		t.Errorf("ID() = %q", assets[0].ID())
	}

	a, err := Find(id, root)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got, err := a.ImagePath(); err != nil || got != filepath.Join(setDir, id+".exr") {
		t.Errorf("ImagePath() = %q, %v", got, err)
	}
}

func TestBrowseFind(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "PAfm-SWE-neongirl"), "PAfm-SWE-neongirl", ".exr")

	a, err := Find("PAfm-SWE-neongirl", root)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if a.ID() != "PAfm-SWE-neongirl" {
		t.Errorf("ID() = %q", a.ID())
	}

	_, err = Find("PAfm-XXX-other", root)
	if !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("error code = %v, want ASSET_NOT_FOUND", errors.GetCode(err))
	}
}

func TestBrowseSets(t *testing.T) {
	root := t.TempDir()
	setDir := filepath.Join(root, "lxmpicturelab.al.sorted-color.bg-black")
	os.MkdirAll(setDir, 0o755)
	exrPath := filepath.Join(setDir, "lxmpicturelab.al.sorted-color.bg-black.exr")
	os.WriteFile(exrPath, []byte("exr"), 0o644)

	sets, err := AllSets(root)
	if err != nil {
		t.Fatalf("AllSets() failed: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1", len(sets))
	}

	got, err := FindSet("lxmpicturelab.al.sorted-color.bg-black", root)
	if err != nil {
		t.Fatalf("FindSet() failed: %v", err)
	}
	if got != exrPath {
		t.Errorf("FindSet() = %q", got)
	}

	if _, err := FindSet("missing", root); !errors.Is(err, errors.ErrCodeSetNotFound) {
		t.Errorf("error code = %v, want SET_NOT_FOUND", errors.GetCode(err))
	}
}
