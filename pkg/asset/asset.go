package asset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// imageExtensions lists the image formats an asset can be stored as, in
// resolution priority order. Ingested assets are always OpenEXR; raw
// incoming assets may still be in a delivery format.
var imageExtensions = []string{".exr", ".tif", ".tiff", ".png", ".jpg", ".jpeg", ".dng"}

// Asset is an image file identified by its side-car JSON metadata file.
// The two files share a base name; the base name is the asset identifier.
type Asset struct {
	// JSONPath is the absolute path to the side-car metadata file.
	JSONPath string
}

// FromJSONPath creates an Asset from its metadata file path.
func FromJSONPath(path string) *Asset {
	return &Asset{JSONPath: path}
}

// ID returns the asset identifier, the metadata file's base name.
func (a *Asset) ID() string {
	return strings.TrimSuffix(filepath.Base(a.JSONPath), filepath.Ext(a.JSONPath))
}

// Identifier returns the parsed identifier.
func (a *Asset) Identifier() (Identifier, error) {
	return ParseIdentifier(a.ID())
}

// IsPlate reports whether the asset is a photographic plate, from the
// identifier's type prefix.
func (a *Asset) IsPlate() bool {
	return strings.HasPrefix(a.ID(), "P")
}

// ImagePath locates the image file sharing the metadata file's base name.
// OpenEXR is preferred when several candidates exist.
func (a *Asset) ImagePath() (string, error) {
	base := strings.TrimSuffix(a.JSONPath, filepath.Ext(a.JSONPath))
	for _, ext := range imageExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New(errors.ErrCodeFileNotFound, "no image file found for asset %q", a.ID())
}

// WithRootDir returns the same asset relocated under another directory.
func (a *Asset) WithRootDir(dir string) *Asset {
	return &Asset{JSONPath: filepath.Join(dir, filepath.Base(a.JSONPath))}
}

// Metadata loads the asset's side-car metadata.
func (a *Asset) Metadata() (*Metadata, error) {
	return ReadMetadata(a.JSONPath)
}

// Validate checks the asset's identifier and metadata record.
func (a *Asset) Validate() error {
	if err := errors.ValidateIdentifier(a.ID()); err != nil {
		return err
	}
	meta, err := a.Metadata()
	if err != nil {
		return err
	}
	if err := meta.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "asset %q", a.ID())
	}
	if _, err := a.ImagePath(); err != nil {
		return err
	}
	return nil
}
