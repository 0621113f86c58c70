package asset

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// All retrieves every asset stored under rootDir, sorted by identifier.
// Any .json file is treated as a side-car metadata file.
func All(rootDir string) ([]*Asset, error) {
	var assets []*Asset
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		// set previews carry a double extension, e.g. name.preview.json.
		// Set identifiers themselves contain dots, so only the preview
		// suffix is filtered.
		if strings.HasSuffix(path, ".preview.json") {
			return nil
		}
		assets = append(assets, FromJSONPath(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID() < assets[j].ID() })
	return assets, nil
}

// Find returns the asset matching the given identifier under rootDir.
func Find(identifier, rootDir string) (*Asset, error) {
	assets, err := All(rootDir)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if a.ID() == identifier {
			return a, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAssetNotFound, "no asset %q under %q", identifier, rootDir)
}

// AllSets retrieves every set image stored under rootDir. The result maps
// set identifier (the directory name) to the set's EXR image path.
func AllSets(rootDir string) (map[string]string, error) {
	sets := map[string]string{}
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".exr") {
			return nil
		}
		sets[filepath.Base(filepath.Dir(path))] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// FindSet returns the image path of the set matching the given identifier.
func FindSet(identifier, rootDir string) (string, error) {
	sets, err := AllSets(rootDir)
	if err != nil {
		return "", err
	}
	path, ok := sets[identifier]
	if !ok {
		return "", errors.New(errors.ErrCodeSetNotFound, "no set %q under %q", identifier, rootDir)
	}
	return path, nil
}
