// Package imgset assembles multiple assets into a single mosaic image, so a
// whole collection can be pushed through a renderer in one pass.
package imgset

import (
	"sort"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// A Variant describes one mosaic to build: which assets it combines, in
// which order, and on what background.
type Variant struct {
	// Identifier names the set and its output files.
	Identifier string `toml:"identifier"`

	Description string `toml:"description"`

	// BGColor is the RGB background, 0-1 range.
	BGColor [3]float64 `toml:"bg_color"`

	AssetIDs []string `toml:"asset_ids"`

	// SortedByColor orders assets by type then primary color, which groups
	// visually similar tiles together.
	SortedByColor bool `toml:"sorted_by_color"`
}

// allAssetIDs is every asset shipped with the project, used by the builtin
// variants.
var allAssetIDs = []string{
	"CAaf-Z37-legomovie",
	"CAlc-D8T-dragon",
	"CAtm-FGH-specbox",
	"Cblr-GFD-spring",
	"CGts-W0L-sweep",
	"PAac-B01-skins",
	"PAds-4HS-testbench",
	"PAfl-H6O-night",
	"Pbri-H34-sunflower",
	"PAfl-UY7-garden",
	"PAfm-SWE-neongirl",
	"PAjg-MZY-nightstreet",
	"PAkp-4DO-bluehand",
	"PAmsk-8BB-bluebar",
	"PAmsk-R65-christmas",
	"PAtm-2QQ-space",
	"Pgra-O1K-snowfire",
	"PPry-00M-mountain",
	"PWarr-VWE-helenjohn",
	"PWdac-11H-ngohaiha",
	"PWdc-85R-braidmaker",
	"PWsjw-7QC-watchmaker",
	"PWsjw-90G-icecave",
	"PWsjw-FCC-closeman",
	"PWsjw-LE4-alpinist",
}

// BuiltinVariants returns the set variants the project publishes by default.
func BuiltinVariants() []Variant {
	return []Variant{
		{
			Identifier:    "lxmpicturelab.al.sorted-color.bg-black",
			Description:   "A collection of heterogeneous images from various physical or virtual capture devices.",
			BGColor:       [3]float64{0, 0, 0},
			AssetIDs:      allAssetIDs,
			SortedByColor: true,
		},
		{
			Identifier: "lxmpicturelab.al.sorted-color.bg-midgrey",
			Description: "A collection of heterogeneous images from various physical or virtual " +
				"capture devices; with a mid-grey background to affect picture perception.",
			BGColor:       [3]float64{0.18, 0.18, 0.18},
			AssetIDs:      allAssetIDs,
			SortedByColor: true,
		},
	}
}

// Assets resolves the variant's asset identifiers against the asset
// directory, in the variant's display order.
func (v Variant) Assets(rootDir string) ([]*asset.Asset, error) {
	assets := make([]*asset.Asset, 0, len(v.AssetIDs))
	for _, id := range v.AssetIDs {
		found, err := asset.Find(id, rootDir)
		if err != nil {
			return nil, err
		}
		assets = append(assets, found)
	}
	if v.SortedByColor {
		if err := sortAssetsByColor(assets); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// sortAssetsByColor orders assets by (type, primary color, identifier).
func sortAssetsByColor(assets []*asset.Asset) error {
	type sortKey struct {
		asset *asset.Asset
		key   [3]string
	}
	keyed := make([]sortKey, len(assets))
	for i, a := range assets {
		meta, err := a.Metadata()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMetadata, err, "failed to read metadata for %s", a.ID())
		}
		keyed[i] = sortKey{a, [3]string{string(meta.Type), string(meta.PrimaryColor), a.ID()}}
	}
	sort.Slice(keyed, func(i, j int) bool {
		a, b := keyed[i].key, keyed[j].key
		for n := range a {
			if a[n] != b[n] {
				return a[n] < b[n]
			}
		}
		return false
	})
	for i := range keyed {
		assets[i] = keyed[i].asset
	}
	return nil
}
