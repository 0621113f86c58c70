package imgset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

// mosaicTTL bounds how long a mosaic fingerprint stays valid.
const mosaicTTL = 30 * 24 * time.Hour

// GenerateOpts configures Generate.
type GenerateOpts struct {
	// AssetDir is the directory holding ingested assets.
	AssetDir string

	// DstDir receives one sub-directory per variant.
	DstDir string

	Variants []Variant

	Mosaic MosaicOpts

	// Overwrite regenerates variants whose output already exists.
	Overwrite bool
}

// Generate builds the mosaic image, preview and side-car metadata of every
// variant.
//
// When store and keyer are non-nil, a fingerprint of each mosaic's inputs is
// cached so unchanged mosaics are skipped even with Overwrite set.
func Generate(ctx context.Context, tool *oiio.Tool, store cache.Cache, keyer cache.Keyer, opts GenerateOpts) error {
	if opts.Overwrite {
		if err := os.RemoveAll(opts.DstDir); err != nil {
			return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to clean set dir %s", opts.DstDir)
		}
	}
	if err := os.MkdirAll(opts.DstDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create set dir %s", opts.DstDir)
	}

	for _, variant := range opts.Variants {
		if err := generateVariant(ctx, tool, store, keyer, variant, opts); err != nil {
			return err
		}
	}
	return nil
}

func generateVariant(ctx context.Context, tool *oiio.Tool, store cache.Cache, keyer cache.Keyer, variant Variant, opts GenerateOpts) error {
	variantDir := filepath.Join(opts.DstDir, variant.Identifier)
	if _, err := os.Stat(variantDir); err == nil && !opts.Overwrite {
		return nil
	}

	assets, err := variant.Assets(opts.AssetDir)
	if err != nil {
		return err
	}

	meta, err := MergeMetadata(assets, variant.Description)
	if err != nil {
		return err
	}

	tiles := make([]MosaicTile, len(assets))
	assetIDs := make([]string, len(assets))
	for i, a := range assets {
		imagePath, err := a.ImagePath()
		if err != nil {
			return err
		}
		tiles[i] = MosaicTile{ImagePath: imagePath, Identifier: a.ID()}
		assetIDs[i] = a.ID()
	}

	mosaicOpts := opts.Mosaic
	mosaicOpts.BGColor = variant.BGColor
	mosaicPath := filepath.Join(variantDir, variant.Identifier+".exr")
	title := fmt.Sprintf("%s v%s", variant.Identifier, Version)

	args, err := MosaicArgs(mosaicPath, title, tiles, meta, mosaicOpts)
	if err != nil {
		return err
	}

	var key string
	if store != nil && keyer != nil {
		key = keyer.MosaicKey(variant.Identifier, cache.MosaicKeyOpts{
			Assets:   assetIDs,
			Columns:  mosaicOpts.Columns,
			TileSize: fmt.Sprintf("%dx%d", mosaicOpts.TileWidth, mosaicOpts.TileHeight),
		})
		fingerprint := cache.HashFileArgs(args)
		if data, ok, err := store.Get(ctx, key); err == nil && ok && string(data) == fingerprint {
			if _, err := os.Stat(mosaicPath); err == nil {
				observability.Cache().OnCacheHit(ctx, "mosaic")
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "mosaic")
	}

	if err := os.MkdirAll(variantDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create variant dir %s", variantDir)
	}
	if err := meta.Write(filepath.Join(variantDir, variant.Identifier+".json")); err != nil {
		return err
	}

	if err := tool.Run(ctx, args...); err != nil {
		return err
	}

	previewPath := filepath.Join(variantDir, variant.Identifier+".preview.jpg")
	if err := tool.Run(ctx, PreviewArgs(mosaicPath, previewPath)...); err != nil {
		return err
	}

	if key != "" {
		fingerprint := cache.HashFileArgs(args)
		if err := store.Set(ctx, key, []byte(fingerprint), mosaicTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "mosaic", len(fingerprint))
		}
	}
	return nil
}
