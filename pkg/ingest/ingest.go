// Package ingest turns contributed source images into optimized assets:
// an ACES2065-1 OpenEXR bounded to the working resolution, with the
// side-car metadata baked into the image attributes.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/download"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

// Version invalidates previously ingested assets whenever the ingestion
// logic changes in a way that affects the written image.
const Version = "2"

// acesConfigURL is the OCIO config used for colorspace conversion with
// oiiotool. Source colorspace names passed to ingestion must exist in it.
const acesConfigURL = "https://github.com/AcademySoftwareFoundation/OpenColorIO-Config-ACES/releases/download/v2.1.0-v2.2.0/studio-config-v2.1.0_aces-v1.3_ocio-v2.1.ocio"

// DstColorspace is the working colorspace every asset is converted to.
const DstColorspace = "ACES2065-1"

const (
	maxWidth  = 2204
	maxHeight = 1504
)

// OptimizeOpts configures the conversion of one source image.
type OptimizeOpts struct {
	// SourceColorspace converts from the named colorspace of the ACES
	// config. Empty when the source is already ACES2065-1.
	SourceColorspace string

	// ColorMatrix performs a manual 3x3 conversion to ACES2065-1 instead
	// of, or before, an OCIO conversion.
	ColorMatrix []float64

	// ConfigPath is the OCIO config resolving SourceColorspace.
	ConfigPath string
}

// ParseColorMatrix parses a comma-separated 3x3 matrix.
func ParseColorMatrix(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 9 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid color matrix: expected 9 values, got %d", len(parts))
	}
	matrix := make([]float64, 9)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid color matrix value %q", part)
		}
		matrix[i] = value
	}
	return matrix, nil
}

// OptimizeArgs composes the oiiotool arguments converting a source image to
// an optimized OpenEXR at dstPath.
//
// Plates are written as 16bit half floats since they originate from
// integer-based data; CGI keeps the full 32bit floats.
func OptimizeArgs(srcImage, dstPath string, width, height int, isPlate bool, meta *asset.Metadata, opts OptimizeOpts) ([]string, error) {
	args := []string{srcImage, "--ch", "R,G,B"}

	if len(opts.ColorMatrix) > 0 {
		if len(opts.ColorMatrix) != 9 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid color matrix: expected 9 values, got %d", len(opts.ColorMatrix))
		}
		var matrix [9]float64
		copy(matrix[:], opts.ColorMatrix)
		args = append(args, oiio.ColorMatrix(matrix)...)
	}
	if opts.SourceColorspace != "" {
		args = append(args,
			"--colorconfig", opts.ConfigPath,
			"--colorconvert", opts.SourceColorspace, DstColorspace,
		)
	}

	args = append(args,
		"--fit:filter=cubic",
		fmt.Sprintf("%dx%d", min(width, maxWidth), min(height, maxHeight)),
		// reset display window to data window
		"--fullpixels",
		"--origin", "+0+0",
		"--fullsize", "+0+0",
	)

	bitdepth := "float"
	if isPlate {
		bitdepth = "half"
	}
	args = append(args, "-d", bitdepth, "--compression", "zip")

	args = append(args,
		"--evaloff", "--wildcardoff",
		"--attrib", "ColorSpace", DstColorspace,
		"--attrib", "colorspace", DstColorspace,
		"--attrib:type=float[8]", "chromaticities", oiio.AP0Chromaticities,
		"--attrib", asset.MetadataPrefix+"/__version__", Version,
	)
	pairs, err := meta.ToMap()
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		args = append(args, "--attrib", asset.MetadataPrefix+"/"+pair[0], pair[1])
	}

	return append(args, "-o", dstPath), nil
}

// EnsureConfig downloads the ACES config used for colorspace conversion,
// unless a previous run already left it in dir.
func EnsureConfig(ctx context.Context, dl *download.Client, dir string) (string, error) {
	configPath := filepath.Join(dir, filepath.Base(acesConfigURL))
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create work dir %s", dir)
	}
	if err := dl.File(ctx, acesConfigURL, configPath); err != nil {
		return "", err
	}
	return configPath, nil
}

// Opts configures Run for one asset.
type Opts struct {
	// SrcJSONPath is the side-car metadata file of the source asset. The
	// image is expected next to it.
	SrcJSONPath string

	// AssetDir is the directory receiving ingested assets, one
	// sub-directory per identifier.
	AssetDir string

	// WorkDir caches the downloaded OCIO config between runs.
	WorkDir string

	Optimize OptimizeOpts

	// Overwrite replaces an already ingested asset.
	Overwrite bool
}

// Run ingests one asset: the optimized EXR is written to the asset
// directory together with a copy of the side-car metadata.
//
// Already ingested assets are skipped unless Overwrite is set.
func Run(ctx context.Context, tool *oiio.Tool, dl *download.Client, opts Opts) (err error) {
	src := asset.FromJSONPath(opts.SrcJSONPath)
	assetID := src.ID()

	observability.Pipeline().OnIngestStart(ctx, assetID)
	start := time.Now()
	defer func() {
		observability.Pipeline().OnIngestComplete(ctx, assetID, time.Since(start), err)
	}()

	if err = src.Validate(); err != nil {
		return err
	}

	dstDir := filepath.Join(opts.AssetDir, assetID)
	dstJSONPath := filepath.Join(dstDir, assetID+".json")
	if _, statErr := os.Stat(dstJSONPath); statErr == nil && !opts.Overwrite {
		return nil
	}

	configPath, err := EnsureConfig(ctx, dl, opts.WorkDir)
	if err != nil {
		return err
	}

	srcImage, err := src.ImagePath()
	if err != nil {
		return err
	}
	width, height, err := tool.ImageSize(ctx, srcImage)
	if err != nil {
		return err
	}
	meta, err := src.Metadata()
	if err != nil {
		return err
	}

	optimize := opts.Optimize
	optimize.ConfigPath = configPath

	if err = os.RemoveAll(dstDir); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to clean asset dir %s", dstDir)
	}
	if err = os.MkdirAll(dstDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create asset dir %s", dstDir)
	}

	dstPath := filepath.Join(dstDir, assetID+".exr")
	args, err := OptimizeArgs(srcImage, dstPath, width, height, src.IsPlate(), meta, optimize)
	if err != nil {
		return err
	}
	if err = tool.WithOCIOConfig(configPath).Run(ctx, args...); err != nil {
		return err
	}

	return meta.Write(dstJSONPath)
}
