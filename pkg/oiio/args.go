// Package oiio composes and runs oiiotool command lines. All image
// processing in the pipeline goes through oiiotool subprocesses; this
// package owns the argument grammar so callers work with typed options
// instead of raw string slices.
package oiio

import (
	"fmt"
	"math"
	"strconv"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// AP0Chromaticities is the ACES2065-1 (AP0) primaries and white point, in
// the 8-float layout of the OpenEXR "chromaticities" attribute.
const AP0Chromaticities = "0.7347,0.2653,0.0,1.0,0.0001,-0.077,0.32168,0.33767"

// ExportOpts configures the trailing arguments of an export.
type ExportOpts struct {
	Bitdepth    string // "half", "float", "uint8", ... depends on the format
	Compression string // e.g. "zip", "zips", "jpeg:98"; empty to omit
	SRGBEncoded bool   // apply the sRGB transfer function
}

// Export creates the arguments required to export an image. Those are
// usually concatenated last with the other arguments.
func Export(targetPath string, opts ExportOpts) []string {
	args := []string{"-d", opts.Bitdepth}
	if opts.SRGBEncoded {
		args = append(args, "--colorconvert", "linear", "sRGB")
	}
	if opts.Compression != "" {
		args = append(args, "--compression", opts.Compression)
	}
	return append(args, "-o", targetPath)
}

// DisplayConvert applies an OCIO display conversion: optional look, then
// display/view, all evaluated against the given config file.
func DisplayConvert(configPath, srcColorspace, display, view, look string) []string {
	args := []string{"--colorconfig", configPath}
	if look != "" {
		args = append(args,
			fmt.Sprintf("--ociolook:from=%q:to=%q", srcColorspace, srcColorspace),
			look,
		)
	}
	return append(args,
		fmt.Sprintf("--ociodisplay:from=%q", srcColorspace),
		display,
		view,
	)
}

// ColorMatrix applies a 3x3 color matrix, given row-major.
func ColorMatrix(matrix [9]float64) []string {
	s := ""
	for i, v := range matrix {
		if i > 0 {
			s += ","
		}
		s += strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []string{"--ccmatrix:transpose=1", s}
}

// ExpoBandsOpts configures an exposure band strip.
type ExpoBandsOpts struct {
	// BandNumber is how many bands to generate. Must be odd so the middle
	// band sits at native exposure.
	BandNumber int

	// ExposureOffset is the stop difference between adjacent bands.
	ExposureOffset int

	// BandWidth is the width of each band as a fraction of the image width,
	// 0-1 range.
	BandWidth float64

	// BandXOffset shifts where bands are cut from, as a fraction of the
	// image width, 0-1 range.
	BandXOffset float64

	// ExtraArgs are applied to each individual band before its exposure
	// label is drawn. Typically a display conversion.
	ExtraArgs []string
}

// ExpoBands renders vertical slices of the source image at graduated
// exposure offsets and lines them up as one strip.
func ExpoBands(srcPath string, opts ExpoBandsOpts) ([]string, error) {
	if opts.BandNumber%2 == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"band number can only be an odd number; got %d", opts.BandNumber)
	}

	offsetExpr := "0"
	if opts.BandXOffset > 0 {
		offsetExpr = fmt.Sprintf("{TOP.width//%.2f}", 1/opts.BandXOffset)
	}
	cutExpr := fmt.Sprintf("{TOP.width//%.2f}x{TOP.height}+%s+0", 1/opts.BandWidth, offsetExpr)

	middle := (opts.BandNumber + 1) / 2
	limit := opts.ExposureOffset * (middle - 1)

	var args []string
	bandCount := 0
	for exposure := -limit; exposure <= limit; exposure += opts.ExposureOffset {
		gain := math.Round(math.Pow(2, float64(exposure))*100) / 100
		args = append(args,
			"-i", srcPath,
			"--cut", cutExpr,
			"--mulc", strconv.FormatFloat(gain, 'f', -1, 64),
		)
		args = append(args, opts.ExtraArgs...)
		args = append(args,
			"--text:x={TOP.width/2}:y={TOP.height-25}:shadow=4:size=44:color=1,1,1,1",
			fmt.Sprintf("%+d", exposure),
		)
		bandCount++
	}
	return append(args, "--mosaic", fmt.Sprintf("%dx1", bandCount)), nil
}

// AutoMosaic tiles the current image stack in a grid, guessing a roughly
// square row/column split.
func AutoMosaic(imageCount int) []string {
	columns := int(math.Ceil(math.Sqrt(float64(imageCount))))
	rows := int(math.Ceil(float64(imageCount) / float64(columns)))
	return []string{"--mosaic", fmt.Sprintf("%dx%d", columns, rows)}
}
