// Package comparison renders comparison artifacts: an asset or set image
// pushed through one or more renderers with a given generation method, plus
// the session metadata describing what was produced.
package comparison

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
)

// Generator shortnames, used in output file names.
const (
	ExposureBandsShortname = "exposures"
	FullShortname          = "full"
	CombinedShortname      = "__combined__"
)

// A Generator is a method of generating a comparison image with oiiotool.
type Generator interface {
	// Shortname identifies the method in file names and session metadata.
	Shortname() string

	// Description is a one-line human readable summary.
	Description() string

	// Args composes the full oiiotool argument list producing dstPath.
	// The renderer may be nil for generators that combine already-rendered
	// images.
	Args(srcPaths []string, dstPath string, r *renderer.Renderer) ([]string, error)
}

// ExposureBands renders vertical bands of gradually increasing exposure,
// labelled with their stop offset.
type ExposureBands struct {
	// BandOffset shifts where bands are cut from, as a fraction of the
	// image width, 0-1 range.
	BandOffset float64 `json:"band_offset"`
}

func (g ExposureBands) Shortname() string { return ExposureBandsShortname }

func (g ExposureBands) Description() string {
	return "generate bands of gradually increasing exposure"
}

func (g ExposureBands) Args(srcPaths []string, dstPath string, r *renderer.Renderer) ([]string, error) {
	if len(srcPaths) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "exposure bands take exactly one source image")
	}
	srcPath := srcPaths[0]

	ocioArgs, err := r.ToOiiotoolArgs()
	if err != nil {
		return nil, err
	}

	args, err := oiio.ExpoBands(srcPath, oiio.ExpoBandsOpts{
		BandNumber:     7,
		ExposureOffset: 2,
		BandWidth:      0.2,
		BandXOffset:    g.BandOffset,
		ExtraArgs:      ocioArgs,
	})
	if err != nil {
		return nil, err
	}

	args = append(args,
		"--resize:filter=box", "0x864",
		"--cut", "0,0,{TOP.width},{TOP.height+100}",
		"--text:x=40:y={TOP.height-45}:shadow=0:size=34:color=1,1,1,1:yalign=center",
		fmt.Sprintf("%s - %s", stem(srcPath), r.Name),
		"--text:x={TOP.width-40}:y={TOP.height-45}:shadow=0:size=24:color=1,1,1,1:yalign=center:xalign=right",
		rendererLegend(r),
	)
	return append(args, oiio.Export(dstPath, jpegExport())...), nil
}

// Full renders the whole area of the image resized to a target height,
// with a legend in a bottom footer.
type Full struct {
	// MaxHeight is the output height in pixels.
	MaxHeight int `json:"max_height"`
}

func (g Full) Shortname() string { return FullShortname }

func (g Full) Description() string {
	return "render the whole area of the image and resize it"
}

func (g Full) Args(srcPaths []string, dstPath string, r *renderer.Renderer) ([]string, error) {
	if len(srcPaths) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "full render takes exactly one source image")
	}
	srcPath := srcPaths[0]

	ocioArgs, err := r.ToOiiotoolArgs()
	if err != nil {
		return nil, err
	}

	args := []string{"-i", srcPath}
	args = append(args, ocioArgs...)
	args = append(args,
		"--ch", "R,G,B",
		"--resize:filter=box", fmt.Sprintf("0x%d", g.MaxHeight),
		"--cut", "0,0,{TOP.width},{TOP.height+100}",
		"--text:x=40:y={TOP.height-47}:shadow=0:size=34:color=1,1,1,1:yalign=bottom",
		r.Name,
		"--text:x=40:y={TOP.height-42}:shadow=0:size=24:color=1,1,1,1:yalign=top",
		rendererLegend(r),
		"--text:x={TOP.width-40}:y={TOP.height-45}:shadow=0:size=34:color=1,1,1,1:yalign=center:xalign=right",
		stem(srcPath),
	)
	return append(args, oiio.Export(dstPath, jpegExport())...), nil
}

// Combined tiles the images already produced for each renderer into a
// single mosaic, making renderers comparable side by side.
type Combined struct{}

func (g Combined) Shortname() string { return CombinedShortname }

func (g Combined) Description() string { return "" }

func (g Combined) Args(srcPaths []string, dstPath string, _ *renderer.Renderer) ([]string, error) {
	if len(srcPaths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "combined mosaic needs at least one source image")
	}
	var args []string
	for _, src := range srcPaths {
		args = append(args, "-i", src)
	}
	args = append(args, oiio.AutoMosaic(len(srcPaths))...)
	return append(args, oiio.Export(dstPath, jpegExport())...), nil
}

// GeneratorByShortname reconstructs a generator from its serialized form.
func GeneratorByShortname(shortname string, options map[string]float64) (Generator, error) {
	switch shortname {
	case ExposureBandsShortname:
		return ExposureBands{BandOffset: options["band_offset"]}, nil
	case FullShortname:
		return Full{MaxHeight: int(options["max_height"])}, nil
	case CombinedShortname:
		return Combined{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown generator %q", shortname)
}

func jpegExport() oiio.ExportOpts {
	return oiio.ExportOpts{Bitdepth: "uint8", Compression: "jpeg:98"}
}

func rendererLegend(r *renderer.Renderer) string {
	look := ""
	if r.Look != "" {
		look = fmt.Sprintf(", look='%s'", r.Look)
	}
	return fmt.Sprintf("(display='%s', view='%s'%s)", r.Display, r.View, look)
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
