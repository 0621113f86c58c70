// Package renderer models picture formation algorithms as OCIO config
// based renderers, and knows how to fetch and assemble each supported
// algorithm from its upstream distribution.
package renderer

import (
	"encoding/json"
	"os"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

// ACES20651Colorspace is the placeholder value for renderer source
// colorspaces meaning "the image is ACES2065-1 encoded".
const ACES20651Colorspace = "@ACES2065-1@"

// ap0ToSRGB converts ACES2065-1 primaries to sRGB primaries (CAT02
// adaptation), row-major.
var ap0ToSRGB = [9]float64{
	2.521649, -1.136889, -0.384918,
	-0.275214, 1.369705, -0.094392,
	-0.015925, -0.147806, 1.163806,
}

// Renderer indicates how to evaluate an image formation sourced from an
// OCIO config file.
type Renderer struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Description string `json:"description"`

	ConfigPath string `json:"config_path"`

	// SRGBLin is the name of the config's linear sRGB colorspace. Most OCIO
	// configs include one under some name, which makes it a reliable
	// handoff point after the AP0 to sRGB matrix.
	SRGBLin string `json:"srgb_lin"`
	Display string `json:"display"`
	View    string `json:"view"`
	Look    string `json:"look,omitempty"`

	SrcColorspace string `json:"src_colorspace"`

	ReferenceURL string `json:"reference_url,omitempty"`
}

// ToOiiotoolArgs composes the oiiotool arguments applying this renderer to
// an ACES2065-1 encoded image stack.
func (r *Renderer) ToOiiotoolArgs() ([]string, error) {
	if r.SrcColorspace != ACES20651Colorspace {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"only ACES2065-1 encoded data is supported at this time; got colorspace %q", r.SrcColorspace)
	}
	args := oiio.ColorMatrix(ap0ToSRGB)
	return append(args, oiio.DisplayConvert(r.ConfigPath, r.SRGBLin, r.Display, r.View, r.Look)...), nil
}

// Read loads a renderer description from a JSON file.
func Read(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRendererNotFound, err, "cannot read renderer file %q", path)
	}
	var r Renderer
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot parse renderer file %q", path)
	}
	return &r, nil
}

// Write serializes the renderer description to path as indented JSON.
func (r *Renderer) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
