package renderer

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/download"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

const (
	aces13ConfigURL = "https://github.com/AcademySoftwareFoundation/OpenColorIO-Config-ACES/releases/download/v2.1.0-v2.2.0/studio-config-v2.1.0_aces-v1.3_ocio-v2.1.ocio"
	aces20ConfigURL = "https://github.com/AcademySoftwareFoundation/OpenColorIO-Config-ACES/releases/download/v3.0.0/studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio"

	pixelManagerURL = "https://github.com/Joegenco/PixelManager/archive/c8716a42c7e03c6573915ad24f19eccfc39f687c.zip"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:136.0) Gecko/20100101 Firefox/136.0"
)

// BuildFunc assembles a renderer's resources into dir.
type BuildFunc func(ctx context.Context, dl *download.Client, dir string) error

// Builder knows how to fetch one picture formation algorithm from its
// upstream distribution and describe it as a Renderer.
type Builder struct {
	// ID is the renderer identifier, also used as the output file name.
	ID string

	// ReferenceURL is where the algorithm's resources come from.
	ReferenceURL string

	// ConfigRel is the path of the .ocio file relative to the build dir.
	ConfigRel string

	// Template is the renderer description; ConfigPath is filled at build
	// time.
	Template Renderer

	// BuildFn fetches and assembles the resources.
	BuildFn BuildFunc
}

// ConfigPath returns the built config's location under dir.
func (b *Builder) ConfigPath(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(b.ConfigRel))
}

// Build fetches the renderer's resources into dir and writes the renderer
// description as <ID>.json next to them.
func (b *Builder) Build(ctx context.Context, dl *download.Client, dir string) (*Renderer, error) {
	if err := b.BuildFn(ctx, dl, dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "building renderer %q", b.ID)
	}

	configPath := b.ConfigPath(dir)
	if _, err := os.Stat(configPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err,
			"renderer %q built but config %q is missing", b.ID, configPath)
	}

	r := b.Template
	r.Filename = b.ID
	r.ConfigPath = configPath
	r.ReferenceURL = b.ReferenceURL
	if r.SrcColorspace == "" {
		r.SrcColorspace = ACES20651Colorspace
	}

	if err := r.Write(filepath.Join(dir, b.ID+".json")); err != nil {
		return nil, err
	}
	return &r, nil
}

// All returns every supported renderer builder, in presentation order.
func All() []*Builder {
	return builders
}

// ByID returns the builder matching the given renderer identifier.
func ByID(id string) (*Builder, error) {
	for _, b := range builders {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRendererNotFound, "unknown renderer %q", id)
}

// IDs returns every supported renderer identifier.
func IDs() []string {
	ids := make([]string, len(builders))
	for i, b := range builders {
		ids[i] = b.ID
	}
	return ids
}

var builders = []*Builder{
	{
		ID:           "AgX",
		ReferenceURL: "https://github.com/sobotka/AgX/archive/refs/heads/main.zip",
		ConfigRel:    "AgX-main/config.ocio",
		Template: Renderer{
			Name:        "AgX",
			Description: "The original AgX algorithm by Troy Sobotka.",
			SRGBLin:     "Linear BT.709",
			Display:     "sRGB",
			View:        "Appearance Punchy",
		},
		BuildFn: func(ctx context.Context, dl *download.Client, dir string) error {
			return fetchZip(ctx, dl, "https://github.com/sobotka/AgX/archive/refs/heads/main.zip", dir)
		},
	},
	{
		ID:           "AgX.blender",
		ReferenceURL: "https://projects.blender.org/blender/blender/archive/v4.2.7.zip",
		ConfigRel:    "ocio/config.ocio",
		Template: Renderer{
			Name:        "AgX Blender-4.2.7",
			Description: "The improved AgX algorithm implemented in Blender.",
			SRGBLin:     "Linear Rec.709",
			Display:     "sRGB",
			View:        "AgX",
			Look:        "AgX - Punchy",
		},
		BuildFn: buildAgXBlender,
	},
	{
		ID:           "AgXc",
		ReferenceURL: "https://github.com/MrLixm/AgXc/archive/refs/heads/refacto/ocio-overhaul.zip",
		ConfigRel:    "AgXc-refacto-ocio-overhaul/ocio/AgXc_default_OCIO-v2/config.ocio",
		Template: Renderer{
			Name:        "AgXc v1.0",
			Description: "Another custom variant of AgX, closer to Blender variant. Not yet released.",
			SRGBLin:     "sRGB-linear",
			Display:     "sRGB-2.2",
			View:        "AgXc.base Punchy",
		},
		BuildFn: func(ctx context.Context, dl *download.Client, dir string) error {
			return fetchZip(ctx, dl, "https://github.com/MrLixm/AgXc/archive/refs/heads/refacto/ocio-overhaul.zip", dir)
		},
	},
	{
		ID:           "TCAMv3",
		ReferenceURL: "https://www.filmlight.ltd.uk/resources/download.php",
		ConfigRel:    "TCS_TCAMv3/TCS_TCAMv3.ocio",
		Template: Renderer{
			Name:        "TCAMv3",
			Description: "Filmlight's algorithm which is best working in the context of their grading tools.",
			SRGBLin:     "CGI: Linear : Rec.709",
			Display:     "sRGB Display: 2.2 Gamma : Rec.709 Truelight CAM v3",
			View:        "sRGB Display: 2.2 Gamma : Rec.709",
		},
		BuildFn: buildTCAM,
	},
	{
		ID:           "ARRIreveal",
		ReferenceURL: "https://www.arri.com/resource/blob/280728/7933fd1ce4de9165b906936661ab54eb/arri-logc4-lut-package-data.zip",
		ConfigRel:    "studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio",
		Template: Renderer{
			Name:        "ARRI Reveal",
			Description: `The ARRI "color-science" pipeline, based on their provided display LUTs.`,
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - 2.2",
			View:        "ARRI Reveal",
		},
		BuildFn: buildARRIReveal,
	},
	{
		ID:           "ACESv1.3-gm",
		ReferenceURL: aces13ConfigURL,
		ConfigRel:    "studio-config-v2.1.0_aces-v1.3_ocio-v2.1.ocio",
		Template: Renderer{
			Name:        "ACES v1.3 + Gamut Mapping",
			Description: `The Academy Color Encoding System on major version 1, with their "Gamut Compression" look.`,
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - Display",
			View:        "ACES 1.0 - SDR Video",
			Look:        "ACES 1.3 Reference Gamut Compression",
		},
		BuildFn: func(ctx context.Context, dl *download.Client, dir string) error {
			return dl.File(ctx, aces13ConfigURL, filepath.Join(dir, filepath.Base(aces13ConfigURL)))
		},
	},
	{
		ID:           "ACESv2.0-gm",
		ReferenceURL: aces20ConfigURL,
		ConfigRel:    "studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio",
		Template: Renderer{
			Name:        "ACES v2.0 + Gamut Mapping",
			Description: `The Academy Color Encoding System on major version 2, with their "Gamut Compression" look.`,
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - Display",
			View:        "ACES 2.0 - SDR 100 nits (Rec.709)",
			Look:        "ACES 1.3 Reference Gamut Compression",
		},
		BuildFn: fetchACES20Config,
	},
	{
		ID:           "ACESv2.0",
		ReferenceURL: aces20ConfigURL,
		ConfigRel:    "studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio",
		Template: Renderer{
			Name:        "ACES v2.0",
			Description: "The Academy Color Encoding System on major version 2.",
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - Display",
			View:        "ACES 2.0 - SDR 100 nits (Rec.709)",
		},
		BuildFn: fetchACES20Config,
	},
	{
		ID:           "native",
		ReferenceURL: aces20ConfigURL,
		ConfigRel:    "studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio",
		Template: Renderer{
			Name:        "Native (no image formation)",
			Description: "No picture formation is applied, anything outside the target volume is clipped.",
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - Display",
			View:        "Un-tone-mapped",
		},
		BuildFn: fetchACES20Config,
	},
	{
		ID:           "OpenDRT",
		ReferenceURL: pixelManagerURL,
		ConfigRel:    "ocio/config.ocio",
		Template: Renderer{
			Name:        "OpenDRT",
			Description: "An open source display rendering transform authored by Jed Smith (https://github.com/jedypod/open-display-transform).",
			SRGBLin:     "Linear Rec.709",
			Display:     "sRGB",
			View:        "OpenDRT",
		},
		BuildFn: buildPixelManager,
	},
	{
		ID:           "2499DRT",
		ReferenceURL: pixelManagerURL,
		ConfigRel:    "ocio/config.ocio",
		Template: Renderer{
			Name:        "2499DRT",
			Description: "A .dctl algorithm by Juan Pablo Zambrano (https://github.com/JuanPabloZambrano/DCTL/tree/main/2499_DRT).",
			SRGBLin:     "Linear Rec.709",
			Display:     "sRGB",
			View:        "JP2499DRT",
		},
		BuildFn: buildPixelManager,
	},
	{
		ID:           "Kodak2383",
		ReferenceURL: "https://www.dropbox.com/s/qn62wg07f21jydp/LMT%20Kodak%202383%20Print%20Emulation.xml?dl=0",
		ConfigRel:    "studio-config-all-views-v3.0.0_aces-v2.0_ocio-v2.4.ocio",
		Template: Renderer{
			Name:        "Kodak2383",
			Description: "The iconic Kodak2383 print film simulation LUT, authored by Blackmagic as an ACES LMT.",
			SRGBLin:     "Linear Rec.709 (sRGB)",
			Display:     "sRGB - 2.2",
			View:        "Kodak2383",
		},
		BuildFn: buildKodak2383,
	},
}

// fetchZip downloads a zip archive into dir and extracts it in place.
func fetchZip(ctx context.Context, dl *download.Client, rawURL, dir string) error {
	zipPath := filepath.Join(dir, filepath.Base(rawURL))
	if filepath.Ext(zipPath) != ".zip" {
		zipPath += ".zip"
	}
	if err := dl.File(ctx, rawURL, zipPath); err != nil {
		return err
	}
	_, err := download.ExtractZip(zipPath, true)
	return err
}

func fetchACES20Config(ctx context.Context, dl *download.Client, dir string) error {
	return dl.File(ctx, aces20ConfigURL, filepath.Join(dir, filepath.Base(aces20ConfigURL)))
}

func buildAgXBlender(ctx context.Context, dl *download.Client, dir string) error {
	if err := fetchZip(ctx, dl, "https://projects.blender.org/blender/blender/archive/v4.2.7.zip", dir); err != nil {
		return err
	}
	srcDir := filepath.Join(dir, "blender", "release", "datafiles", "colormanagement")
	if err := os.Rename(srcDir, filepath.Join(dir, "ocio")); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(dir, "blender"))
}

func buildTCAM(ctx context.Context, dl *download.Client, dir string) error {
	// Filmlight serves the archive behind a download form submission.
	zipPath := filepath.Join(dir, "TCAM.zip")
	params := url.Values{
		"access":    {"public"},
		"download":  {"colourspaces/TCS_TCAMv3.zip"},
		"last_page": {"/support/customer-login/colourspaces/colourspaces.php"},
		"button.x":  {"9"},
		"button.y":  {"6"},
	}
	headers := map[string]string{"User-Agent": browserUserAgent}
	if err := dl.FilePOST(ctx, "https://www.filmlight.ltd.uk/resources/download.php", zipPath, params, headers); err != nil {
		return err
	}
	_, err := download.ExtractZip(zipPath, true)
	return err
}

func buildARRIReveal(ctx context.Context, dl *download.Client, dir string) error {
	// ARRI Reveal is only provided as a display-ready LUT, so it is grafted
	// onto the stock ACES config as an extra view.
	lutURL := "https://www.arri.com/resource/blob/280728/7933fd1ce4de9165b906936661ab54eb/arri-logc4-lut-package-data.zip"
	zipPath := filepath.Join(dir, "arri.zip")
	if err := dl.File(ctx, lutURL, zipPath); err != nil {
		return err
	}
	if _, err := download.ExtractZip(zipPath, true); err != nil {
		return err
	}

	configPath := filepath.Join(dir, filepath.Base(aces20ConfigURL))
	if err := dl.File(ctx, aces20ConfigURL, configPath); err != nil {
		return err
	}

	const lutName = "ARRI_LogC4-to-Gamma24_Rec709-D65_v1-65.cube"
	lutPath, err := findFile(dir, lutName)
	if err != nil {
		return err
	}
	if err := copyFile(lutPath, filepath.Join(dir, lutName)); err != nil {
		return err
	}

	return PatchConfig(configPath, ConfigPatch{
		ColorSpaceName: "ARRI Gamma24 Rec709-D65 v1",
		Display:        "sRGB - 2.2",
		View:           "ARRI Reveal",
		Transforms: []Transform{
			{Src: "ACES2065-1", Dst: "ARRI LogC4"},
			{FileSrc: lutName, Interpolation: "linear"},
			// the LUT outputs BT.1886; convert to 2.2 to stay uniform with
			// the other renderers
			{Src: "Gamma 2.4 Encoded Rec.709", Dst: "Gamma 2.2 Encoded Rec.709"},
		},
	})
}

func buildPixelManager(ctx context.Context, dl *download.Client, dir string) error {
	tmpDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return err
	}
	if err := fetchZip(ctx, dl, pixelManagerURL, tmpDir); err != nil {
		return err
	}
	gitRef := strings.TrimSuffix(filepath.Base(pixelManagerURL), ".zip")
	if err := os.Rename(filepath.Join(tmpDir, "PixelManager-"+gitRef), filepath.Join(dir, "ocio")); err != nil {
		return err
	}
	return os.RemoveAll(tmpDir)
}

func buildKodak2383(ctx context.Context, dl *download.Client, dir string) error {
	const lutName = "LMT-Kodak-2383-Print-Emulation.clf"
	lutURL := "https://www.dropbox.com/s/qn62wg07f21jydp/LMT%20Kodak%202383%20Print%20Emulation.xml?dl=1"
	if err := dl.File(ctx, lutURL, filepath.Join(dir, lutName)); err != nil {
		return err
	}

	configPath := filepath.Join(dir, filepath.Base(aces20ConfigURL))
	if err := dl.File(ctx, aces20ConfigURL, configPath); err != nil {
		return err
	}

	return PatchConfig(configPath, ConfigPatch{
		ColorSpaceName: "Kodak2383 AP0",
		Display:        "sRGB - 2.2",
		View:           "Kodak2383",
		Transforms: []Transform{
			{FileSrc: lutName},
			{Src: "ACES2065-1", Dst: "sRGB - Display"},
		},
	})
}

// findFile locates a file by name anywhere under root.
func findFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.New(errors.ErrCodeFileNotFound, "no file %q under %q", name, root)
	}
	return found, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
