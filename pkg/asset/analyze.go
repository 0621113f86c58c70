package asset

import (
	"image"
	"io"
	"os"

	// register decoders for the delivery formats assets arrive in
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// paletteSize is the number of color clusters extracted from an image.
const paletteSize = 5

// analyzeStride subsamples pixels during clustering to keep analysis fast
// on full-resolution plates.
const analyzeStride = 8

// Analysis summarizes the colorimetry of an asset image. It helps an
// operator fill the primary_color metadata field consistently instead of
// eyeballing it.
type Analysis struct {
	// Dominant is the single most representative color.
	Dominant colorful.Color

	// Palette holds the clustered color centers, most populous first.
	Palette []colorful.Color

	// MeanLuminance and StdLuminance describe the image's tonal spread,
	// both in [0, 1].
	MeanLuminance float64
	StdLuminance  float64

	// Suggested is the primary_color value the analysis recommends.
	Suggested PrimaryColor
}

// AnalyzeFile analyzes the image stored at path. The format must be one of
// the registered delivery formats (PNG, JPEG, TIFF); OpenEXR sources need a
// preview conversion first.
func AnalyzeFile(path string) (*Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot open image %q", path)
	}
	defer f.Close()
	return Analyze(f)
}

// Analyze decodes and analyzes an image.
func Analyze(r io.Reader) (*Analysis, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot decode image")
	}
	return analyzeImage(img)
}

func analyzeImage(img image.Image) (*Analysis, error) {
	dom, ok := colorful.MakeColor(dominantcolor.Find(img))
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "dominant color has zero alpha")
	}

	palette, err := clusterPalette(img)
	if err != nil {
		return nil, err
	}

	mean, std := luminanceStats(img)

	return &Analysis{
		Dominant:      dom,
		Palette:       palette,
		MeanLuminance: mean,
		StdLuminance:  std,
		Suggested:     classify(dom, palette),
	}, nil
}

// clusterPalette runs k-means over the image in Lab space, which keeps
// cluster distances perceptually meaningful.
func clusterPalette(img image.Image) ([]colorful.Color, error) {
	bounds := img.Bounds()
	var obs clusters.Observations
	for y := bounds.Min.Y; y < bounds.Max.Y; y += analyzeStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += analyzeStride {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, a, b := c.Lab()
			obs = append(obs, clusters.Coordinates{l, a, b})
		}
	}
	if len(obs) < paletteSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image too small to analyze")
	}

	km := kmeans.New()
	result, err := km.Partition(obs, paletteSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "clustering failed")
	}

	// largest clusters first
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if len(result[j].Observations) > len(result[i].Observations) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}

	palette := make([]colorful.Color, 0, len(result))
	for _, c := range result {
		center := c.Center
		palette = append(palette, colorful.Lab(center[0], center[1], center[2]).Clamped())
	}
	return palette, nil
}

func luminanceStats(img image.Image) (mean, std float64) {
	bounds := img.Bounds()
	var lums []float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += analyzeStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += analyzeStride {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			// Rec.709 luma weights
			lums = append(lums, 0.2126*c.R+0.7152*c.G+0.0722*c.B)
		}
	}
	if len(lums) == 0 {
		return 0, 0
	}
	return stat.Mean(lums, nil), stat.StdDev(lums, nil)
}

// classify maps a dominant color and palette to a primary_color value.
func classify(dom colorful.Color, palette []colorful.Color) PrimaryColor {
	h, s, v := dom.Hsv()

	// achromatic images first
	if v < 0.12 {
		return ColorBlack
	}
	if s < 0.12 {
		if v > 0.85 {
			return ColorWhite
		}
		return ColorGrey
	}

	// a palette spanning most of the hue wheel means no single family wins
	if hueSpread(palette) > 150 {
		return ColorRainbow
	}

	switch {
	case h < 15 || h >= 345:
		return ColorRed
	case h < 45:
		return ColorOrange
	case h < 70:
		return ColorYellow
	case h < 160:
		return ColorGreen
	case h < 200:
		return ColorCyan
	case h < 255:
		return ColorBlue
	case h < 290:
		return ColorPurple
	default:
		return ColorPink
	}
}

// hueSpread measures the spread in degrees of the saturated palette entries.
func hueSpread(palette []colorful.Color) float64 {
	var hues []float64
	for _, c := range palette {
		h, s, v := c.Hsv()
		if s > 0.2 && v > 0.1 {
			hues = append(hues, h)
		}
	}
	if len(hues) < 2 {
		return 0
	}
	min, max := hues[0], hues[0]
	for _, h := range hues[1:] {
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}
	return max - min
}
