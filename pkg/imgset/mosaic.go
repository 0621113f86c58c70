package imgset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

// Version invalidates previously generated mosaics whenever the generation
// logic changes in a way that affects the written image.
const Version = "8"

// projectURL identifies the mosaic's source and references in its metadata.
const projectURL = "https://github.com/MrLixm/picture-lab-lxm"

const (
	headerHeight     = 150
	headerDisclaimer = "all images belongs to their respective owner, credits viewable in the metadata."
)

// MosaicOpts is the geometry of a mosaic.
type MosaicOpts struct {
	// Columns is the maximum number of tiles per row.
	Columns int

	// TileWidth and TileHeight bound the box each asset is fitted into.
	TileWidth  int
	TileHeight int

	// GapSize is the internal gap in pixels between tiles.
	GapSize int

	// Margins is the space in pixels between the image border and the tiles.
	Margins int

	// BGColor is the RGB background, 0-1 range.
	BGColor [3]float64
}

// DefaultMosaicOpts returns the geometry used by the published sets.
func DefaultMosaicOpts() MosaicOpts {
	return MosaicOpts{
		Columns:    5,
		TileWidth:  1102,
		TileHeight: 752,
		GapSize:    20,
		Margins:    20,
	}
}

// Grid returns the tile grid dimensions for the given asset count.
func (o MosaicOpts) Grid(assetCount int) (columns, rows int) {
	if assetCount <= o.Columns {
		return assetCount, 1
	}
	return o.Columns, int(math.Ceil(float64(assetCount) / float64(o.Columns)))
}

// MosaicTile is one asset placed in the mosaic.
type MosaicTile struct {
	ImagePath  string
	Identifier string
}

// MergeMetadata combines the source assets' metadata into the side-car
// record of the mosaic. Authors are merged with the assets they contributed.
func MergeMetadata(assets []*asset.Asset, description string) (*asset.Metadata, error) {
	authorAssets := map[string][]string{}
	var authorOrder []string
	for _, a := range assets {
		meta, err := a.Metadata()
		if err != nil {
			return nil, err
		}
		for _, author := range meta.Authors {
			if _, seen := authorAssets[author]; !seen {
				authorOrder = append(authorOrder, author)
			}
			authorAssets[author] = append(authorAssets[author], a.ID())
		}
	}
	authors := make([]string, len(authorOrder))
	for i, author := range authorOrder {
		authors[i] = fmt.Sprintf("%s (%s)", author, strings.Join(authorAssets[author], ","))
	}

	return &asset.Metadata{
		Source:       projectURL,
		Authors:      authors,
		References:   []string{projectURL},
		CaptureGamut: "various",
		PrimaryColor: asset.ColorRainbow,
		Type:         asset.TypeCGI,
		Context:      description,
	}, nil
}

// MosaicArgs composes the oiiotool arguments producing the mosaic image at
// dstPath. The metadata is baked into the image attributes.
func MosaicArgs(dstPath, title string, tiles []MosaicTile, meta *asset.Metadata, opts MosaicOpts) ([]string, error) {
	columns, rows := opts.Grid(len(tiles))
	bgColor := fmt.Sprintf("%s,%s,%s",
		formatFloat(opts.BGColor[0]), formatFloat(opts.BGColor[1]), formatFloat(opts.BGColor[2]))

	var args []string
	for _, tile := range tiles {
		args = append(args,
			"-i", tile.ImagePath,
			"--fit:filter=cubic", fmt.Sprintf("%dx%d", opts.TileWidth, opts.TileHeight),
			"--ch", "R,G,B,A=1.0",
			// bottom-left text with 30px margin
			"--text:x={TOP.x+30}:y={TOP.height+TOP.y-15}:shadow=4:size=20",
			tile.Identifier,
			// have the data-window cover the display-window
			"--croptofull",
		)
	}

	args = append(args,
		fmt.Sprintf("--mosaic:pad=%d", opts.GapSize),
		fmt.Sprintf("%dx%d", columns, rows),
		"--cut",
		fmt.Sprintf("{TOP.width+%d}x{TOP.height+%d}-%d-%d",
			opts.Margins*2, opts.Margins*2+headerHeight, opts.Margins, opts.Margins+headerHeight),
		"--ch", "R,G,B,A",
	)
	args = append(args,
		"--create", "{TOP.width}x{TOP.height}", "4",
		fmt.Sprintf("--fill:color=%s,1.0", bgColor),
		"{TOP.width}x{TOP.height}",
		"--over",
	)
	args = append(args,
		fmt.Sprintf("--text:x=%d:y=60:size=45", opts.Margins),
		title,
		fmt.Sprintf("--text:x=%d:y=95:size=25:color=0.4,0.4,0.4", opts.Margins),
		headerDisclaimer,
	)

	args = append(args,
		"--evaloff", "--wildcardoff",
		"--attrib", asset.MetadataPrefix+"/__version__", Version,
		"--attrib", "ColorSpace", "ACES2065-1",
		"--attrib", "colorspace", "ACES2065-1",
		"--attrib:type=float[8]", "chromaticities", oiio.AP0Chromaticities,
	)
	pairs, err := meta.ToMap()
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		args = append(args, "--attrib", asset.MetadataPrefix+"/"+pair[0], pair[1])
	}

	return append(args, oiio.Export(dstPath, oiio.ExportOpts{
		Bitdepth:    "float",
		Compression: "zips",
	})...), nil
}

// PreviewArgs composes the oiiotool arguments producing a display-ready
// preview of the mosaic, assuming OpenImageIO was compiled with OCIO
// support.
func PreviewArgs(mosaicPath, dstPath string) []string {
	args := []string{
		mosaicPath,
		"--colorconvert", "aces2065_1", "g22_encoded_rec709",
		"--ch", "R,G,B",
		"--attrib", "jpeg:subsampling", "4:4:4",
	}
	return append(args, oiio.Export(dstPath, oiio.ExportOpts{
		Bitdepth:    "uint8",
		Compression: "jpeg:70",
	})...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
