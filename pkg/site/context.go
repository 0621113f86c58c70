// Package site builds the static comparison website and the tooling around
// it: a local preview server and publishing to a GitHub Pages branch.
package site

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
)

// PageRender is one comparison image displayed on a page.
type PageRender struct {
	RendererName string
	RendererID   string

	// Path is relative to the site root.
	Path string
}

// PageGenerator groups the renders of one generation method.
type PageGenerator struct {
	Name     string
	Renders  []PageRender
	Combined *PageRender
}

// ComparisonPage is everything one comparison page shows.
type ComparisonPage struct {
	AssetID    string
	Generators []PageGenerator

	MetaContext    string
	MetaGamut      string
	MetaAuthors    string
	MetaReferences []string

	// Thumb is the optional index card preview, relative to the site root.
	Thumb string
}

// Slug is the page file name without extension.
func (p ComparisonPage) Slug() string {
	return p.AssetID
}

// PageFromSession flattens a comparison session and its asset metadata into
// a page model.
func PageFromSession(session *comparison.Session) (*ComparisonPage, error) {
	src := asset.FromJSONPath(session.Asset)
	meta, err := src.Metadata()
	if err != nil {
		return nil, err
	}

	rendersByGenerator := map[string][]PageRender{}
	combinedByGenerator := map[string]*PageRender{}
	var order []string
	for _, render := range session.Renders {
		name := render.Generator.Shortname()
		if name == comparison.CombinedShortname {
			// combined mosaics are named {asset}.{generator}.__combined__.jpg
			combinedByGenerator[artifactGenerator(render.DstPath)] = &PageRender{
				Path: filepath.Base(render.DstPath),
			}
			continue
		}
		if _, seen := rendersByGenerator[name]; !seen {
			order = append(order, name)
		}
		rendersByGenerator[name] = append(rendersByGenerator[name], PageRender{
			RendererName: render.Renderer.Name,
			RendererID:   render.Renderer.Filename,
			Path:         filepath.Base(render.DstPath),
		})
	}

	generators := make([]PageGenerator, 0, len(order))
	for _, name := range order {
		generators = append(generators, PageGenerator{
			Name:     name,
			Renders:  rendersByGenerator[name],
			Combined: combinedByGenerator[name],
		})
	}

	return &ComparisonPage{
		AssetID:        src.ID(),
		Generators:     generators,
		MetaContext:    meta.Context,
		MetaGamut:      meta.CaptureGamut,
		MetaAuthors:    strings.Join(meta.Authors, "; "),
		MetaReferences: meta.References,
	}, nil
}

// artifactGenerator extracts the generator shortname from an artifact file
// name.
func artifactGenerator(path string) string {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// EditPaths rewrites every render path, e.g. to prefix the image directory.
func (p *ComparisonPage) EditPaths(edit func(string) string) {
	for gi := range p.Generators {
		gen := &p.Generators[gi]
		for ri := range gen.Renders {
			gen.Renders[ri].Path = edit(gen.Renders[ri].Path)
		}
		if gen.Combined != nil {
			gen.Combined.Path = edit(gen.Combined.Path)
		}
	}
}

// SortPages orders pages for navigation: set mosaics first, then assets by
// identifier.
func SortPages(pages []*ComparisonPage) {
	sort.SliceStable(pages, func(i, j int) bool {
		iSet := strings.HasPrefix(pages[i].AssetID, "lxm")
		jSet := strings.HasPrefix(pages[j].AssetID, "lxm")
		if iSet != jSet {
			return iSet
		}
		return pages[i].AssetID < pages[j].AssetID
	})
}
