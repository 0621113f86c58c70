package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
)

// A Render is a single comparison image to produce: sources, the generator
// that composes the oiiotool call and the renderer applied, if any.
type Render struct {
	Generator Generator
	Renderer  *renderer.Renderer
	SrcPaths  []string
	DstPath   string
}

// Run produces the render's destination image.
func (r *Render) Run(ctx context.Context, tool *oiio.Tool) error {
	args, err := r.Generator.Args(r.SrcPaths, r.DstPath, r.Renderer)
	if err != nil {
		return err
	}
	return tool.Run(ctx, args...)
}

type renderJSON struct {
	DstPath   string             `json:"dst_path"`
	SrcPaths  []string           `json:"src_paths"`
	Renderer  *renderer.Renderer `json:"renderer,omitempty"`
	Generator struct {
		Shortname string             `json:"shortname"`
		Options   map[string]float64 `json:"options"`
	} `json:"generator"`
}

func (r *Render) MarshalJSON() ([]byte, error) {
	out := renderJSON{
		DstPath:  r.DstPath,
		SrcPaths: r.SrcPaths,
		Renderer: r.Renderer,
	}
	out.Generator.Shortname = r.Generator.Shortname()
	out.Generator.Options = map[string]float64{}
	switch g := r.Generator.(type) {
	case ExposureBands:
		out.Generator.Options["band_offset"] = g.BandOffset
	case Full:
		out.Generator.Options["max_height"] = float64(g.MaxHeight)
	}
	return json.Marshal(out)
}

func (r *Render) UnmarshalJSON(data []byte) error {
	var in renderJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	gen, err := GeneratorByShortname(in.Generator.Shortname, in.Generator.Options)
	if err != nil {
		return err
	}
	r.Generator = gen
	r.Renderer = in.Renderer
	r.SrcPaths = in.SrcPaths
	r.DstPath = in.DstPath
	return nil
}

// A Session records every comparison render produced for one asset.
type Session struct {
	// Asset is the path of the asset's side-car metadata file.
	Asset string `json:"asset"`

	Renders []*Render `json:"renders"`
}

// AddRender appends a completed render to the session.
func (s *Session) AddRender(r *Render) {
	s.Renders = append(s.Renders, r)
}

// Write serializes the session next to its renders.
func (s *Session) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to serialize session")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to write session to %s", path)
	}
	return nil
}

// ReadSession loads a session previously written with Write.
func ReadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to read session from %s", path)
	}
	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to parse session %s", path)
	}
	return session, nil
}

// ArtifactName is the file name of a comparison image for the given asset
// identifier, generator and renderer file stem.
func ArtifactName(assetID, generatorShortname, rendererFilename string) string {
	return fmt.Sprintf("%s.%s.%s.jpg", assetID, generatorShortname, rendererFilename)
}

// SessionFileName is the file name of the session metadata for an asset.
func SessionFileName(assetID string) string {
	return assetID + ".metadata.json"
}

// SessionPath locates an asset's session metadata under dir.
func SessionPath(dir, assetID string) string {
	return filepath.Join(dir, SessionFileName(assetID))
}
