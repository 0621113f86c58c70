package comparison

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
)

// renderTTL bounds how long a cached comparison image stays valid.
const renderTTL = 7 * 24 * time.Hour

// GenerateOpts configures Generate for one asset.
type GenerateOpts struct {
	// AssetID is the asset identifier, used to name artifacts.
	AssetID string

	// AssetJSONPath is the asset's side-car metadata file, recorded in the
	// session.
	AssetJSONPath string

	// SrcPath is the image every renderer is applied to.
	SrcPath string

	Renderers  []*renderer.Renderer
	Generators []Generator

	// Combined also produces a mosaic of all renderer outputs per generator.
	Combined bool

	// TargetDir receives the artifacts. It is wiped first.
	TargetDir string
}

// Generate renders the asset through every renderer with every generator and
// writes the resulting images and session metadata to the target directory.
//
// When store and keyer are non-nil, individual renders are cached on the
// exact oiiotool arguments so unchanged renders are restored from cache
// instead of re-executed.
func Generate(ctx context.Context, tool *oiio.Tool, store cache.Cache, keyer cache.Keyer, opts GenerateOpts) (*Session, error) {
	if len(opts.Generators) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no generator requested")
	}
	if err := os.RemoveAll(opts.TargetDir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWrite, err, "failed to clean target dir %s", opts.TargetDir)
	}
	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create target dir %s", opts.TargetDir)
	}

	session := &Session{Asset: opts.AssetJSONPath}

	for _, gen := range opts.Generators {
		var results []string

		for _, rdr := range opts.Renderers {
			dstPath := filepath.Join(opts.TargetDir, ArtifactName(opts.AssetID, gen.Shortname(), rdr.Filename))
			render := &Render{
				Generator: gen,
				Renderer:  rdr,
				SrcPaths:  []string{opts.SrcPath},
				DstPath:   dstPath,
			}
			observability.Pipeline().OnRenderStart(ctx, opts.AssetID, rdr.Filename)
			start := time.Now()
			err := runCached(ctx, tool, store, keyer, opts.AssetID, render)
			observability.Pipeline().OnRenderComplete(ctx, opts.AssetID, rdr.Filename, time.Since(start), err)
			if err != nil {
				return nil, err
			}
			session.AddRender(render)
			results = append(results, dstPath)
		}

		if opts.Combined && len(results) > 0 {
			combined := &Render{
				Generator: Combined{},
				SrcPaths:  results,
				DstPath:   filepath.Join(opts.TargetDir, ArtifactName(opts.AssetID, gen.Shortname(), CombinedShortname)),
			}
			observability.Pipeline().OnRenderStart(ctx, opts.AssetID, CombinedShortname)
			start := time.Now()
			err := combined.Run(ctx, tool)
			observability.Pipeline().OnRenderComplete(ctx, opts.AssetID, CombinedShortname, time.Since(start), err)
			if err != nil {
				return nil, err
			}
			session.AddRender(combined)
		}
	}

	sessionPath := SessionPath(opts.TargetDir, opts.AssetID)
	if err := session.Write(sessionPath); err != nil {
		return nil, err
	}
	return session, nil
}

// runCached restores the render output from cache when the exact same
// oiiotool invocation was produced before, and otherwise runs it and stores
// the result.
func runCached(ctx context.Context, tool *oiio.Tool, store cache.Cache, keyer cache.Keyer, assetID string, render *Render) error {
	if store == nil || keyer == nil {
		return render.Run(ctx, tool)
	}

	args, err := render.Generator.Args(render.SrcPaths, render.DstPath, render.Renderer)
	if err != nil {
		return err
	}
	key := keyer.RenderKey(assetID, cache.RenderKeyOpts{
		Renderer:  render.Renderer.Filename,
		Generator: render.Generator.Shortname(),
		ArgsHash:  cache.HashFileArgs(args),
	})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "render")
		return os.WriteFile(render.DstPath, data, 0o644)
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	if err := tool.Run(ctx, args...); err != nil {
		return err
	}
	data, err := os.ReadFile(render.DstPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "render produced no output at %s", render.DstPath)
	}
	if err := store.Set(ctx, key, data, renderTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return nil
}
