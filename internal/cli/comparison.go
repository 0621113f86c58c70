package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// comparisonCommand creates the comparison generation command.
func (c *CLI) comparisonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comparison",
		Short: "Render assets through the picture formation renderers",
	}

	cmd.AddCommand(c.comparisonGenerateCommand())

	return cmd
}

// comparisonGenerateCommand creates the "comparison generate" subcommand.
func (c *CLI) comparisonGenerateCommand() *cobra.Command {
	var (
		renderers  string
		exposures  float64
		fullHeight int
		combined   bool
	)

	cmd := &cobra.Command{
		Use:   "generate [identifier...]",
		Short: "Generate the comparison images for the given assets",
		Long: `Render each image through every built renderer with every enabled image
generator, writing the artifacts and a session metadata file per image
under the workspace workbench. Without arguments every ingested asset
and every generated set mosaic is processed. Flags override the
[comparison] section of the workspace configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			store, keyer, err := c.newStore(ctx, ws)
			if err != nil {
				return err
			}
			defer store.Close()

			cfg := ws.Config.Comparison
			if cmd.Flags().Changed("exposures") {
				cfg.ExposuresOffset = exposures
			}
			if cmd.Flags().Changed("full-height") {
				cfg.FullHeight = fullHeight
			}
			if cmd.Flags().Changed("combined") {
				cfg.Combined = combined
			}
			rendererNames := cfg.Renderers
			if cmd.Flags().Changed("renderer") {
				rendererNames = parseList(renderers)
			}

			rdrs, err := loadRenderers(ws, rendererNames)
			if err != nil {
				return err
			}
			assets, err := comparisonTargets(ws, args)
			if err != nil {
				return err
			}
			if len(assets) == 0 {
				printInfo("Nothing to render under %s", ws.Root)
				return nil
			}
			tool, err := oiio.Find()
			if err != nil {
				return err
			}

			stats := &cacheStats{}
			observability.SetCacheHooks(stats)
			defer observability.Reset()

			prog := newProgress(logger)
			total := 0
			for _, a := range assets {
				srcPath, err := a.ImagePath()
				if err != nil {
					return err
				}

				before := stats.hits.Load()
				spinner := newSpinnerWithContext(ctx, "Rendering "+a.ID())
				spinner.Start()
				session, err := comparison.Generate(ctx, tool, store, keyer, comparison.GenerateOpts{
					AssetID:       a.ID(),
					AssetJSONPath: a.JSONPath,
					SrcPath:       srcPath,
					Renderers:     rdrs,
					Generators:    configGenerators(cfg),
					Combined:      cfg.Combined,
					TargetDir:     filepath.Join(ws.ComparisonDir(), a.ID()),
				})
				if err != nil {
					spinner.StopWithError(fmt.Sprintf("%s: %s", a.ID(), err))
					return err
				}
				spinner.StopWithSuccess(a.ID())
				printRenderStats(len(session.Renders), int(stats.hits.Load()-before))
				total += len(session.Renders)
			}
			prog.done(fmt.Sprintf("Rendered %d images for %d assets with %d renderers",
				total, len(assets), len(rdrs)))
			printNewline()
			printNextStep("Build the website", appName+" site build")
			return nil
		},
	}

	cmd.Flags().StringVar(&renderers, "renderer", "", "comma-separated renderer ids to use (default: configuration)")
	cmd.Flags().Float64Var(&exposures, "exposures", 0, "exposure bands offset in the 0-1 range")
	cmd.Flags().IntVar(&fullHeight, "full-height", 0, "full image generator output height, 0 disables it")
	cmd.Flags().BoolVar(&combined, "combined", true, "also produce per-generator mosaics of all renderers")
	return cmd
}

// comparisonTargets gathers the images to render: the ingested assets plus
// the generated set mosaics, or the subset named by identifiers. A set
// carries the same side-car metadata record as an asset, so both flow
// through the render pipeline unchanged.
func comparisonTargets(ws *workspace.Workspace, identifiers []string) ([]*asset.Asset, error) {
	if len(identifiers) == 0 {
		targets, err := asset.All(ws.AssetDir())
		if err != nil {
			return nil, err
		}
		if _, statErr := os.Stat(ws.SetDir()); statErr == nil {
			sets, err := asset.All(ws.SetDir())
			if err != nil {
				return nil, err
			}
			targets = append(targets, sets...)
		}
		return targets, nil
	}

	targets := make([]*asset.Asset, 0, len(identifiers))
	for _, id := range identifiers {
		a, err := asset.Find(id, ws.AssetDir())
		if err != nil {
			imagePath, setErr := asset.FindSet(id, ws.SetDir())
			if setErr != nil {
				return nil, err
			}
			a = asset.FromJSONPath(strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json")
		}
		targets = append(targets, a)
	}
	return targets, nil
}

// cacheStats counts cache hits across a command run.
type cacheStats struct {
	observability.NoopCacheHooks
	hits atomic.Int64
}

func (s *cacheStats) OnCacheHit(ctx context.Context, keyType string) {
	s.hits.Add(1)
}
