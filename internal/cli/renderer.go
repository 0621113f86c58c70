package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// rendererTTL bounds how long a built renderer fingerprint stays valid.
// Upstream distributions move rarely; three months is enough churn.
const rendererTTL = 90 * 24 * time.Hour

// rendererBuildRevision invalidates cached builds when the assembly logic
// changes. Bump on any change to the builders.
const rendererBuildRevision = "2"

// rendererCommand creates the renderer management command.
func (c *CLI) rendererCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renderer",
		Short: "Fetch and assemble the picture formation algorithms",
	}

	cmd.AddCommand(c.rendererBuildCommand())
	cmd.AddCommand(c.rendererListCommand())

	return cmd
}

// rendererBuildCommand creates the "renderer build" subcommand.
func (c *CLI) rendererBuildCommand() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Download and assemble the supported renderers",
		Long: `Download each supported picture formation algorithm from its upstream
distribution and assemble it into an OCIO config under the workspace
workbench. Already built renderers whose upstream did not change are
skipped; use --no-cache to force a rebuild.`,
		Args: cobra.NoArgs,
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

			builders, err := selectBuilders(only)
			if err != nil {
				return err
			}
			dl, err := c.newDownloader(ws, keyer)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			built, skipped := 0, 0
			for _, b := range builders {
				dir := filepath.Join(ws.RendererDir(), b.ID)
				key := keyer.RendererKey(b.ID, cache.RendererKeyOpts{
					SourceURL: b.ReferenceURL,
					Version:   rendererBuildRevision,
				})

				if _, hit, _ := store.Get(ctx, key); hit && rendererIsBuilt(ws, b) {
					observability.Cache().OnCacheHit(ctx, "renderer")
					printInfo("%s %s", b.ID, StyleDim.Render("(cached)"))
					skipped++
					continue
				}
				observability.Cache().OnCacheMiss(ctx, "renderer")

				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}

				start := time.Now()
				observability.Pipeline().OnRendererBuildStart(ctx, b.ID)
				spinner := newSpinnerWithContext(ctx, "Building "+b.ID)
				spinner.Start()
				r, err := b.Build(ctx, dl, dir)
				observability.Pipeline().OnRendererBuildComplete(ctx, b.ID, time.Since(start), err)
				if err != nil {
					spinner.StopWithError(fmt.Sprintf("%s: %s", b.ID, err))
					return err
				}
				spinner.StopWithSuccess(fmt.Sprintf("%s (%s view on %s)", b.ID, r.View, r.Display))

				if err := store.Set(ctx, key, []byte(b.ReferenceURL), rendererTTL); err != nil {
					logger.Debug("cannot record renderer fingerprint", "renderer", b.ID, "error", err)
				} else {
					observability.Cache().OnCacheSet(ctx, "renderer", len(b.ReferenceURL))
				}
				built++
			}
			prog.done(fmt.Sprintf("Built %d renderers, %d cached", built, skipped))
			printNewline()
			printNextStep("Generate the comparisons", appName+" comparison generate")
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "comma-separated renderer ids to build (default: all)")
	return cmd
}

// rendererListCommand creates the "renderer list" subcommand.
func (c *CLI) rendererListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the supported renderers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The workspace is optional here; without one nothing is built.
			ws, wsErr := openWorkspace()

			for _, b := range renderer.All() {
				status := StyleDim.Render("not built")
				if wsErr == nil && rendererIsBuilt(ws, b) {
					status = StyleSuccess.Render("built")
				}
				fmt.Printf("%s  %s\n", StyleValue.Render(fmt.Sprintf("%-14s", b.ID)), status)
				printDetail("%s", b.Template.Description)
				printDetail("%s", StyleLink.Render(b.ReferenceURL))
			}
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// selectBuilders resolves the --only flag into builders, defaulting to all.
func selectBuilders(only string) ([]*renderer.Builder, error) {
	ids := parseList(only)
	if len(ids) == 0 {
		return renderer.All(), nil
	}
	builders := make([]*renderer.Builder, 0, len(ids))
	for _, id := range ids {
		b, err := renderer.ByID(id)
		if err != nil {
			return nil, err
		}
		builders = append(builders, b)
	}
	return builders, nil
}

// rendererIsBuilt reports whether the renderer's description and config
// exist under the workspace.
func rendererIsBuilt(ws *workspace.Workspace, b *renderer.Builder) bool {
	dir := filepath.Join(ws.RendererDir(), b.ID)
	if _, err := os.Stat(filepath.Join(dir, b.ID+".json")); err != nil {
		return false
	}
	_, err := os.Stat(b.ConfigPath(dir))
	return err == nil
}
