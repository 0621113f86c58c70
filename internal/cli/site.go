package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/site"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// siteCommand creates the website management command.
func (c *CLI) siteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Build, preview and publish the comparison website",
	}

	cmd.AddCommand(c.siteBuildCommand())
	cmd.AddCommand(c.siteServeCommand())
	cmd.AddCommand(c.sitePublishCommand())

	return cmd
}

// siteBuildCommand creates the "site build" subcommand.
func (c *CLI) siteBuildCommand() *cobra.Command {
	var siteURL string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the static comparison website",
		Long: `Build the static website from the generated comparisons: one page per
asset, an index with thumbnails and an about page describing the
renderers. Without --url the build uses relative paths suitable for a
local preview.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("url") {
				siteURL = ""
			}

			prog := newProgress(logger)
			pageCount, err := buildSite(cmd, ws, siteURL, ws.SiteDir())
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Built %d pages", pageCount))
			printSuccess("Website ready")
			printFile(ws.SiteDir())
			printNewline()
			printNextStep("Preview it", appName+" site serve")
			return nil
		},
	}

	cmd.Flags().StringVar(&siteURL, "url", "", "public root URL baked into the pages (default: relative paths)")
	return cmd
}

// siteServeCommand creates the "site serve" subcommand.
func (c *CLI) siteServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built website locally",
		Long: `Serve the built website over HTTP for a local preview. Extensionless
paths fall back to their .html file, mirroring how GitHub Pages serves
the published site. Stops on ctrl-c.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			displayAddr := addr
			if strings.HasPrefix(displayAddr, ":") {
				displayAddr = "localhost" + displayAddr
			}
			printInfo("Serving %s", ws.SiteDir())
			printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr))
			printDetail("ctrl-c to stop")
			return site.Serve(cmd.Context(), addr, ws.SiteDir())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}

// sitePublishCommand creates the "site publish" subcommand.
func (c *CLI) sitePublishCommand() *cobra.Command {
	var (
		dryRun  bool
		devMode bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build and push the website to the publish branch",
		Long: `Build the website into a temporary git worktree of the publish branch and
push it. The repository must be on the main branch, clean, and in sync
with its remote. The publish branch must already exist. With --dev-mode
the state checks only warn and nothing is pushed, so the publish flow
can be rehearsed from any branch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			if ws.Config.Site.URL == "" {
				printWarning("site.url is not configured, the pages will use relative paths")
			}

			pub := &site.Publisher{
				RepoDir: ws.Root,
				Branch:  ws.Config.Site.PublishBranch,
				DryRun:  dryRun,
				DevMode: devMode,
			}
			if devMode {
				if _, _, err := pub.CheckState(ctx); err != nil {
					printWarning("%s", err)
				}
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, "Publishing to "+pub.Branch)
			spinner.Start()
			err = pub.Publish(ctx, pub.WorktreeDir(), func(buildDir string) error {
				_, err := buildSite(cmd, ws, ws.Config.Site.URL, buildDir)
				return err
			})
			if err != nil {
				spinner.StopWithError(err.Error())
				return err
			}
			if dryRun || devMode {
				spinner.StopWithSuccess("Build complete, nothing pushed")
				return nil
			}
			spinner.StopWithSuccess("Published to " + pub.Branch)
			prog.done("Publish complete")
			if ws.Config.Site.URL != "" {
				printKeyValue("URL", StyleLink.Render(ws.Config.Site.URL))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build into the worktree but skip the commit and push")
	cmd.Flags().BoolVar(&devMode, "dev-mode", false, "downgrade the repository state checks to warnings and skip the push")
	return cmd
}

// buildSite runs a full website build into dstDir.
func buildSite(cmd *cobra.Command, ws *workspace.Workspace, siteURL, dstDir string) (int, error) {
	renderers, err := loadRenderers(ws, nil)
	if err != nil {
		return 0, err
	}
	return site.Build(cmd.Context(), site.BuildOpts{
		SiteName:        ws.Config.Site.Title,
		SiteURL:         siteURL,
		ComparisonsDir:  ws.ComparisonDir(),
		BuildDir:        dstDir,
		Renderers:       renderers,
		Footer:          fmt.Sprintf("generated on %s", time.Now().Format("2006-01-02")),
		MetaDescription: "comparison of picture formation algorithms on a library of test images",
	})
}
