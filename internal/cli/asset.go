package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/ingest"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// assetCommand creates the asset management command.
func (c *CLI) assetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Create, inspect, analyze and ingest test images",
	}

	cmd.AddCommand(c.assetNewCommand())
	cmd.AddCommand(c.assetListCommand())
	cmd.AddCommand(c.assetShowCommand())
	cmd.AddCommand(c.assetValidateCommand())
	cmd.AddCommand(c.assetAnalyzeCommand())
	cmd.AddCommand(c.assetIngestCommand())

	return cmd
}

// assetNewCommand creates the "asset new" subcommand.
func (c *CLI) assetNewCommand() *cobra.Command {
	var (
		assetType string
		authorRef string
		author    string
		source    string
	)

	cmd := &cobra.Command{
		Use:   "new <tag>",
		Short: "Create a new asset skeleton in the workspace inbox",
		Long: `Create a new asset directory under .assets-in/ with a generated identifier
and a metadata skeleton to fill in. Drop the source image next to the
metadata file, complete the metadata, then run "` + appName + ` asset ingest".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			id, err := asset.NewIdentifier(asset.Type(assetType), authorRef, args[0])
			if err != nil {
				return err
			}

			dir := filepath.Join(ws.AssetInDir(), id.String())
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFileWrite, err, "cannot create %s", dir)
			}

			meta := &asset.Metadata{
				Source: source,
				Type:   asset.Type(assetType),
			}
			if author != "" {
				meta.Authors = []string{author}
			}
			jsonPath := filepath.Join(dir, id.String()+".json")
			if err := meta.Write(jsonPath); err != nil {
				return err
			}

			printSuccess("Created asset %s", id.String())
			printFile(jsonPath)
			printDetail("drop the source image next to the metadata file")
			printNewline()
			printNextStep("Suggest a primary color", appName+" asset analyze "+id.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&assetType, "type", "t", string(asset.TypePlate), "asset type: cgi or plate")
	cmd.Flags().StringVar(&authorRef, "author-ref", "", "short author abbreviation for the identifier (e.g. \"Afm\")")
	cmd.Flags().StringVar(&author, "author", "", "author display name")
	cmd.Flags().StringVar(&source, "source", "", "where the image was obtained from")
	_ = cmd.MarkFlagRequired("author-ref")

	return cmd
}

// assetListCommand creates the "asset list" subcommand.
func (c *CLI) assetListCommand() *cobra.Command {
	var inbox bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the assets in the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			dir := ws.AssetDir()
			if inbox {
				dir = ws.AssetInDir()
			}
			assets, err := asset.All(dir)
			if err != nil {
				return err
			}
			if len(assets) == 0 {
				printInfo("No assets under %s", dir)
				return nil
			}

			for _, a := range assets {
				meta, err := a.Metadata()
				if err != nil {
					printDetail("%s  (unreadable metadata: %s)", a.ID(), err)
					continue
				}
				fmt.Printf("%s  %s\n",
					StyleValue.Render(fmt.Sprintf("%-28s", a.ID())),
					StyleDim.Render(fmt.Sprintf("%-5s %-7s %s",
						meta.Type, meta.PrimaryColor, strings.Join(meta.Authors, ", "))))
			}
			printNewline()
			printDetail("%d assets", len(assets))
			return nil
		},
	}

	cmd.Flags().BoolVar(&inbox, "in", false, "list the .assets-in inbox instead of the ingested assets")
	return cmd
}

// assetShowCommand creates the "asset show" subcommand.
func (c *CLI) assetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [identifier]",
		Short: "Show an asset's metadata",
		Long: `Show the metadata of one ingested asset. Without an identifier an
interactive picker is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			a, err := resolveAsset(ws, args)
			if err != nil || a == nil {
				return err
			}
			meta, err := a.Metadata()
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(a.ID()))
			printKeyValue("Type", string(meta.Type))
			printKeyValue("Authors", strings.Join(meta.Authors, ", "))
			printKeyValue("Source", meta.Source)
			printKeyValue("Gamut", meta.CaptureGamut)
			printKeyValue("Color", string(meta.PrimaryColor))
			if meta.Context != "" {
				printKeyValue("Context", meta.Context)
			}
			if meta.License != "" {
				printKeyValue("License", meta.License)
			}
			for _, ref := range meta.References {
				printKeyValue("Reference", StyleLink.Render(ref))
			}
			if imagePath, err := a.ImagePath(); err == nil {
				printFile(imagePath)
			}
			return nil
		},
	}
}

// assetValidateCommand creates the "asset validate" subcommand.
func (c *CLI) assetValidateCommand() *cobra.Command {
	var inbox bool

	cmd := &cobra.Command{
		Use:   "validate [identifier...]",
		Short: "Validate asset identifiers, metadata and image files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			dir := ws.AssetDir()
			if inbox {
				dir = ws.AssetInDir()
			}
			assets, err := selectAssets(dir, args)
			if err != nil {
				return err
			}

			failed := 0
			for _, a := range assets {
				if err := a.Validate(); err != nil {
					printError("%s: %s", a.ID(), err)
					failed++
					continue
				}
				printSuccess("%s", a.ID())
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidMetadata,
					"%d of %d assets failed validation", failed, len(assets))
			}
			printNewline()
			printDetail("%d assets valid", len(assets))
			return nil
		},
	}

	cmd.Flags().BoolVar(&inbox, "in", false, "validate the .assets-in inbox instead of the ingested assets")
	return cmd
}

// assetAnalyzeCommand creates the "asset analyze" subcommand.
func (c *CLI) assetAnalyzeCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "analyze <identifier|image>",
		Short: "Suggest a primary color from the asset's colors",
		Long: `Analyze the dominant colors and tonal spread of an asset image and suggest
the primary_color metadata value. The argument is an asset identifier from
the inbox, or a path to a PNG, JPEG or TIFF image (OpenEXR sources need a
display-referred preview first).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath := args[0]
			var a *asset.Asset

			if _, err := os.Stat(imagePath); err != nil {
				ws, err := openWorkspace()
				if err != nil {
					return err
				}
				a, err = asset.Find(args[0], ws.AssetInDir())
				if err != nil {
					return err
				}
				imagePath, err = a.ImagePath()
				if err != nil {
					return err
				}
			}

			analysis, err := asset.AnalyzeFile(imagePath)
			if err != nil {
				return err
			}

			printKeyValue("Dominant", analysis.Dominant.Hex())
			hexes := make([]string, len(analysis.Palette))
			for i, c := range analysis.Palette {
				hexes[i] = c.Hex()
			}
			printKeyValue("Palette", strings.Join(hexes, " "))
			printKeyValue("Luminance", fmt.Sprintf("mean %.3f · std %.3f",
				analysis.MeanLuminance, analysis.StdLuminance))
			printKeyValue("Suggested", StyleHighlight.Render(string(analysis.Suggested)))

			if apply {
				if a == nil {
					return errors.New(errors.ErrCodeInvalidInput,
						"--apply needs an asset identifier, not an image path")
				}
				meta, err := a.Metadata()
				if err != nil {
					return err
				}
				meta.PrimaryColor = analysis.Suggested
				if err := meta.Write(a.JSONPath); err != nil {
					return err
				}
				printSuccess("Set primary_color of %s to %s", a.ID(), analysis.Suggested)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "write the suggested primary_color to the asset metadata")
	return cmd
}

// assetIngestCommand creates the "asset ingest" subcommand.
func (c *CLI) assetIngestCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "ingest [identifier...]",
		Short: "Optimize inbox assets into the ACES2065-1 asset library",
		Long: `Convert source images from the .assets-in/ inbox into standardized EXR
files under assets/: ACES2065-1 primaries, bounded dimensions, zip
compression and the metadata baked into the image attributes. Without
arguments every inbox asset is ingested. Per-asset colorspace overrides
come from the [[ingest]] entries of the workspace configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			assets, err := selectAssets(ws.AssetInDir(), args)
			if err != nil {
				return err
			}
			if len(assets) == 0 {
				printInfo("Nothing to ingest under %s", ws.AssetInDir())
				return nil
			}

			tool, err := oiio.Find()
			if err != nil {
				return err
			}
			dl, err := c.newDownloader(ws, cache.NewDefaultKeyer())
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			for _, a := range assets {
				opts := ingest.Opts{
					SrcJSONPath: a.JSONPath,
					AssetDir:    ws.AssetDir(),
					WorkDir:     ws.IngestWorkDir(),
					Overwrite:   overwrite,
				}
				if entry, ok := ws.Config.IngestFor(a.ID()); ok {
					opts.Optimize.SourceColorspace = entry.Colorspace
					if entry.ColorMatrix != "" {
						matrix, err := ingest.ParseColorMatrix(entry.ColorMatrix)
						if err != nil {
							return errors.Wrap(errors.ErrCodeInvalidConfig, err,
								"ingest entry for %q", a.ID())
						}
						opts.Optimize.ColorMatrix = matrix
					}
				}

				spinner := newSpinnerWithContext(ctx, "Ingesting "+a.ID())
				spinner.Start()
				err := ingest.Run(ctx, tool, dl, opts)
				if err != nil {
					spinner.StopWithError(fmt.Sprintf("%s: %s", a.ID(), err))
					return err
				}
				spinner.StopWithSuccess(a.ID())
			}
			prog.done(fmt.Sprintf("Ingested %d assets", len(assets)))
			printNewline()
			printNextStep("Generate the comparisons", appName+" comparison generate")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-ingest assets that already exist in the library")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// selectAssets returns the assets under dir matching the given identifiers,
// or all of them when no identifier is given.
func selectAssets(dir string, identifiers []string) ([]*asset.Asset, error) {
	if len(identifiers) == 0 {
		return asset.All(dir)
	}
	assets := make([]*asset.Asset, 0, len(identifiers))
	for _, id := range identifiers {
		a, err := asset.Find(id, dir)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// resolveAsset returns the asset named by args, or runs the interactive
// picker when args is empty. A nil asset with nil error means the picker
// was dismissed.
func resolveAsset(ws *workspace.Workspace, args []string) (*asset.Asset, error) {
	if len(args) == 1 {
		return asset.Find(args[0], ws.AssetDir())
	}
	assets, err := asset.All(ws.AssetDir())
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "no assets under %q", ws.AssetDir())
	}
	return pickAsset(assets)
}
