package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/imgset"
	"github.com/MrLixm/picture-lab-lxm/pkg/oiio"
)

// setCommand creates the image set management command.
func (c *CLI) setCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Assemble the asset library into mosaic images",
	}

	cmd.AddCommand(c.setGenerateCommand())
	cmd.AddCommand(c.setListCommand())

	return cmd
}

// setGenerateCommand creates the "set generate" subcommand.
func (c *CLI) setGenerateCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the set mosaics, previews and merged metadata",
		Long: `Assemble every set variant of the workspace configuration into a mosaic
EXR of the whole asset library, plus a JPEG preview and a merged metadata
side-car. Variants whose output already exists are skipped unless
--overwrite is given; unchanged mosaics are skipped even then thanks to
the input fingerprint cache.`,
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

			tool, err := oiio.Find()
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, "Assembling set mosaics")
			spinner.Start()
			err = imgset.Generate(ctx, tool, store, keyer, imgset.GenerateOpts{
				AssetDir:  ws.AssetDir(),
				DstDir:    ws.SetDir(),
				Variants:  ws.Config.Sets,
				Mosaic:    imgset.DefaultMosaicOpts(),
				Overwrite: overwrite,
			})
			if err != nil {
				spinner.StopWithError(err.Error())
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("%d variants", len(ws.Config.Sets)))
			prog.done("Assembled the set mosaics")
			printFile(ws.SetDir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "regenerate variants whose output already exists")
	return cmd
}

// setListCommand creates the "set list" subcommand.
func (c *CLI) setListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured set variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			for _, variant := range ws.Config.Sets {
				fmt.Printf("%s  %s\n",
					StyleValue.Render(fmt.Sprintf("%-22s", variant.Identifier)),
					StyleDim.Render(variant.Description))
				if len(variant.AssetIDs) > 0 {
					printDetail("%d assets", len(variant.AssetIDs))
				} else {
					printDetail("whole library")
				}
			}
			return nil
		},
	}
}
