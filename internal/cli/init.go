package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// initCommand creates the workspace initialization command.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a picturelab workspace",
		Long: `Initialize a picturelab workspace in the given directory (default: current
directory). Creates the directory layout and a default ` + workspace.ConfigFileName + `
configuration file. Running init on an existing workspace is safe and keeps
the existing configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			ws, err := workspace.Init(abs)
			if err != nil {
				return err
			}

			printSuccess("Workspace ready")
			printKeyValue("Root", ws.Root)
			printKeyValue("Config", ws.ConfigPath())
			printKeyValue("Assets in", ws.AssetInDir())
			printNewline()
			printNextStep("Build the renderers", appName+" renderer build")
			return nil
		},
	}
}
