package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// UpdateCmd modifies a recorded call in place.
func UpdateCmd() *cobra.Command {
	var (
		paramFlags []string
		outputPath string
		dependsOn  []string
	)

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a recorded call",
		Long: `Updates a call's parameters, output path, or dependencies. Parameters
merge key by key; --output and --depends-on replace their previous values
wholesale. An update that would create a dependency cycle is rejected and
the manifest is left untouched.

Example:
  codefactory update greet-main --param msg=Greetings`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := args[0]

			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			patch := manifest.Patch{}
			if len(paramFlags) > 0 {
				p, err := parseParamFlags(paramFlags)
				if err != nil {
					output.Error(err.Error())
					os.Exit(1)
				}
				patch.Params = p
			}
			if cmd.Flags().Changed("output") {
				patch.OutputPath = &outputPath
			}
			if cmd.Flags().Changed("depends-on") {
				if dependsOn == nil {
					dependsOn = []string{}
				}
				patch.DependsOn = dependsOn
			}

			if err := proj.store.Update(id, patch); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if err := proj.save(); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Success(fmt.Sprintf("Updated call '%s'", id))
			output.Info("Run 'codefactory build' to regenerate affected files")
		},
	}

	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "parameter as key=value (repeatable, merges)")
	cmd.Flags().StringVar(&outputPath, "output", "", "new output path")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "replacement dependency list")

	return cmd
}
