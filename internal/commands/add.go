package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// AddCmd records a new generation call in the manifest.
func AddCmd() *cobra.Command {
	var (
		paramFlags []string
		outputPath string
		dependsOn  []string
	)

	cmd := &cobra.Command{
		Use:   "add [id] [factory]",
		Short: "Record a generation call",
		Long: `Records a call to a factory template in the manifest. The call is not
built until 'codefactory build' runs.

Parameter values use --param key=value. Values that look like JSON arrays
or objects are decoded; bare numbers and true/false coerce to their
natural types.

Example:
  codefactory add greet-main greeting --param fn=sayHello --param msg=Welcome`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			id, factoryName := args[0], args[1]

			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			def, err := proj.registry.Get(factoryName)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			callParams, err := parseParamFlags(paramFlags)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if outputPath == "" && def.Output == "" {
				output.Error(fmt.Sprintf("factory '%s' declares no output path; pass --output", factoryName))
				os.Exit(1)
			}

			call := manifest.Call{
				ID:         id,
				Factory:    factoryName,
				Params:     callParams,
				OutputPath: outputPath,
				DependsOn:  dependsOn,
			}
			if err := proj.store.Add(call); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if err := proj.save(); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Success(fmt.Sprintf("Recorded call '%s' (%s)", id, factoryName))
		},
	}

	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&outputPath, "output", "", "output path (overrides the template's)")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "ids of calls that must build first")

	return cmd
}
