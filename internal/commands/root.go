package commands

import (
	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// Version is stamped at release time.
var Version = "0.1.0"

// RootCmd creates and returns the root command for the codefactory CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "codefactory",
		Short: "Bidirectional template/source synchronization",
		Long: `Codefactory generates source files from declarative templates, tolerates
manual edits inside its managed regions, and syncs those edits back into the
manifest by recovering the parameters that would have produced them.

Typical workflow:
  codefactory init                          # scaffold a project
  codefactory add greet-fn greeting --param fn=greet --param msg=Welcome
  codefactory build                         # generate managed regions
  ...hand-edit the generated code...
  codefactory sync src/greet.ts             # recover edited parameters`,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	cmd.AddCommand(
		InitCmd(),
		AddCmd(),
		RemoveCmd(),
		UpdateCmd(),
		ListCmd(),
		OrderCmd(),
		TemplatesCmd(),
		BuildCmd(),
		SyncCmd(),
	)

	return cmd
}
