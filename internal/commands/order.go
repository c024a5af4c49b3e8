package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// OrderCmd prints the dependency-resolved build order without building.
func OrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show the execution order of recorded calls",
		Long: `Resolves the dependency graph and prints the order 'codefactory build'
would run the calls in. A cycle in the manifest is reported with the
concrete chain of ids.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			ordered, err := proj.store.ExecutionOrder()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if len(ordered) == 0 {
				output.Info("No calls recorded yet")
				return
			}

			for i, call := range ordered {
				output.Step(fmt.Sprintf("%d. %s (%s)", i+1, call.ID, call.Factory))
			}
		},
	}

	return cmd
}
