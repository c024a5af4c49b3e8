package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// RemoveCmd deletes a recorded call from the manifest.
func RemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a recorded call",
		Long: `Removes a call from the manifest. Generated files are left on disk.

Removal is refused while other calls depend on this one; --force removes it
anyway and leaves the dependents with dangling references.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := args[0]

			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if err := proj.store.Remove(id, force); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if err := proj.save(); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Success(fmt.Sprintf("Removed call '%s'", id))
			for _, ref := range proj.store.Dangling() {
				output.Info(fmt.Sprintf("call '%s' now depends on removed call '%s'; run 'codefactory update %s --depends-on ...' before the next build", ref.CallID, ref.Dependency, ref.CallID))
			}
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "remove even if other calls depend on it")

	return cmd
}
