package commands

import (
	"os"

	"github.com/codefactory/codefactory/internal/output"
	"github.com/codefactory/codefactory/internal/producer"
	"github.com/spf13/cobra"
)

// SyncCmd recovers parameters from hand-edited regions and writes them back
// to the manifest.
func SyncCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync [file...]",
		Short: "Recover parameters from edited files",
		Long: `Reads each file's managed regions, recovers the parameter values that
produce the current (possibly hand-edited) text, records them in the
manifest, and re-renders the region. Edits that a template parameter can
express survive the next build; syncing an untouched file changes nothing.

Parameters whose surrounding text was altered beyond recognition are
reported and keep their previous values.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			prod := producer.New(proj.store, proj.registry, proj.cfg.TagAttr)

			ok := true
			for _, path := range args {
				result, err := prod.Sync(cmd.Context(), path, producer.SyncOptions{
					DryRun: dryRun,
					Writer: cmd.OutOrStdout(),
				})
				if err != nil {
					output.Error(err.Error())
					ok = false
					continue
				}
				reportResult(result, dryRun)
				if !result.OK() {
					ok = false
				}
			}

			if !dryRun {
				if err := proj.save(); err != nil {
					output.Error(err.Error())
					os.Exit(1)
				}
			}

			if !ok {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report recovered parameters without writing")

	return cmd
}
