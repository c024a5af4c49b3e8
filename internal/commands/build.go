package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/generator"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/codefactory/codefactory/internal/producer"
	"github.com/spf13/cobra"
)

// BuildCmd runs every recorded call in dependency order.
func BuildCmd() *cobra.Command {
	var (
		dryRun   bool
		force    bool
		skip     bool
		showDiff bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate all recorded calls",
		Long: `Renders every call in the manifest in dependency order and merges the
result into the output files. Content outside managed regions is never
touched.

A target file that exists without a managed region is a conflict: by
default you are asked what to do, --force adopts it (wraps the rendered
region in), and --skip leaves it alone. One failing call does not stop
its siblings.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			resolver, err := generator.NewResolver(force, skip, showDiff)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			prod := producer.New(proj.store, proj.registry, proj.cfg.TagAttr)
			result, err := prod.Build(cmd.Context(), producer.BuildOptions{
				DryRun:   dryRun,
				ShowDiff: showDiff,
				Resolver: resolver,
				Writer:   cmd.OutOrStdout(),
			})
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			reportResult(result, dryRun)
			if !result.OK() {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be written without writing")
	cmd.Flags().BoolVar(&force, "force", false, "adopt unmanaged target files without asking")
	cmd.Flags().BoolVar(&skip, "skip", false, "skip unmanaged target files without asking")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "show a diff before updating each region")

	return cmd
}

// reportResult prints per-file statuses and per-call errors for a batch.
func reportResult(result *producer.Result, dryRun bool) {
	created, updated, unchanged, skipped := 0, 0, 0, 0
	for _, f := range result.Files {
		switch f.Status {
		case producer.StatusCreated:
			created++
			output.Step(fmt.Sprintf("created   %s", f.Path))
		case producer.StatusUpdated:
			updated++
			output.Step(fmt.Sprintf("updated   %s", f.Path))
		case producer.StatusUnchanged:
			unchanged++
			output.Verbose(fmt.Sprintf("unchanged %s", f.Path))
		case producer.StatusSkipped:
			skipped++
			output.Info(fmt.Sprintf("skipped   %s", f.Path))
		}
	}

	for _, callErr := range result.Errors {
		output.Error(callErr.Error())
	}

	summary := fmt.Sprintf("%d created, %d updated, %d unchanged, %d skipped, %d failed",
		created, updated, unchanged, skipped, len(result.Errors))
	if dryRun {
		summary = "[dry run] " + summary
	}
	if result.OK() {
		output.Success(summary)
	} else {
		output.Info(summary)
	}
}
