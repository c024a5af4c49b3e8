package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// ListCmd prints every recorded call in insertion order.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded calls",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			calls := proj.store.List()
			if len(calls) == 0 {
				output.Info("No calls recorded yet; see 'codefactory add'")
				return
			}

			for _, call := range calls {
				line := fmt.Sprintf("%s  %s  → %s", call.ID, call.Factory, call.OutputPath)
				if call.OutputPath == "" {
					line = fmt.Sprintf("%s  %s  → (template output)", call.ID, call.Factory)
				}
				output.Step(line)
				if len(call.DependsOn) > 0 {
					output.Verbose(fmt.Sprintf("  depends on: %s", strings.Join(call.DependsOn, ", ")))
				}
				if len(call.Params) > 0 {
					keys := make([]string, 0, len(call.Params))
					for k := range call.Params {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					parts := make([]string, 0, len(keys))
					for _, k := range keys {
						parts = append(parts, fmt.Sprintf("%s=%s", k, renderParam(call.Params[k])))
					}
					output.Verbose(fmt.Sprintf("  params: %s", strings.Join(parts, " ")))
				}
			}
		},
	}

	return cmd
}
