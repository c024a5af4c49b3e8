package commands

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

// TemplatesCmd lists the factory templates discovered in the project.
func TemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available factory templates",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			proj, err := loadProject()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			names := proj.registry.Names()
			if len(names) == 0 {
				output.Info(fmt.Sprintf("No templates found under %s", proj.cfg.TemplatesDir))
				return
			}

			for _, name := range names {
				def, err := proj.registry.Get(name)
				if err != nil {
					continue
				}
				if def.Description != "" {
					output.Step(fmt.Sprintf("%s: %s", name, def.Description))
				} else {
					output.Step(name)
				}
			}
		},
	}

	return cmd
}
