package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/codefactory/codefactory/internal/config"
	"github.com/codefactory/codefactory/internal/factory"
	"github.com/codefactory/codefactory/internal/generator"
	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/spf13/cobra"
)

const exampleTemplate = `name: greeting
description: A console greeting function
output: "src/{{fn}}.ts"
params:
  fn:
    type: string
    required: true
  msg:
    type: string
    default: Hello
---
export function {{fn}}(name: string): void {
  console.log(` + "`{{msg}}, ${name}!`" + `);
}
`

const exampleConfig = `# codefactory project configuration
templates:
  dir: ` + config.DefaultTemplatesDir + `
manifest:
  path: ` + config.DefaultManifestPath + `
marker:
  tag: id
`

// InitCmd scaffolds a codefactory project in the current directory.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a codefactory project",
		Long: `Creates the project scaffolding in the current directory:
• codefactory.yml (configuration)
• codefactory.json (empty manifest)
• .codefactory/templates/ with an example template

All files are written atomically; a failure rolls back everything.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat("codefactory.yml"); err == nil {
				output.Error("codefactory.yml already exists; project is initialized")
				os.Exit(1)
			}

			if err := manifest.Save(config.DefaultManifestPath, manifest.NewStore()); err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			tx := generator.NewTransaction()
			tx.AddFile("codefactory.yml", []byte(exampleConfig), 0o644)
			tx.AddFile(
				filepath.Join(config.DefaultTemplatesDir, "greeting"+factory.TemplateExt),
				[]byte(exampleTemplate), 0o644,
			)

			if err := tx.Commit(); err != nil {
				os.Remove(config.DefaultManifestPath)
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Success("Initialized codefactory project")
			output.Info("Next steps:")
			output.Step(fmt.Sprintf("edit %s/greeting%s", config.DefaultTemplatesDir, factory.TemplateExt))
			output.Step("codefactory add greet-main greeting --param fn=sayHello")
			output.Step("codefactory build")
		},
	}

	return cmd
}
