package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/output"
)

func generateCmd(g *globals) *cobra.Command {
	var flags writeFlags
	var out, delimiter string

	cmd := &cobra.Command{
		Use:   "generate <template> <tag> <content>",
		Short: "Fill one region of a template",
		Long: `Generate writes content into the region named tag inside template.

The region's gen attribute decides whether it is filled:
  FORCE, FULL  replace the body
  DEMAND       fill only an empty body (self-closing tags are expanded)
  SKIP         leave the region alone
Regions without gen are replaced, unless they are user-owned ("custom"
prefix), which behave like DEMAND.

Without -o the template is updated in place. Pass "-" as content to read it
from standard input.

Examples:
  vcc generate src/person.h fields "int id;"
  vcc generate templates/app.py imports - -o app.py < imports.txt`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, tagName, content := args[0], args[1], args[2]

			m, _, err := loadManifest(g)
			if err != nil {
				return err
			}

			if content == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read content: %w", err)
				}
				content = string(data)
			}

			var delim *string
			if cmd.Flags().Changed("delimiter") {
				delim = &delimiter
			}
			engine, err := engineFor(m, template, m.DefaultMode(), delim)
			if err != nil {
				return err
			}

			op := &generator.InjectFileOp{Path: template, Tag: tagName, Content: content, Engine: engine}
			if out != "" {
				op.Template, op.Path = template, out
			}

			opts, err := flags.executeOptions(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			report, err := generator.Execute(cmd.Context(), []generator.Operation{op}, opts)
			if err != nil {
				return err
			}

			if inj := op.Injection(); inj != nil && !inj.Found {
				output.Warn(fmt.Sprintf("Region %q not found in %s", tagName, template))
			}
			if len(report.Unchanged) > 0 {
				output.Success(fmt.Sprintf("%s is up to date", op.Path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the result here instead of updating the template")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Comment delimiter preceding tags (default: by file extension)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "Show a diff before writing")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Ask before overwriting an existing file")

	return cmd
}
