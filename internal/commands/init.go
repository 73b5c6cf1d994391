package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/input"
	"github.com/simonhull/vcc/internal/output"
	"github.com/simonhull/vcc/internal/project"
)

func initCmd(g *globals) *cobra.Command {
	var force bool
	var namespace, defaultSync string
	var mappings []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vcc.yml manifest",
		Long: `Init writes a vcc.yml with the built-in language table to the working
directory (or --config). Mappings pair a generated tree with the source
tree it is reconciled into.

Examples:
  vcc init
  vcc init --map build/gen=src --map gen/py=app --sync DEMAND`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if path == "" {
				path = project.ConfigFileName
			}

			m := config.Default()
			m.Namespace = namespace
			m.DefaultSync = strings.ToUpper(defaultSync)
			for _, spec := range mappings {
				gen, target, ok := strings.Cut(spec, "=")
				if !ok || gen == "" || target == "" {
					return fmt.Errorf("--map %q: want generated=target", spec)
				}
				m.Mappings = append(m.Mappings, config.Mapping{Generated: gen, Target: target})
			}
			if err := m.Validate(); err != nil {
				return err
			}

			data, err := config.Marshal(m)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				if !input.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false) {
					output.Info("Kept existing " + path)
					return nil
				}
			}

			op := &generator.WriteFileOp{Path: path, Content: data, Mode: 0644}
			_, err = generator.Execute(cmd.Context(), []generator.Operation{op}, generator.ExecuteOptions{
				Force:  true,
				Writer: cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing manifest without asking")
	cmd.Flags().StringVar(&namespace, "namespace", config.Default().Namespace, "Tag namespace")
	cmd.Flags().StringVar(&defaultSync, "sync", config.Default().DefaultSync, "Default sync mode")
	cmd.Flags().StringSliceVar(&mappings, "map", nil, "Mapping as generated=target (repeatable)")

	return cmd
}
