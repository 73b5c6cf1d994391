package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/logger"
	"github.com/simonhull/vcc/internal/output"
	"github.com/simonhull/vcc/internal/planner"
)

func syncCmd(g *globals) *cobra.Command {
	var flags writeFlags
	var mode, delimiter string

	cmd := &cobra.Command{
		Use:   "sync [generated target]",
		Short: "Reconcile generated files with edited sources",
		Long: `Sync merges freshly generated files into the source files developers edit.

With two arguments, the generated file is merged into target. Without
arguments, every mapping in vcc.yml is synced.

Regions declare how they are merged with the sync attribute:
  FORCE   always take the generated region
  FULL    take generated tags, reconcile nested regions (default)
  DEMAND  keep the existing region once it exists
  SKIP    never touch the region

Regions named with a reserve prefix ("custom" by default) always keep the
existing content.

Examples:
  vcc sync build/gen/person.h src/person.h
  vcc sync --dry-run --diff
  vcc sync --interactive
  vcc sync --mode DEMAND gen/config.py app/config.py`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <generated> <target>, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, found, err := loadManifest(g)
			if err != nil {
				return err
			}
			log := logger.Default().WithFields(logger.F("cmd", "sync"))

			var delim *string
			if cmd.Flags().Changed("delimiter") {
				delim = &delimiter
			}

			var pairs []planner.Pair
			p := planner.New(m, log)
			if len(args) == 2 {
				md, err := modeFlag(mode, m.DefaultMode())
				if err != nil {
					return err
				}
				engine, err := engineFor(m, args[1], md, delim)
				if err != nil {
					return err
				}
				pairs = []planner.Pair{{Generated: args[0], Target: args[1], Mode: md, Engine: engine}}
			} else {
				if !found || len(m.Mappings) == 0 {
					return errors.New("no mappings configured; pass <generated> <target> or add mappings to vcc.yml")
				}
				if pairs, err = p.Pairs(); err != nil {
					return err
				}
				if err := overridePairs(m, pairs, mode, delim); err != nil {
					return err
				}
			}

			if len(pairs) == 0 {
				output.Info("Nothing to sync")
				return nil
			}

			plan, err := p.Plan(cmd.Context(), pairs, flags.force)
			if err != nil {
				return err
			}

			opts, err := flags.executeOptions(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			opts.Validated = true

			report, err := generator.Execute(cmd.Context(), plan.Operations(), opts)
			if err != nil {
				return err
			}
			if g.verbose {
				summarize(plan.Ops)
			}

			log.Info("sync finished",
				logger.F("written", len(report.Written)),
				logger.F("unchanged", len(report.Unchanged)),
				logger.F("skipped", len(report.Skipped)),
				logger.F("failed", len(plan.Failures)))

			if err := reportFailures(plan.Failures); err != nil {
				return err
			}
			if len(report.Written) == 0 && len(report.Skipped) == 0 {
				output.Success(fmt.Sprintf("%s up to date", plural(len(report.Unchanged), "file")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Default sync mode for regions without a sync attribute (FORCE, FULL, DEMAND, SKIP)")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Comment delimiter preceding tags (default: by file extension)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "Show a diff for every changed file")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Ask before overwriting each changed file")
	cmd.Flags().BoolVar(&flags.newOnly, "new-only", false, "Only create missing files, never modify existing ones")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Replace targets whose tags no longer parse")

	return cmd
}

// overridePairs applies --mode and --delimiter to manifest pairs.
func overridePairs(m *config.Manifest, pairs []planner.Pair, mode string, delim *string) error {
	if mode == "" && delim == nil {
		return nil
	}
	for i := range pairs {
		md, err := modeFlag(mode, pairs[i].Mode)
		if err != nil {
			return err
		}
		pairs[i].Mode = md
		if pairs[i].Engine, err = engineFor(m, pairs[i].Generated, md, delim); err != nil {
			return err
		}
	}
	return nil
}
