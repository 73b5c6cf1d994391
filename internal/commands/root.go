// Package commands implements the vcc command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/vcc"
	"github.com/simonhull/vcc/internal/logger"
	"github.com/simonhull/vcc/internal/output"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	verbose    bool
	configPath string
	logLevel   string
}

// RootCmd creates and returns the root command with every subcommand
// registered.
func RootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "vcc",
		Short: "Regenerate code without losing hand-written changes",
		Long: `vcc reconciles freshly generated source files with the copies developers
have edited. Regions are marked with comment tags:

  // <vcc:fields sync="FORCE">
  int id;
  // </vcc:fields>
  // <vcc:customCode>
  // your code survives regeneration
  // </vcc:customCode>

Generator-owned regions are replaced, user-owned regions are kept, and
nested regions are reconciled one by one.`,
		Version:       vcc.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			output.SetWriter(cmd.OutOrStdout())
			output.SetVerbose(g.verbose)
			return g.setupLogger(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to vcc.yml (default: nearest vcc.yml above the working directory)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error, silent")

	cmd.AddCommand(
		syncCmd(g),
		generateCmd(g),
		checkCmd(g),
		watchCmd(g),
		initCmd(g),
		versionCmd(),
	)
	return cmd
}

// Execute runs the root command and prints a returned error.
func Execute() error {
	cmd := RootCmd()
	if err := cmd.Execute(); err != nil {
		output.Error(err.Error())
		return err
	}
	return nil
}

// setupLogger installs the default logger. The level comes from
// --log-level, then VCC_LOG_LEVEL or the manifest, then --verbose.
func (g *globals) setupLogger(cmd *cobra.Command) error {
	level := logger.LevelWarn
	if g.verbose {
		level = logger.LevelDebug
	}

	name := g.logLevel
	if name == "" {
		if m, _, err := loadManifest(g); err == nil {
			name = m.LogLevel
		}
	}
	if name != "" {
		parsed, err := logger.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		level = parsed
	}

	logger.SetDefault(logger.NewLogger(level, cmd.ErrOrStderr()))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vcc v%s\n", vcc.Version)
		},
	}
}
