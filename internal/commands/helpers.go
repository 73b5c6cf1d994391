package commands

import (
	"fmt"
	"io"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/output"
	"github.com/simonhull/vcc/internal/planner"
	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/regen"
)

// loadManifest loads --config or the nearest vcc.yml, falling back to the
// built-in defaults rooted at the working directory.
func loadManifest(g *globals) (*config.Manifest, bool, error) {
	return config.LoadProject(".", g.configPath)
}

// modeFlag parses --mode. An empty value returns fallback.
func modeFlag(value string, fallback merge.SyncMode) (merge.SyncMode, error) {
	if value == "" {
		return fallback, nil
	}
	mode, err := merge.ParseSyncMode(value)
	if err != nil {
		return merge.NA, fmt.Errorf("--mode: %w", err)
	}
	if mode == merge.NA {
		return fallback, nil
	}
	return mode, nil
}

// engineFor builds the engine for path. An explicit delimiter wins over the
// manifest's extension table.
func engineFor(m *config.Manifest, path string, mode merge.SyncMode, delimiter *string) (*regen.Engine, error) {
	if delimiter == nil {
		return m.EngineFor(path, mode)
	}
	return regen.New(regen.Options{
		Delimiter:   *delimiter,
		Namespace:   m.Namespace,
		DefaultMode: mode,
		Kind:        m.KindFunc(),
	}), nil
}

// writeFlags are the flags shared by commands that write files.
type writeFlags struct {
	dryRun      bool
	diff        bool
	interactive bool
	newOnly     bool
	force       bool
}

// executeOptions turns the flags into generator options. In a dry run --diff
// only prints; otherwise it shows the diff and asks.
func (f *writeFlags) executeOptions(w io.Writer) (generator.ExecuteOptions, error) {
	opts := generator.ExecuteOptions{
		DryRun: f.dryRun,
		Force:  f.force,
		Writer: w,
	}
	if f.dryRun {
		opts.Diff = f.diff
		return opts, nil
	}

	resolver, err := generator.NewResolver(f.newOnly, f.interactive, f.diff)
	if err != nil {
		return opts, err
	}
	opts.Resolver = resolver
	return opts, nil
}

// reportFailures prints every planning failure and returns an error
// summarizing them, or nil.
func reportFailures(failures []planner.Failure) error {
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		output.Error(f.Error())
	}
	return fmt.Errorf("%s could not be synced", plural(len(failures), "file"))
}

// summarize prints per-file region outcomes.
func summarize(ops []*generator.SyncFileOp) {
	for _, op := range ops {
		res := op.Result()
		if res == nil || !res.Stats.Drifted() && len(res.Stats.Preserved) == 0 {
			continue
		}
		output.Info(op.Path)
		output.Summary(res.Stats)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
