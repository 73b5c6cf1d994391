package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/filesystem"
	"github.com/simonhull/vcc/internal/logger"
	"github.com/simonhull/vcc/internal/output"
	"github.com/simonhull/vcc/internal/planner"
)

func watchCmd(g *globals) *cobra.Command {
	var force bool
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-sync mappings whenever generated files change",
		Long: `Watch follows the generated side of every mapping in vcc.yml and syncs a
file into its target as soon as the generator rewrites it. Bursts of writes
are batched. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, found, err := loadManifest(g)
			if err != nil {
				return err
			}
			if !found || len(m.Mappings) == 0 {
				return errors.New("no mappings configured in vcc.yml")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fw, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer fw.Close()

			log := logger.Default().WithFields(logger.F("cmd", "watch"))
			w := newSyncWatcher(m, log, cmd.OutOrStdout(), force, delay)
			if err := w.watchMappings(fw); err != nil {
				return err
			}

			output.Info(fmt.Sprintf("Watching %s (Ctrl+C to stop)", plural(len(m.Mappings), "mapping")))
			return w.run(ctx, fw)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace targets whose tags no longer parse")
	cmd.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "Quiet period before syncing a burst of changes")

	return cmd
}

// syncWatcher maps file events on generated paths to syncs of their
// targets.
type syncWatcher struct {
	m       *config.Manifest
	planner *planner.Planner
	log     logger.Logger
	out     io.Writer
	force   bool
	delay   time.Duration
}

func newSyncWatcher(m *config.Manifest, log logger.Logger, out io.Writer, force bool, delay time.Duration) *syncWatcher {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &syncWatcher{m: m, planner: planner.New(m, log), log: log, out: out, force: force, delay: delay}
}

// watchMappings registers every generated directory. Single-file mappings
// watch the parent directory so replaced files are still seen.
func (w *syncWatcher) watchMappings(fw *fsnotify.Watcher) error {
	for _, mp := range w.m.Mappings {
		gen := w.m.Resolve(mp.Generated)
		info, err := os.Stat(gen)
		if err != nil {
			return fmt.Errorf("watch %s: %w", mp.Generated, err)
		}
		if !info.IsDir() {
			gen = filepath.Dir(gen)
		}
		if err := w.watchTree(fw, gen); err != nil {
			return err
		}
	}
	return nil
}

func (w *syncWatcher) watchTree(fw *fsnotify.Watcher, root string) error {
	return filesystem.Walk(root, filesystem.WalkOptions{}, func(path string, info os.FileInfo) error {
		if !info.IsDir() {
			return nil
		}
		w.log.Debug("watching directory", logger.F("dir", path))
		return fw.Add(path)
	})
}

// pairFor finds the mapping that covers a generated path.
func (w *syncWatcher) pairFor(path string) (planner.Pair, bool) {
	if _, ok := w.m.DelimiterFor(path); !ok {
		return planner.Pair{}, false
	}
	path = filepath.Clean(path)

	for _, mp := range w.m.Mappings {
		gen := w.m.Resolve(mp.Generated)
		target := w.m.Resolve(mp.Target)
		mode := w.m.ModeFor(mp)

		if path == gen {
			return planner.Pair{Generated: gen, Target: target, Mode: mode}, true
		}
		rel, err := filepath.Rel(gen, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return planner.Pair{Generated: path, Target: filepath.Join(target, rel), Mode: mode}, true
	}
	return planner.Pair{}, false
}

// syncPaths plans and writes the targets of the given generated files.
func (w *syncWatcher) syncPaths(ctx context.Context, paths []string) error {
	var pairs []planner.Pair
	for _, p := range paths {
		if pair, ok := w.pairFor(p); ok {
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	plan, err := w.planner.Plan(ctx, pairs, w.force)
	if err != nil {
		return err
	}
	if _, err := generator.Execute(ctx, plan.Operations(), generator.ExecuteOptions{
		Force:     w.force,
		Writer:    w.out,
		Validated: true,
	}); err != nil {
		return err
	}
	return reportFailures(plan.Failures)
}

// run processes events until ctx ends or the watcher closes.
func (w *syncWatcher) run(ctx context.Context, fw *fsnotify.Watcher) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.watchTree(fw, ev.Name); err != nil {
						w.log.Warn("cannot watch new directory", logger.F("dir", ev.Name), logger.F("error", err))
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if _, ok := w.pairFor(ev.Name); !ok {
				continue
			}
			w.log.Debug("generated file changed", logger.F("file", ev.Name), logger.F("op", ev.Op.String()))
			pending[ev.Name] = struct{}{}
			timer.Reset(w.delay)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			if err := w.syncPaths(ctx, paths); err != nil {
				w.log.Error("sync failed", logger.F("error", err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", logger.F("error", err))
		}
	}
}
