// Package planner turns manifest mappings into validated sync operations.
//
// Pairing and validation run before anything is written. Validation reads
// both sides of every pair and runs the merge, so it is spread over a worker
// pool; a pair that fails is reported and the rest still go ahead.
package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/filesystem"
	"github.com/simonhull/vcc/internal/logger"
	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/regen"
)

// Pair is one generated file and the source file it is reconciled into.
type Pair struct {
	Generated string
	Target    string
	Mode      merge.SyncMode

	// Engine overrides the engine derived from the manifest.
	Engine *regen.Engine
}

// Failure is a pair that could not be planned.
type Failure struct {
	Pair Pair
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Pair.Target, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Plan is the outcome of planning: validated operations in input order and
// the pairs that failed.
type Plan struct {
	Ops      []*generator.SyncFileOp
	Failures []Failure
}

// Operations returns the planned operations for generator.Execute.
func (p *Plan) Operations() []generator.Operation {
	ops := make([]generator.Operation, len(p.Ops))
	for i, op := range p.Ops {
		ops[i] = op
	}
	return ops
}

// Planner builds plans against a manifest.
type Planner struct {
	manifest *config.Manifest
	workers  int
	log      logger.Logger
}

// New creates a planner. Workers come from the manifest, with zero meaning
// one per CPU.
func New(m *config.Manifest, log logger.Logger) *Planner {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Planner{manifest: m, workers: workers, log: log}
}

// Pairs expands the manifest mappings into file pairs. A mapping whose
// generated side is a directory pairs every file under it that has a known
// comment delimiter with the file at the same relative path under target.
func (p *Planner) Pairs() ([]Pair, error) {
	var pairs []Pair
	for i, mp := range p.manifest.Mappings {
		found, err := p.expand(mp)
		if err != nil {
			return nil, fmt.Errorf("mappings[%d]: %w", i, err)
		}
		pairs = append(pairs, found...)
	}
	return pairs, nil
}

func (p *Planner) expand(mp config.Mapping) ([]Pair, error) {
	gen := p.manifest.Resolve(mp.Generated)
	target := p.manifest.Resolve(mp.Target)
	mode := p.manifest.ModeFor(mp)

	info, err := os.Stat(gen)
	if err != nil {
		return nil, fmt.Errorf("generated path: %w", err)
	}
	if !info.IsDir() {
		return []Pair{{Generated: gen, Target: target, Mode: mode}}, nil
	}

	var pairs []Pair
	opts := filesystem.WalkOptions{IgnorePatterns: p.manifest.Ignore}
	err = filesystem.Walk(gen, opts, func(path string, fi os.FileInfo) error {
		if fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}
		if _, ok := p.manifest.DelimiterFor(path); !ok {
			p.log.Debug("skipping file with unknown language", logger.F("file", path))
			return nil
		}
		rel, err := filepath.Rel(gen, path)
		if err != nil {
			return err
		}
		pairs = append(pairs, Pair{Generated: path, Target: filepath.Join(target, rel), Mode: mode})
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Debug("expanded mapping",
		logger.F("generated", gen),
		logger.F("target", target),
		logger.F("files", len(pairs)))
	return pairs, nil
}

type job struct {
	index int
	pair  Pair
}

type result struct {
	index int
	op    *generator.SyncFileOp
	err   error
}

// Plan builds and validates a sync operation for every pair. Pairs that
// fail become Failures; the returned error is only set when ctx ends.
func (p *Planner) Plan(ctx context.Context, pairs []Pair, force bool) (*Plan, error) {
	p.log.Debug("planning sync", logger.F("pairs", len(pairs)), logger.F("workers", p.workers))

	jobs := make(chan job, len(pairs))
	results := make(chan result, len(pairs))
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, force, &wg)
	}

	go func() {
		defer close(jobs)
		for i, pair := range pairs {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: i, pair: pair}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ops := make([]*generator.SyncFileOp, len(pairs))
	errs := make([]error, len(pairs))
	for r := range results {
		ops[r.index] = r.op
		errs[r.index] = r.err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := &Plan{}
	for i, pair := range pairs {
		if errs[i] != nil {
			p.log.Warn("cannot sync file", logger.F("file", pair.Target), logger.F("error", errs[i]))
			plan.Failures = append(plan.Failures, Failure{Pair: pair, Err: errs[i]})
			continue
		}
		if ops[i] != nil {
			plan.Ops = append(plan.Ops, ops[i])
		}
	}
	return plan, nil
}

func (p *Planner) worker(ctx context.Context, jobs <-chan job, results chan<- result, force bool, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		if ctx.Err() != nil {
			return
		}
		op, err := p.plan(ctx, j.pair, force)
		results <- result{index: j.index, op: op, err: err}
	}
}

func (p *Planner) plan(ctx context.Context, pair Pair, force bool) (*generator.SyncFileOp, error) {
	engine := pair.Engine
	if engine == nil {
		var err error
		if engine, err = p.manifest.EngineFor(pair.Generated, pair.Mode); err != nil {
			return nil, err
		}
	}

	op := &generator.SyncFileOp{Source: pair.Generated, Path: pair.Target, Engine: engine}
	if err := op.Validate(ctx, force); err != nil {
		return nil, err
	}

	if res := op.Result(); res.OriginalDiscarded {
		p.log.Warn("discarding unparsable original", logger.F("file", pair.Target))
	}
	return op, nil
}
