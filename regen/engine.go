package regen

import (
	"errors"
	"fmt"

	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/tag"
)

// ErrOriginalUnparsable is returned by Sync when the document on disk cannot
// be parsed and the engine is not tolerant. It wraps the *tag.ParseError.
var ErrOriginalUnparsable = errors.New("original document cannot be parsed")

// Options configures an Engine.
type Options struct {
	// Delimiter is the line-comment marker preceding every tag. Empty means
	// tags appear bare.
	Delimiter string
	// Namespace is the tag namespace, "vcc" when empty.
	Namespace string
	// DefaultMode applies to top-level regions that declare no sync mode.
	DefaultMode merge.SyncMode
	// Kind classifies regions as Replace or Reserve. Nil uses merge.PrefixKind().
	Kind merge.KindFunc
	// TolerateBrokenOriginal makes Sync treat an unparsable original as
	// absent instead of failing.
	TolerateBrokenOriginal bool
}

// DefaultOptions returns options for C-style sources.
func DefaultOptions() Options {
	return Options{
		Delimiter:   tag.DefaultDelimiter,
		Namespace:   tag.DefaultNamespace,
		DefaultMode: merge.Full,
	}
}

// Engine runs Sync and Generate with fixed options. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Kind == nil {
		opts.Kind = merge.PrefixKind()
	}
	return &Engine{opts: opts}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Tolerant returns a copy of e that discards an unparsable original.
func (e *Engine) Tolerant() *Engine {
	opts := e.opts
	opts.TolerateBrokenOriginal = true
	return &Engine{opts: opts}
}

func (e *Engine) parse(src string) (*tag.Node, error) {
	return tag.Parse(src,
		tag.WithDelimiter(e.opts.Delimiter),
		tag.WithNamespace(e.opts.Namespace),
	)
}

// Result is the outcome of Sync.
type Result struct {
	Content string
	Stats   merge.Stats
	// OriginalDiscarded is set when a broken original was ignored.
	OriginalDiscarded bool
}

// Sync reconciles updated, the freshly generated document, with original,
// the document currently on disk. An empty original yields updated.
func (e *Engine) Sync(updated, original string) (*Result, error) {
	gen, err := e.parse(updated)
	if err != nil {
		return nil, fmt.Errorf("parse generated document: %w", err)
	}

	res := &Result{}
	var orig *tag.Node
	if original != "" {
		orig, err = e.parse(original)
		if err != nil {
			if !e.opts.TolerateBrokenOriginal {
				return nil, fmt.Errorf("%w: %w", ErrOriginalUnparsable, err)
			}
			orig = nil
			res.OriginalDiscarded = true
		}
	}

	policy := merge.Policy{Default: e.opts.DefaultMode, Kind: e.opts.Kind}
	res.Content, err = policy.Merge(gen, orig, &res.Stats)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SyncFileContent reconciles updatedCode with originalCode using the default
// namespace and kind rules.
func SyncFileContent(defaultMode merge.SyncMode, updatedCode, originalCode, commentDelimiter string) (string, error) {
	opts := DefaultOptions()
	opts.DefaultMode = defaultMode
	opts.Delimiter = commentDelimiter

	res, err := New(opts).Sync(updatedCode, originalCode)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}
