package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/simonhull/vcc/regen"
	"github.com/simonhull/vcc/tag"
)

// Operation is a file change that can be validated and executed.
//
// Validate computes the result without touching the disk; force relaxes
// conflict checks. Execute writes the result and must only be called after
// Validate succeeds. Description is a one-line summary for output.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// Previewer is an Operation whose effect can be inspected before it runs.
// Preview is valid after Validate succeeds.
type Previewer interface {
	Operation
	Preview() FileChange
}

// FileChange describes the content a file has and the content it would get.
type FileChange struct {
	Path     string
	Existing []byte // nil when the file does not exist
	Proposed []byte
	Mode     fs.FileMode
	// Note is a short human-readable summary of what changed, if any.
	Note string
	// Regions parses Proposed for diff hunk labels. Nil leaves the choice
	// to the caller.
	Regions []tag.Option
}

// regions returns the change's own parse options, or fallback when it has none.
func (c FileChange) regions(fallback []tag.Option) []tag.Option {
	if c.Regions != nil {
		return c.Regions
	}
	return fallback
}

// Exists reports whether the file is already on disk.
func (c FileChange) Exists() bool {
	return c.Existing != nil
}

// Unchanged reports whether writing the change would be a no-op.
func (c FileChange) Unchanged() bool {
	return c.Existing != nil && bytes.Equal(c.Existing, c.Proposed)
}

// WriteFileOp creates a file with fixed content.
//
// Validation fails when the file exists unless force is set, and rejects nil
// content (empty is fine).
type WriteFileOp struct {
	Path    string
	Content []byte
	Mode    fs.FileMode

	existing []byte
}

func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}
	existing, err := readExisting(op.Path)
	if err != nil {
		return err
	}
	if existing != nil && !force {
		return fmt.Errorf("file already exists: %s", op.Path)
	}
	op.existing = existing
	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	return writeFileAtomic(op.Path, op.Content, op.Mode)
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Create %s (%d bytes)", op.Path, len(op.Content))
}

func (op *WriteFileOp) Preview() FileChange {
	return FileChange{Path: op.Path, Existing: op.existing, Proposed: op.Content, Mode: op.Mode}
}

// SyncFileOp reconciles a freshly generated document into the file at Path,
// keeping the user-owned regions of the file on disk.
//
// The generated document is read from Source unless Generated is set. With
// force, a Path that no longer parses is replaced by the generated document
// instead of failing validation.
type SyncFileOp struct {
	Source    string
	Generated []byte
	Path      string
	Engine    *regen.Engine

	change FileChange
	result *regen.Result
}

func (op *SyncFileOp) Validate(ctx context.Context, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	generated := op.Generated
	if generated == nil {
		data, err := os.ReadFile(op.Source)
		if err != nil {
			return fmt.Errorf("read generated file: %w", err)
		}
		generated = data
	}

	existing, err := readExisting(op.Path)
	if err != nil {
		return err
	}

	engine := op.engine()
	if force {
		engine = engine.Tolerant()
	}
	res, err := engine.Sync(string(generated), string(existing))
	if err != nil {
		return fmt.Errorf("sync %s: %w", op.Path, err)
	}

	op.result = res
	op.change = FileChange{
		Path:     op.Path,
		Existing: existing,
		Proposed: []byte(res.Content),
		Mode:     fileMode(op.Path, 0644),
		Note:     summarize(res),
		Regions:  engineRegions(engine),
	}
	return nil
}

func (op *SyncFileOp) Execute(ctx context.Context) error {
	if op.result == nil {
		return errors.New("sync operation executed before validation")
	}
	return writeFileAtomic(op.Path, op.change.Proposed, op.change.Mode)
}

func (op *SyncFileOp) Description() string {
	if op.Source != "" {
		return fmt.Sprintf("Sync %s from %s", op.Path, op.Source)
	}
	return fmt.Sprintf("Sync %s", op.Path)
}

func (op *SyncFileOp) Preview() FileChange {
	return op.change
}

// Result returns the merge outcome, or nil before Validate.
func (op *SyncFileOp) Result() *regen.Result {
	return op.result
}

func (op *SyncFileOp) engine() *regen.Engine {
	if op.Engine == nil {
		return regen.New(regen.DefaultOptions())
	}
	return op.Engine
}

// InjectFileOp writes Content into the region Tag of Template and stores the
// result at Path. An empty Template injects into Path in place.
type InjectFileOp struct {
	Template string
	Path     string
	Tag      string
	Content  string
	Engine   *regen.Engine

	change    FileChange
	injection *regen.Injection
}

func (op *InjectFileOp) Validate(ctx context.Context, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := readExisting(op.Path)
	if err != nil {
		return err
	}

	template := existing
	if op.Template != "" {
		template, err = os.ReadFile(op.Template)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
	} else if existing == nil {
		return fmt.Errorf("file not found: %s", op.Path)
	}

	engine := op.Engine
	if engine == nil {
		engine = regen.New(regen.DefaultOptions())
	}
	inj, err := engine.Generate(string(template), op.Tag, op.Content)
	if err != nil {
		return fmt.Errorf("inject into %s: %w", op.Path, err)
	}

	note := "region " + op.Tag + " not found"
	switch {
	case inj.Replaced:
		note = "region " + op.Tag + " filled"
	case inj.Found:
		note = "region " + op.Tag + " kept"
	}

	op.injection = inj
	op.change = FileChange{
		Path:     op.Path,
		Existing: existing,
		Proposed: []byte(inj.Content),
		Mode:     fileMode(op.Path, 0644),
		Note:     note,
		Regions:  engineRegions(engine),
	}
	return nil
}

func (op *InjectFileOp) Execute(ctx context.Context) error {
	if op.injection == nil {
		return errors.New("inject operation executed before validation")
	}
	return writeFileAtomic(op.Path, op.change.Proposed, op.change.Mode)
}

func (op *InjectFileOp) Description() string {
	return fmt.Sprintf("Inject %s into %s", op.Tag, op.Path)
}

func (op *InjectFileOp) Preview() FileChange {
	return op.change
}

// Injection returns the injection outcome, or nil before Validate.
func (op *InjectFileOp) Injection() *regen.Injection {
	return op.injection
}

// engineRegions parses documents the way e does.
func engineRegions(e *regen.Engine) []tag.Option {
	opts := e.Options()
	return []tag.Option{tag.WithDelimiter(opts.Delimiter), tag.WithNamespace(opts.Namespace)}
}

// readExisting returns the content of path, or nil when it does not exist.
func readExisting(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// fileMode returns the permissions of path, or def when it does not exist.
func fileMode(path string, def fs.FileMode) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return def
	}
	return info.Mode().Perm()
}

// summarize describes a merge result for the conflict prompt.
func summarize(res *regen.Result) string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(res.Stats.Preserved), "preserved")
	add(len(res.Stats.Regenerated)+len(res.Stats.Reconciled), "regenerated")
	add(len(res.Stats.Added), "added")
	add(len(res.Stats.Removed), "removed")
	if res.OriginalDiscarded {
		parts = append(parts, "unparsable original discarded")
	}
	if len(parts) == 0 {
		return ""
	}
	return "regions: " + strings.Join(parts, ", ")
}
