package generator

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/simonhull/vcc/tag"
)

// ExecuteOptions configures execution behavior
type ExecuteOptions struct {
	DryRun bool
	Force  bool
	Writer io.Writer // Where to write output (defaults to os.Stdout)

	// Resolver decides about changed files that already exist. Nil applies
	// every change.
	Resolver *Resolver

	// Diff prints a diff for every change before it is resolved.
	Diff bool
	// Regions labels diff hunks with region names for changes that do not
	// carry their own parse options.
	Regions []tag.Option

	// Validated skips the validation pass for operations the caller has
	// already validated with the same Force setting.
	Validated bool
}

// Report lists the paths Execute handled, by outcome.
type Report struct {
	Written   []string
	Skipped   []string
	Unchanged []string
}

// Execute validates every operation, resolves the changes and commits the
// accepted ones in a single transaction. Nothing is written when any
// validation fails, when the user cancels, or in a dry run.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) (*Report, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	if !opts.Validated {
		for _, op := range ops {
			if err := op.Validate(ctx, opts.Force); err != nil {
				return nil, fmt.Errorf("validation failed: %w", err)
			}
		}
	}

	report := &Report{}
	tx := NewTransaction()
	defer tx.Rollback()

	var plain []Operation
	var applied []Operation
	dg := NewDiffGenerator()

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, ok := op.(Previewer)
		if !ok {
			plain = append(plain, op)
			continue
		}

		c := p.Preview()
		if c.Unchanged() {
			report.Unchanged = append(report.Unchanged, c.Path)
			continue
		}

		if opts.Diff {
			fmt.Fprint(opts.Writer, dg.Unified(c.Path, c.Path, c.Existing, c.Proposed, &DiffOptions{Regions: c.regions(opts.Regions)}))
		}

		if !opts.DryRun {
			decision, err := opts.Resolver.Resolve(c)
			if err != nil {
				return nil, err
			}
			switch decision {
			case Cancel:
				return nil, ErrCancelled
			case Keep:
				report.Skipped = append(report.Skipped, c.Path)
				fmt.Fprintf(opts.Writer, "- Kept %s\n", c.Path)
				continue
			}
		}

		report.Written = append(report.Written, c.Path)
		if opts.DryRun {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", describe(op, c))
			continue
		}
		tx.AddFile(c.Path, c.Proposed, c.Mode)
		applied = append(applied, op)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	for _, op := range applied {
		fmt.Fprintf(opts.Writer, "✓ %s\n", describe(op, op.(Previewer).Preview()))
	}

	for _, op := range plain {
		if opts.DryRun {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
			continue
		}
		if err := op.Execute(ctx); err != nil {
			return nil, fmt.Errorf("execution failed: %w", err)
		}
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}

	return report, nil
}

func describe(op Operation, c FileChange) string {
	if c.Note == "" {
		return op.Description()
	}
	return op.Description() + " (" + c.Note + ")"
}
