// Package generator applies regenerated content to files on disk with
// conflict resolution and rollback support.
//
// # Operations
//
// An Operation is validated first and executed later. SyncFileOp merges a
// freshly generated document into an existing file, InjectFileOp fills one
// region of a template and WriteFileOp creates a file outright. Validation
// computes the new content without writing anything, so a batch can be
// checked as a whole before the first byte hits the disk.
//
//	ops := []generator.Operation{
//	    &generator.SyncFileOp{Source: "gen/person.h", Path: "src/person.h"},
//	}
//	report, err := generator.Execute(ctx, ops, generator.ExecuteOptions{})
//
// # Conflicts
//
// When a change would alter an existing file, a Resolver decides whether it
// is written: always (default), never (--new-only), after an interactive
// prompt (--interactive) or after showing the diff (--diff).
//
// # Transactions
//
// Accepted changes are committed in one Transaction. Every file is written
// atomically, and if any write fails the files already written are restored
// to their previous contents.
package generator
