package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Transaction stages file writes and commits them together. If a write
// fails, files already written are restored to their previous contents and
// files that did not exist before are removed.
type Transaction struct {
	writes    []stagedWrite
	done      []backup
	committed bool
}

type stagedWrite struct {
	path    string
	content []byte
	mode    fs.FileMode
}

// backup is the state of a path before the transaction touched it.
type backup struct {
	path    string
	existed bool
	content []byte
	mode    fs.FileMode
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddFile stages a write of content to path. Nothing touches the disk until
// Commit.
func (t *Transaction) AddFile(path string, content []byte, mode fs.FileMode) {
	t.writes = append(t.writes, stagedWrite{path: path, content: content, mode: mode})
}

// Len returns the number of staged writes.
func (t *Transaction) Len() int {
	return len(t.writes)
}

// Commit writes every staged file, each one atomically. On the first
// failure the transaction is rolled back and the error returned.
func (t *Transaction) Commit() error {
	if t.committed {
		return errors.New("transaction already committed")
	}

	for _, w := range t.writes {
		b, err := snapshot(w.path)
		if err != nil {
			t.Rollback()
			return err
		}

		if err := writeFileAtomic(w.path, w.content, w.mode); err != nil {
			t.Rollback()
			return fmt.Errorf("write %s: %w", w.path, err)
		}
		t.done = append(t.done, b)
	}

	t.committed = true
	return nil
}

// Rollback restores every file written by an uncommitted transaction.
// It is a no-op after a successful Commit, so it can be deferred.
func (t *Transaction) Rollback() {
	if t.committed {
		return
	}
	for i := len(t.done) - 1; i >= 0; i-- {
		b := t.done[i]
		if b.existed {
			_ = writeFileAtomic(b.path, b.content, b.mode) // best effort
		} else {
			_ = os.Remove(b.path)
		}
	}
	t.done = nil
}

func snapshot(path string) (backup, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return backup{path: path}, nil
	}
	if err != nil {
		return backup{}, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return backup{}, fmt.Errorf("back up %s: %w", path, err)
	}
	return backup{path: path, existed: true, content: content, mode: info.Mode().Perm()}, nil
}

// writeFileAtomic writes content next to path and renames it into place, so
// readers never observe a partially written file.
func writeFileAtomic(path string, content []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".vcc-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	_, err = tmp.Write(content)
	if err == nil {
		err = tmp.Chmod(mode)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		_ = os.Remove(name)
	}
	return err
}
