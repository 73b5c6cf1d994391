package filesystem

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// TaggedFile is a file found by Discover.
type TaggedFile struct {
	Path      string // path as visited, rooted at the Discover root
	Rel       string // slash-separated path relative to the root
	Delimiter string // comment delimiter for the file's language
}

// DiscoverOptions configures Discover.
type DiscoverOptions struct {
	WalkOptions

	// Namespace is the tag namespace to look for ("vcc").
	Namespace string

	// DelimiterFor maps a path to its comment delimiter. Files for which it
	// reports false are not read.
	DelimiterFor func(path string) (string, bool)
}

// Discover lists the files under root whose language has a known comment
// delimiter and whose content contains at least one region tag marker.
// Results are sorted by relative path.
func Discover(root string, opts DiscoverOptions) ([]TaggedFile, error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("discover %s: namespace is required", root)
	}
	if opts.DelimiterFor == nil {
		return nil, fmt.Errorf("discover %s: no delimiter resolver", root)
	}

	var found []TaggedFile
	err := Walk(root, opts.WalkOptions, func(path string, info os.FileInfo) error {
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		delim, ok := opts.DelimiterFor(path)
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !HasMarker(data, delim, opts.Namespace) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found = append(found, TaggedFile{Path: path, Rel: filepath.ToSlash(rel), Delimiter: delim})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Rel < found[j].Rel })
	return found, nil
}

// HasMarker reports whether data contains an opening or closing tag of
// namespace ns introduced by delim. An empty delimiter matches bare tags.
func HasMarker(data []byte, delim, ns string) bool {
	open := []byte("<" + ns + ":")
	closing := []byte("</" + ns + ":")

	if delim == "" {
		return bytes.Contains(data, open) || bytes.Contains(data, closing)
	}

	d := []byte(delim)
	for i := 0; ; {
		j := bytes.Index(data[i:], d)
		if j < 0 {
			return false
		}
		rest := bytes.TrimLeft(data[i+j+len(d):], " \t")
		if bytes.HasPrefix(rest, open) || bytes.HasPrefix(rest, closing) {
			return true
		}
		i += j + len(d)
	}
}
