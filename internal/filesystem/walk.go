package filesystem

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultIgnoreDirs are common directories to skip during traversal
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", ".git", ".svn", ".hg",
	"dist", "build", "bin", "tmp", "temp",
	".idea", ".vscode", ".vs",
}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs     []string // Directories to skip (default: DefaultIgnoreDirs)
	IgnorePatterns []string // Base-name or slash-separated relative path patterns to skip (e.g. "*.tmp", "gen/*.h")
	IncludeHidden  bool     // Include hidden files/dirs (default: false)
}

// Walk traverses a directory tree with configurable ignore patterns.
// The visitor function is called for each file and directory.
// Return filepath.SkipDir from visitor to skip a directory.
func Walk(rootPath string, opts WalkOptions, visitor func(path string, info os.FileInfo) error) error {
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}

	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == rootPath {
			return visitor(path, info)
		}

		if !opts.IncludeHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if slices.Contains(ignoreDirs, info.Name()) {
				return filepath.SkipDir
			}
			return visitor(path, info)
		}

		if ignored(rootPath, path, info.Name(), opts.IgnorePatterns) {
			return nil
		}
		return visitor(path, info)
	})
}

// WalkWithDefaults walks a directory tree with default ignore patterns.
func WalkWithDefaults(rootPath string, visitor func(path string, info os.FileInfo) error) error {
	return Walk(rootPath, WalkOptions{}, visitor)
}

func ignored(root, path, name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
