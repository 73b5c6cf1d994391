package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/internal/filesystem"
	"github.com/simonhull/vcc/internal/logger"
	"github.com/simonhull/vcc/internal/output"
	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/tag"
)

func checkCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Verify region tags in source files",
		Long: `Check parses every tagged file under the given paths (default: the mapping
targets in vcc.yml, or the working directory) and reports every malformed
tag, unknown sync or gen mode and round-trip mismatch. It never writes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManifest(g)
			if err != nil {
				return err
			}
			log := logger.Default().WithFields(logger.F("cmd", "check"))

			paths := args
			if len(paths) == 0 {
				for _, mp := range m.Mappings {
					paths = append(paths, m.Resolve(mp.Target))
				}
			}
			if len(paths) == 0 {
				paths = []string{"."}
			}

			files, err := collectTagged(m, paths)
			if err != nil {
				return err
			}

			var bad int
			for _, f := range files {
				problems := checkFile(m, f)
				if len(problems) == 0 {
					output.Verbose("ok " + f.Path)
					continue
				}
				bad++
				for _, p := range problems {
					output.Error(p.Error())
				}
			}

			log.Debug("check finished", logger.F("files", len(files)), logger.F("invalid", bad))
			if bad > 0 {
				return fmt.Errorf("%s with invalid tags", plural(bad, "file"))
			}
			output.Success(fmt.Sprintf("%s checked", plural(len(files), "tagged file")))
			return nil
		},
	}
	return cmd
}

// collectTagged resolves files and directories into tagged files. Files
// named explicitly are checked even without a tag marker.
func collectTagged(m *config.Manifest, paths []string) ([]filesystem.TaggedFile, error) {
	var files []filesystem.TaggedFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			delim, ok := m.DelimiterFor(p)
			if !ok {
				return nil, fmt.Errorf("%s: no comment delimiter configured for extension %q", p, filepath.Ext(p))
			}
			files = append(files, filesystem.TaggedFile{Path: p, Rel: filepath.ToSlash(p), Delimiter: delim})
			continue
		}

		found, err := filesystem.Discover(p, filesystem.DiscoverOptions{
			WalkOptions:  filesystem.WalkOptions{IgnorePatterns: m.Ignore},
			Namespace:    m.Namespace,
			DelimiterFor: m.DelimiterFor,
		})
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// checkFile returns every problem found in f.
func checkFile(m *config.Manifest, f filesystem.TaggedFile) []error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return []error{err}
	}
	src := string(data)

	root, err := tag.Parse(src, tag.WithDelimiter(f.Delimiter), tag.WithNamespace(m.Namespace))
	if err != nil {
		// ParseError messages start with line:column.
		return []error{fmt.Errorf("%s:%w", f.Path, err)}
	}

	var problems []error
	if root.String() != src {
		problems = append(problems, fmt.Errorf("%s: document does not round-trip", f.Path))
	}

	root.Walk(func(n *tag.Node) bool {
		if n.Kind != tag.KindTag {
			return true
		}
		for _, attr := range []string{"sync", "gen"} {
			if v, ok := n.Attr(attr); ok {
				if _, err := merge.ParseSyncMode(v); err != nil {
					problems = append(problems, fmt.Errorf("%s: <%s> %s: %w", f.Path, n.Name, attr, err))
				}
			}
		}
		if v, ok := n.Attr("kind"); ok {
			if _, err := merge.ParseTagKind(v); err != nil {
				problems = append(problems, fmt.Errorf("%s: <%s> kind: %w", f.Path, n.Name, err))
			}
		}
		return true
	})
	return problems
}
