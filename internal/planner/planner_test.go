package planner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/vcc/generator"
	"github.com/simonhull/vcc/internal/config"
	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/regen"
	"github.com/simonhull/vcc/tag"
)

const generated = `// <vcc:fields sync="FORCE">
int id;
// </vcc:fields>
// <vcc:customCode>
// </vcc:customCode>
`

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func manifest(t *testing.T, root string, mappings ...config.Mapping) *config.Manifest {
	t.Helper()
	m := config.Default()
	m.Root = root
	m.Mappings = mappings
	m.Workers = 2
	require.NoError(t, m.Validate())
	return m
}

func TestPairs(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gen", "model", "person.h"), generated)
	write(t, filepath.Join(root, "gen", "model", "person.cpp"), generated)
	write(t, filepath.Join(root, "gen", "README"), "docs")
	write(t, filepath.Join(root, "gen", "scratch.tmp.h"), generated)
	write(t, filepath.Join(root, "one.py"), "# <vcc:a/>\n")

	m := manifest(t, root,
		config.Mapping{Generated: "gen", Target: "src", Sync: "DEMAND"},
		config.Mapping{Generated: "one.py", Target: "lib/one.py"},
	)
	m.Ignore = []string{"*.tmp.h"}

	pairs, err := New(m, nil).Pairs()
	require.NoError(t, err)

	assert.Equal(t, []Pair{
		{Generated: filepath.Join(root, "gen", "model", "person.cpp"), Target: filepath.Join(root, "src", "model", "person.cpp"), Mode: merge.Demand},
		{Generated: filepath.Join(root, "gen", "model", "person.h"), Target: filepath.Join(root, "src", "model", "person.h"), Mode: merge.Demand},
		{Generated: filepath.Join(root, "one.py"), Target: filepath.Join(root, "lib", "one.py"), Mode: merge.Full},
	}, pairs)
}

func TestPairs_MissingGenerated(t *testing.T) {
	root := t.TempDir()
	m := manifest(t, root, config.Mapping{Generated: "nope", Target: "src"})

	_, err := New(m, nil).Pairs()
	assert.ErrorContains(t, err, "mappings[0]")
}

func TestPlan(t *testing.T) {
	root := t.TempDir()
	gen := filepath.Join(root, "gen")
	src := filepath.Join(root, "src")
	write(t, filepath.Join(gen, "a.h"), generated)
	write(t, filepath.Join(gen, "b.h"), generated)
	write(t, filepath.Join(gen, "c.h"), generated)
	write(t, filepath.Join(src, "a.h"), "// <vcc:customCode>\nint mine;\n// </vcc:customCode>\n")
	write(t, filepath.Join(src, "b.h"), "// <vcc:fields>\nunterminated\n")

	m := manifest(t, root, config.Mapping{Generated: "gen", Target: "src"})
	p := New(m, nil)
	pairs, err := p.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	plan, err := p.Plan(context.Background(), pairs, false)
	require.NoError(t, err)

	require.Len(t, plan.Ops, 2)
	assert.Equal(t, filepath.Join(src, "a.h"), plan.Ops[0].Path)
	assert.Equal(t, filepath.Join(src, "c.h"), plan.Ops[1].Path)
	assert.Contains(t, string(plan.Ops[0].Preview().Proposed), "int mine;")
	assert.Equal(t, []string{"customCode"}, plan.Ops[0].Result().Stats.Preserved)

	require.Len(t, plan.Failures, 1)
	assert.Equal(t, filepath.Join(src, "b.h"), plan.Failures[0].Pair.Target)
	assert.ErrorIs(t, plan.Failures[0], regen.ErrOriginalUnparsable)

	var pe *tag.ParseError
	assert.True(t, errors.As(plan.Failures[0], &pe))
}

func TestPlan_ForceDiscardsBrokenOriginal(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gen.h"), generated)
	write(t, filepath.Join(root, "src.h"), "// <vcc:fields>\n")

	m := manifest(t, root)
	plan, err := New(m, nil).Plan(context.Background(), []Pair{
		{Generated: filepath.Join(root, "gen.h"), Target: filepath.Join(root, "src.h"), Mode: merge.Full},
	}, true)
	require.NoError(t, err)

	require.Empty(t, plan.Failures)
	require.Len(t, plan.Ops, 1)
	assert.True(t, plan.Ops[0].Result().OriginalDiscarded)
	assert.Equal(t, generated, string(plan.Ops[0].Preview().Proposed))
}

func TestPlan_EngineOverrideAndUnknownLanguage(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gen.txt"), "; <vcc:a>\nx\n; </vcc:a>\n")
	m := manifest(t, root)
	p := New(m, nil)

	plan, err := p.Plan(context.Background(), []Pair{
		{Generated: filepath.Join(root, "gen.txt"), Target: filepath.Join(root, "out.txt")},
	}, false)
	require.NoError(t, err)
	require.Len(t, plan.Failures, 1)
	assert.ErrorContains(t, plan.Failures[0], "no comment delimiter")

	opts := regen.DefaultOptions()
	opts.Delimiter = ";"
	plan, err = p.Plan(context.Background(), []Pair{
		{Generated: filepath.Join(root, "gen.txt"), Target: filepath.Join(root, "out.txt"), Engine: regen.New(opts)},
	}, false)
	require.NoError(t, err)
	require.Len(t, plan.Ops, 1)
	assert.Equal(t, []string{"a"}, plan.Ops[0].Result().Stats.Added)
}

func TestPlan_ExecutesValidatedOps(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gen", "a.h"), generated)
	m := manifest(t, root, config.Mapping{Generated: "gen", Target: "src"})
	p := New(m, nil)

	pairs, err := p.Pairs()
	require.NoError(t, err)
	plan, err := p.Plan(context.Background(), pairs, false)
	require.NoError(t, err)

	report, err := generator.Execute(context.Background(), plan.Operations(), generator.ExecuteOptions{
		Writer:    &bytes.Buffer{},
		Validated: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src", "a.h")}, report.Written)

	data, err := os.ReadFile(filepath.Join(root, "src", "a.h"))
	require.NoError(t, err)
	assert.Equal(t, generated, string(data))
}

func TestPlan_Cancelled(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gen.h"), generated)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(manifest(t, root), nil).Plan(ctx, []Pair{
		{Generated: filepath.Join(root, "gen.h"), Target: filepath.Join(root, "src.h")},
	}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlan_Empty(t *testing.T) {
	plan, err := New(manifest(t, t.TempDir()), nil).Plan(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Ops)
	assert.Empty(t, plan.Failures)
	assert.Empty(t, plan.Operations())
}
