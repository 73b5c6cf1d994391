package regen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/tag"
)

const classHeader = `#pragma once
// <vcc:includes sync="FORCE">
#include <string>
// </vcc:includes>

class Person {
public:
    // <vcc:fields sync="FULL">
    std::string name;
    // <vcc:customFields>
    // add your fields here
    // </vcc:customFields>
    // </vcc:fields>

    // <vcc:methods sync="DEMAND">
    void greet();
    // </vcc:methods>
};
`

func TestSync_FirstGenerationIdentity(t *testing.T) {
	for _, original := range []string{"", classHeader} {
		got, err := SyncFileContent(merge.Full, classHeader, original, "//")
		require.NoError(t, err)
		assert.Equal(t, classHeader, got)
	}
}

func TestSync_PreservesUserRegions(t *testing.T) {
	edited := `#pragma once
// <vcc:includes sync="FORCE">
#include <string>
#include "mine.h"
// </vcc:includes>

class Person {
public:
    // <vcc:fields sync="FULL">
    std::string oldName;
    // <vcc:customFields>
    int age = 0;
    // </vcc:customFields>
    // </vcc:fields>

    // <vcc:methods sync="DEMAND">
    void greet() { say("hi"); }
    // </vcc:methods>
};
`
	want := `#pragma once
// <vcc:includes sync="FORCE">
#include <string>
// </vcc:includes>

class Person {
public:
    // <vcc:fields sync="FULL">
    std::string name;
    // <vcc:customFields>
    int age = 0;
    // </vcc:customFields>
    // </vcc:fields>

    // <vcc:methods sync="DEMAND">
    void greet() { say("hi"); }
    // </vcc:methods>
};
`
	res, err := New(DefaultOptions()).Sync(classHeader, edited)
	require.NoError(t, err)
	assert.Equal(t, want, res.Content)
	assert.Equal(t, []string{"includes"}, res.Stats.Regenerated)
	assert.Equal(t, []string{"fields/customFields", "methods"}, res.Stats.Preserved)
	assert.Equal(t, []string{"fields"}, res.Stats.Reconciled)
	assert.False(t, res.Stats.Drifted())
}

func TestSync_Idempotent(t *testing.T) {
	edited := `// <vcc:a sync="FULL">
x
// <vcc:customB>
mine
// </vcc:customB>
// </vcc:a>
// <vcc:gone/>
`
	gen := `// <vcc:a sync="FULL">
y
// <vcc:customB>
// stub
// </vcc:customB>
// </vcc:a>
// <vcc:fresh/>
`
	e := New(DefaultOptions())
	once, err := e.Sync(gen, edited)
	require.NoError(t, err)
	twice, err := e.Sync(gen, once.Content)
	require.NoError(t, err)

	assert.Equal(t, once.Content, twice.Content)
	assert.Equal(t, []string{"fresh"}, once.Stats.Added)
	assert.Equal(t, []string{"gone"}, once.Stats.Removed)
	assert.True(t, once.Stats.Drifted())
	assert.False(t, twice.Stats.Drifted())
}

func TestSync_ParseErrors(t *testing.T) {
	e := New(DefaultOptions())

	_, err := e.Sync("// <vcc:a>\n", "")
	require.Error(t, err)
	var perr *tag.ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, tag.ErrUnclosedTag)
	assert.NotErrorIs(t, err, ErrOriginalUnparsable)

	_, err = e.Sync("// <vcc:a/>\n", "// <vcc:a>\n// </vcc:b>\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOriginalUnparsable)
	assert.ErrorIs(t, err, tag.ErrTagMismatch)
}

func TestSync_TolerantDiscardsBrokenOriginal(t *testing.T) {
	gen := "// <vcc:a>\nnew\n// </vcc:a>\n"

	res, err := New(DefaultOptions()).Tolerant().Sync(gen, "// <vcc:a>\nold\n")
	require.NoError(t, err)
	assert.True(t, res.OriginalDiscarded)
	assert.Equal(t, gen, res.Content)
	assert.Equal(t, []string{"a"}, res.Stats.Added)
}

func TestSync_CustomDelimiterAndNamespace(t *testing.T) {
	opts := DefaultOptions()
	opts.Delimiter = "#"
	opts.Namespace = "gen"
	e := New(opts)

	gen := "# <gen:body>\nprint(1)\n# <gen:userCode/>\n# </gen:body>\n"
	orig := "# <gen:body>\nprint(0)\n# <gen:userCode>\nextra()\n# </gen:userCode>\n# </gen:body>\n"

	res, err := e.Sync(gen, orig)
	require.NoError(t, err)
	assert.Equal(t, gen, res.Content, "userCode is Replace without a reserve prefix")

	opts.Kind = merge.PrefixKind("user")
	res, err = New(opts).Sync(gen, orig)
	require.NoError(t, err)
	assert.Equal(t, "# <gen:body>\nprint(1)\n# <gen:userCode>\nextra()\n# </gen:userCode>\n# </gen:body>\n", res.Content)
}

func TestSyncFileContent_DefaultMode(t *testing.T) {
	gen := "// <vcc:a>\ngenerated\n// </vcc:a>\n"
	orig := "// <vcc:a>\nedited\n// </vcc:a>\n"

	tests := []struct {
		mode merge.SyncMode
		want string
	}{
		{merge.NA, gen},
		{merge.Full, gen},
		{merge.Force, gen},
		{merge.Demand, orig},
		{merge.Skip, orig},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := SyncFileContent(tt.mode, gen, orig, "//")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		tag      string
		content  string
		want     string
		replaced bool
	}{
		{
			name:     "force replaces and keeps layout",
			template: "class A {\n    // <vcc:body gen=\"FORCE\">\n    old();\n    // </vcc:body>\n};\n",
			tag:      "body",
			content:  "    fresh();",
			want:     "class A {\n    // <vcc:body gen=\"FORCE\">\n    fresh();\n    // </vcc:body>\n};\n",
			replaced: true,
		},
		{
			name:     "full name lookup",
			template: "// <vcc:body gen=\"FULL\">\nold\n// </vcc:body>\n",
			tag:      "vcc:body",
			content:  "new\n",
			want:     "// <vcc:body gen=\"FULL\">\nnew\n// </vcc:body>\n",
			replaced: true,
		},
		{
			name:     "demand keeps a filled body",
			template: "// <vcc:m gen=\"DEMAND\">\nmine\n// </vcc:m>\n",
			tag:      "m",
			content:  "stub",
			want:     "// <vcc:m gen=\"DEMAND\">\nmine\n// </vcc:m>\n",
		},
		{
			name:     "demand fills a blank body",
			template: "// <vcc:m gen=\"DEMAND\">\n  \n// </vcc:m>\n",
			tag:      "m",
			content:  "stub",
			want:     "// <vcc:m gen=\"DEMAND\">\nstub\n// </vcc:m>\n",
			replaced: true,
		},
		{
			name:     "demand expands a self-closing tag",
			template: "  // <vcc:m gen=\"DEMAND\" />\nrest\n",
			tag:      "m",
			content:  "  stub",
			want:     "  // <vcc:m gen=\"DEMAND\">\n  stub\n  // </vcc:m>\nrest\n",
			replaced: true,
		},
		{
			name:     "skip never touches the region",
			template: "// <vcc:s gen=\"SKIP\"/>\n",
			tag:      "s",
			content:  "x",
			want:     "// <vcc:s gen=\"SKIP\"/>\n",
		},
		{
			name:     "reserve kind behaves as demand",
			template: "// <vcc:customX>\nkeep\n// </vcc:customX>\n",
			tag:      "customX",
			content:  "x",
			want:     "// <vcc:customX>\nkeep\n// </vcc:customX>\n",
		},
		{
			name:     "replace kind without gen is replaced",
			template: "// <vcc:x>\nold\n// </vcc:x>\n",
			tag:      "x",
			content:  "new",
			want:     "// <vcc:x>\nnew\n// </vcc:x>\n",
			replaced: true,
		},
		{
			name:     "nested tag found depth-first",
			template: "// <vcc:outer>\n// <vcc:inner>\nold\n// </vcc:inner>\n// </vcc:outer>\n",
			tag:      "inner",
			content:  "new",
			want:     "// <vcc:outer>\n// <vcc:inner>\nnew\n// </vcc:inner>\n// </vcc:outer>\n",
			replaced: true,
		},
		{
			name:     "inline body",
			template: "x = /* */ // <vcc:v>1// </vcc:v>\n",
			tag:      "v",
			content:  "2",
			want:     "x = /* */ // <vcc:v>2// </vcc:v>\n",
			replaced: true,
		},
	}

	e := New(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Generate(tt.template, tt.tag, tt.content)
			require.NoError(t, err)
			assert.True(t, res.Found)
			assert.Equal(t, tt.replaced, res.Replaced)
			assert.Equal(t, tt.want, res.Content)

			again, err := e.Generate(res.Content, tt.tag, tt.content)
			require.NoError(t, err)
			assert.Equal(t, res.Content, again.Content, "second injection is a no-op")
		})
	}
}

func TestGenerate_MissingTag(t *testing.T) {
	tmpl := "// <vcc:a/>\n"
	got, err := GenerateFileContent(tmpl, "b", "x", "//")
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := GenerateFileContent("// <vcc:a>\n", "a", "x", "//")
	assert.ErrorIs(t, err, tag.ErrUnclosedTag)

	_, err = GenerateFileContent("// <vcc:a gen=\"OFTEN\"/>\n", "a", "x", "//")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OFTEN")
}

func TestGenerate_BareTags(t *testing.T) {
	tmpl := "<p>\n<vcc:greeting>\n</vcc:greeting>\n</p>\n"
	got, err := GenerateFileContent(tmpl, "greeting", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "<p>\n<vcc:greeting>\nhello\n</vcc:greeting>\n</p>\n", got)
}

func TestGenerateThenSync(t *testing.T) {
	tmpl := "// <vcc:body gen=\"FORCE\" sync=\"FULL\">\n// </vcc:body>\n"
	generated, err := GenerateFileContent(tmpl, "body", "a();\n// <vcc:customTail/>", "//")
	require.NoError(t, err)

	onDisk := "// <vcc:body gen=\"FORCE\" sync=\"FULL\">\nold();\n// <vcc:customTail>\nmine();\n// </vcc:customTail>\n// </vcc:body>\n"
	got, err := SyncFileContent(merge.NA, generated, onDisk, "//")
	require.NoError(t, err)
	assert.Equal(t, "// <vcc:body gen=\"FORCE\" sync=\"FULL\">\na();\n// <vcc:customTail>\nmine();\n// </vcc:customTail>\n// </vcc:body>\n", got)
}

func TestErrOriginalUnparsable_IsSentinel(t *testing.T) {
	_, err := SyncFileContent(merge.Full, "", "// </vcc:x>", "//")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOriginalUnparsable))
	assert.ErrorIs(t, err, tag.ErrUnexpectedClose)
}
