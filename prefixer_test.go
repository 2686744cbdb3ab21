package cssbuild

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func safariTargets(t *testing.T) Targets {
	t.Helper()
	targets, err := ResolveBrowsers([]string{"Safari >= 16"})
	require.NoError(t, err)
	return targets
}

func TestPrefixStage_AddsPrefixesForTargets(t *testing.T) {
	stage := NewPrefixStage(safariTargets(t), filepath.Join("dist", "site.css"), false, false)

	out, warnings, err := stage.Process(Stylesheet{
		Path: "site.css",
		CSS:  ".a { user-select: none; color: red; }",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Contains(t, out.CSS, "-webkit-user-select: none")
	assert.Contains(t, out.CSS, "user-select: none")
	assert.NotContains(t, out.CSS, "-webkit-color")
	assert.Empty(t, out.Map)
	assert.Equal(t, filepath.Join("dist", "site.css"), out.Path)
}

func TestPrefixStage_NoTargetsNoPrefixes(t *testing.T) {
	stage := NewPrefixStage(Targets{}, "out.css", false, false)

	out, _, err := stage.Process(Stylesheet{Path: "in.css", CSS: ".a{color:#ffffff}"})
	require.NoError(t, err)

	assert.Equal(t, ".a{color:#ffffff}", out.CSS)
}

func TestPrefixStage_KeepsSourceText(t *testing.T) {
	stage := NewPrefixStage(safariTargets(t), "out.css", false, false)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "comments",
			in:   "/* Buttons */\n.a { color: red; /* inline */ }\n",
			want: "/* Buttons */\n.a { color: red; /* inline */ }\n",
		},
		{
			name: "nesting",
			in:   ".a{ & .b{color:red} }",
			want: ".a{ & .b{color:red} }",
		},
		{
			name: "prefix follows indentation",
			in:   "/* Buttons */\n.a {\n  user-select: none;\n}\n",
			want: "/* Buttons */\n.a {\n  -webkit-user-select: none;\n  user-select: none;\n}\n",
		},
		{
			name: "prefix inline",
			in:   ".a{user-select:none}",
			want: ".a{-webkit-user-select: none; user-select:none}",
		},
		{
			name: "prefix inside nested rule",
			in:   ".a {\n  & .b {\n    user-select: none;\n  }\n}\n",
			want: ".a {\n  & .b {\n    -webkit-user-select: none;\n    user-select: none;\n  }\n}\n",
		},
		{
			name: "existing prefix is not repeated",
			in:   ".a {\n  -webkit-user-select: none;\n  user-select: none;\n}\n",
			want: ".a {\n  -webkit-user-select: none;\n  user-select: none;\n}\n",
		},
		{
			name: "custom properties are left alone",
			in:   ":root { --select: none; }",
			want: ":root { --select: none; }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := stage.Process(Stylesheet{Path: "in.css", CSS: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.CSS)
		})
	}
}

func TestPrefixStage_MalformedCSSFails(t *testing.T) {
	tests := []struct {
		name string
		css  string
	}{
		{name: "stray closing brace", css: ".a{color:red}}"},
		{name: "unterminated string", css: ".a{content:\"x}"},
		{name: "empty declaration", css: ".a{color:red;;:}"},
		{name: "unclosed at-rule", css: "@media { .a{"},
		{name: "unclosed block", css: ".a{color:red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, strict := range []bool{false, true} {
				stage := NewPrefixStage(Targets{}, "out.css", true, strict)
				_, _, err := stage.Process(Stylesheet{Path: "in.css", CSS: tt.css})
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid CSS")
				assert.Contains(t, err.Error(), "in.css:1:")
			}
		})
	}
}

func TestPrefixStage_ExternalSourceMap(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pascal-css.css")
	output := filepath.Join(dir, "dist", "pascal-css.css")

	stage := NewPrefixStage(Targets{}, output, true, false)
	out, _, err := stage.Process(Stylesheet{Path: source, CSS: ".a { color: red; }\n"})
	require.NoError(t, err)

	require.NotEmpty(t, out.Map)
	var sourceMap struct {
		Version        int      `json:"version"`
		File           string   `json:"file"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Mappings       string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.Map), &sourceMap))
	assert.Equal(t, 3, sourceMap.Version)
	assert.Equal(t, "pascal-css.css", sourceMap.File)
	assert.Equal(t, []string{"../pascal-css.css"}, sourceMap.Sources)
	assert.Equal(t, []string{".a { color: red; }\n"}, sourceMap.SourcesContent)
	assert.Equal(t, "AAAA", sourceMap.Mappings)

	assert.True(t, strings.HasSuffix(out.CSS, "/*# sourceMappingURL=pascal-css.css.map */\n"))
}

func TestPrefixStage_EmptyInputHasNoAnnotation(t *testing.T) {
	stage := NewPrefixStage(Targets{}, "out.css", true, false)

	out, _, err := stage.Process(Stylesheet{Path: "in.css", CSS: ""})
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out.CSS))
}

func TestPrefixStage_MappingsFollowInsertedLines(t *testing.T) {
	stage := NewPrefixStage(safariTargets(t), filepath.Join("dist", "site.css"), true, false)

	out, _, err := stage.Process(Stylesheet{Path: "site.css", CSS: ".a {\n  user-select: none;\n}\n"})
	require.NoError(t, err)

	var sourceMap struct {
		Mappings string `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.Map), &sourceMap))

	// The inserted line maps back to the declaration it was added for
	assert.Equal(t, "AAAA;AACA,EAAE;AAAA,EAAA;AACF", sourceMap.Mappings)
}

func TestAppendVLQ(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{in: 0, want: "A"},
		{in: 1, want: "C"},
		{in: -1, want: "D"},
		{in: 2, want: "E"},
		{in: -2, want: "F"},
		{in: 16, want: "gB"},
		{in: 123, want: "2H"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(appendVLQ(nil, tt.in)), "value %d", tt.in)
	}
}

func TestPrefixStage_StrictWarnings(t *testing.T) {
	// A misplaced @import is a warning, not a syntax error
	in := Stylesheet{Path: "in.css", CSS: ".a { color: red; }\n@import \"b.css\";\n"}

	lenient := NewPrefixStage(Targets{}, "out.css", false, false)
	_, warnings, err := lenient.Process(in)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)

	strict := NewPrefixStage(Targets{}, "out.css", false, true)
	_, _, err = strict.Process(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode")
}

func TestSourceRelativeTo(t *testing.T) {
	assert.Equal(t, "../site.css", sourceRelativeTo("site.css", filepath.Join("dist", "site.css")))
	assert.Equal(t, "site.css", sourceRelativeTo("site.css", "site.out.css"))
	assert.Equal(t, "site.css", sourceRelativeTo("site.css", ""))
}
