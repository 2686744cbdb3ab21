package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name  string
		css   string
		check func(*testing.T, Stats)
	}{
		{
			name: "empty",
			css:  "",
			check: func(t *testing.T, s Stats) {
				assert.Zero(t, s.Rules)
				assert.Zero(t, s.Declarations)
				assert.Zero(t, s.Comments)
			},
		},
		{
			name: "selector list",
			css:  ".a, .b, .c { color: red; margin: 0 }",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 1, s.Rules)
				assert.Equal(t, 3, s.Selectors)
				assert.Equal(t, 2, s.Declarations)
			},
		},
		{
			name: "vendor prefixes",
			css:  ".a { -webkit-user-select: none; -moz-user-select: none; user-select: none; -WEBKIT-mask: none }",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 4, s.Declarations)
				assert.Equal(t, 3, s.Prefixed)
				assert.Equal(t, map[string]int{"-webkit-": 2, "-moz-": 1}, s.ByVendor)
			},
		},
		{
			name: "at rules",
			css:  "@import url(a.css);\n@media (min-width: 1px) { .c { margin: 0 } .d { padding: 0 } }",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 2, s.AtRules)
				assert.Equal(t, 2, s.Rules)
				assert.Equal(t, 2, s.Declarations)
			},
		},
		{
			name: "top level comment",
			css:  "/* header */\n.a { color: red }",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 1, s.Comments)
				assert.Equal(t, 1, s.Rules)
			},
		},
		{
			name: "comments inside blocks and values",
			css:  ".a {\n  /* spacing */\n  margin: 0 /* top */ auto;\n  color: red; /* brand */\n}\n@media print { /* print */ .b { color: #000 } }",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 4, s.Comments)
				assert.Equal(t, 2, s.Rules)
				assert.Equal(t, 3, s.Declarations)
			},
		},
		{
			name: "minified",
			css:  ".a,.b{color:#fff}.c{margin:0}",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 2, s.Rules)
				assert.Equal(t, 3, s.Selectors)
				assert.Equal(t, 2, s.Declarations)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := Inspect(tt.css)
			require.NoError(t, err)
			tt.check(t, stats)
		})
	}
}

func TestPrefixesAdded(t *testing.T) {
	assert.Equal(t, 2, PrefixesAdded(Stats{Prefixed: 1}, Stats{Prefixed: 3}))
	assert.Equal(t, 0, PrefixesAdded(Stats{Prefixed: 3}, Stats{Prefixed: 1}))
}
