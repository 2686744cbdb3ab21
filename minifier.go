package cssbuild

import (
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/parse/v2"
	parsecss "github.com/tdewolff/parse/v2/css"
)

// MinifyPreset lists the minification rules applied to the prefixed output
type MinifyPreset struct {
	DiscardComments     bool // Remove every comment, legal comments included
	NormalizeWhitespace bool
	MinifyColors        bool // #ffffff -> #fff, rgb() -> hex
	MinifyFontValues    bool // font-weight: normal -> 400
	MinifySelectors     bool
}

// DefaultMinifyPreset is the fixed preset every build uses.
var DefaultMinifyPreset = MinifyPreset{
	DiscardComments:     true,
	NormalizeWhitespace: true,
	MinifyColors:        true,
	MinifyFontValues:    true,
	MinifySelectors:     true,
}

// rewrites reports whether any rule handled by the CSS minifier is on.
// tdewolff/minify applies whitespace, color, font and selector rules as one pass.
func (p MinifyPreset) rewrites() bool {
	return p.NormalizeWhitespace || p.MinifyColors || p.MinifyFontValues || p.MinifySelectors
}

// MinifyStage shrinks a stylesheet according to a MinifyPreset
type MinifyStage struct {
	preset MinifyPreset
	output string
	m      *minify.M
}

// NewMinifyStage creates a minify stage whose result will be written to output.
func NewMinifyStage(preset MinifyPreset, output string) *MinifyStage {
	m := minify.New()
	m.Add("text/css", &css.Minifier{})
	return &MinifyStage{preset: preset, output: output, m: m}
}

// Name implements Stage
func (s *MinifyStage) Name() string { return "minify" }

// Process implements Stage. The minified output never carries a source map.
func (s *MinifyStage) Process(in Stylesheet) (Stylesheet, []string, error) {
	out := in.CSS

	if s.preset.DiscardComments {
		stripped, err := StripComments(out)
		if err != nil {
			return Stylesheet{}, nil, fmt.Errorf("%s: discard comments: %w", in.Path, err)
		}
		out = stripped
	}

	if s.preset.rewrites() {
		minified, err := s.m.String("text/css", out)
		if err != nil {
			return Stylesheet{}, nil, fmt.Errorf("%s: %w", in.Path, err)
		}
		out = minified
	}

	return Stylesheet{Path: s.output, CSS: out}, nil, nil
}

// StripComments removes every comment from a stylesheet. A comment between
// two tokens that would otherwise merge is replaced by a single space.
func StripComments(content string) (string, error) {
	lexer := parsecss.NewLexer(parse.NewInputString(content))

	var sb strings.Builder
	sb.Grow(len(content))

	var prev parsecss.TokenType = parsecss.WhitespaceToken
	pendingSeparator := false

	for {
		tt, text := lexer.Next()
		if tt == parsecss.ErrorToken {
			if err := lexer.Err(); err != nil && err != io.EOF {
				return "", err
			}
			break
		}

		if tt == parsecss.CommentToken {
			pendingSeparator = true
			continue
		}

		if pendingSeparator && needsSeparator(prev) && needsSeparator(tt) {
			sb.WriteByte(' ')
		}
		pendingSeparator = false

		sb.Write(text)
		prev = tt
	}

	return sb.String(), nil
}

// needsSeparator reports whether a token can fuse with an adjacent token of
// the same kind when nothing separates them
func needsSeparator(tt parsecss.TokenType) bool {
	switch tt {
	case parsecss.IdentToken, parsecss.FunctionToken, parsecss.AtKeywordToken,
		parsecss.HashToken, parsecss.NumberToken, parsecss.PercentageToken,
		parsecss.DimensionToken, parsecss.URLToken, parsecss.UnicodeRangeToken:
		return true
	default:
		return false
	}
}
