package cssbuild

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2"
	parsecss "github.com/tdewolff/parse/v2/css"

	"github.com/yacobolo/cssbuild/internal/report"
)

// syntaxMessageIDs are esbuild message IDs that mean the stylesheet is
// malformed. esbuild reports them as warnings and recovers; a build fails.
var syntaxMessageIDs = map[string]bool{
	"css-syntax-error":  true,
	"js-comment-in-css": true,
}

// PrefixStage adds vendor prefixes for the configured engines and produces
// an external source map for the file it will be written to.
//
// The output is the source text with prefixed declarations inserted before
// the declarations that need them. Comments, rule order, nesting and
// formatting are kept as written.
type PrefixStage struct {
	targets   Targets
	output    string // Path the prefixed stylesheet is written to
	sourceMap bool
	strict    bool
}

// NewPrefixStage creates a prefix stage whose result will be written to output.
func NewPrefixStage(targets Targets, output string, sourceMap, strict bool) *PrefixStage {
	return &PrefixStage{
		targets:   targets,
		output:    output,
		sourceMap: sourceMap,
		strict:    strict,
	}
}

// Name implements Stage
func (p *PrefixStage) Name() string { return "prefix" }

// Process implements Stage. Errors and syntax warnings fail the stage.
// Other warnings are returned and only fail it in strict mode.
func (p *PrefixStage) Process(in Stylesheet) (Stylesheet, []string, error) {
	warnings, err := p.check(in)
	if err != nil {
		return Stylesheet{}, warnings, err
	}

	decls, err := scanDeclarations(in.CSS)
	if err != nil {
		return Stylesheet{}, warnings, fmt.Errorf("%s: %w", in.Path, err)
	}

	var mb *mapBuilder
	if p.sourceMap {
		mb = newMapBuilder()
	}
	css := splice(in.CSS, p.insertions(in.CSS, decls), mb)

	out := Stylesheet{Path: p.output, CSS: css}
	if mb != nil {
		sourceMap, err := mb.JSON(filepath.Base(p.output), sourceRelativeTo(in.Path, p.output), in.CSS)
		if err != nil {
			return Stylesheet{}, warnings, fmt.Errorf("%s: source map: %w", in.Path, err)
		}
		out.Map = sourceMap
		// An empty stylesheet has nothing to map back
		if strings.TrimSpace(out.CSS) != "" {
			out.CSS = annotate(out.CSS, filepath.Base(p.output)+".map")
		}
	}
	return out, warnings, nil
}

// check runs esbuild over the whole stylesheet and sorts its messages into
// failures and warnings.
func (p *PrefixStage) check(in Stylesheet) ([]string, error) {
	result := api.Transform(in.CSS, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    p.targets.Engines,
		Sourcefile: filepath.ToSlash(in.Path),
		LogLevel:   api.LogLevelSilent,
	})

	var syntax, other []api.Message
	for _, msg := range result.Warnings {
		if syntaxMessageIDs[msg.ID] {
			syntax = append(syntax, msg)
		} else {
			other = append(other, msg)
		}
	}
	warnings := formatMessages(other)

	if failures := append(result.Errors, syntax...); len(failures) > 0 {
		return warnings, fmt.Errorf("%s: invalid CSS: %s",
			in.Path, strings.Join(formatMessages(failures), "; "))
	}
	if p.strict && len(warnings) > 0 {
		return warnings, fmt.Errorf("%s: %d warning(s) in strict mode: %s",
			in.Path, len(warnings), strings.Join(warnings, "; "))
	}
	return warnings, nil
}

// insertions computes the prefixed declarations to add before each source
// declaration. A prefixed form already written in the same block is not
// added again.
func (p *PrefixStage) insertions(content string, decls []declaration) []insertion {
	if len(p.targets.Engines) == 0 {
		return nil
	}

	written := make(map[int]map[string]bool)
	for _, d := range decls {
		if written[d.block] == nil {
			written[d.block] = make(map[string]bool)
		}
		written[d.block][canonical(content[d.start:d.end])] = true
	}

	cache := make(map[string][]string)
	var out []insertion
	for _, d := range decls {
		text := content[d.start:d.end]
		key := canonical(text)

		added, ok := cache[key]
		if !ok {
			added = p.prefixed(text)
			cache[key] = added
		}

		var sb strings.Builder
		for _, a := range added {
			if written[d.block][canonical(a)] {
				continue
			}
			sb.WriteString(a)
			sb.WriteString(";")
			sb.WriteString(d.separator())
		}
		if sb.Len() > 0 {
			out = append(out, insertion{at: d.start, text: sb.String()})
		}
	}
	return out
}

// prefixed returns the vendor-prefixed declarations esbuild adds for decl
// under the stage's targets
func (p *PrefixStage) prefixed(decl string) []string {
	if hasVendorPrefix(decl) {
		return nil
	}

	result := api.Transform("a{"+decl+"}", api.TransformOptions{
		Loader:   api.LoaderCSS,
		Engines:  p.targets.Engines,
		LogLevel: api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil
	}

	code := string(result.Code)
	open, closing := strings.IndexByte(code, '{'), strings.LastIndexByte(code, '}')
	if open < 0 || closing < open {
		return nil
	}

	var added []string
	for _, line := range strings.Split(code[open+1:closing], "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), ";")
		if line != "" && hasVendorPrefix(line) {
			added = append(added, line)
		}
	}
	return added
}

// declaration is a property declaration found in the source
type declaration struct {
	start, end int    // Byte offsets, trailing semicolon excluded
	indent     string // Whitespace written before the declaration
	block      int    // Index of the enclosing block
}

// separator is what goes between an inserted declaration and this one: the
// line break and indentation of the declaration, or its inline spacing.
func (d declaration) separator() string {
	if i := strings.LastIndexByte(d.indent, '\n'); i >= 0 {
		return d.indent[i:]
	}
	if d.indent == "" {
		return " "
	}
	return d.indent
}

// scanDeclarations lists the property declarations of a stylesheet, in
// source order. Custom properties and top-level statements are skipped.
func scanDeclarations(content string) ([]declaration, error) {
	lexer := parsecss.NewLexer(parse.NewInputString(content))

	var (
		decls  []declaration
		blocks []int // Open blocks, innermost last
		next   int   // Index of the next block to open

		offset  int    // Offset of the current token
		prevWS  string // Text of the previous token if it was whitespace
		depth   int    // Open parentheses and brackets in the current statement
		start   = -1   // Offset of the statement's first significant token
		end     int    // End offset of the statement's last significant token
		indent  string // Whitespace before the statement
		leading []parsecss.TokenType
	)

	reset := func() {
		start, depth, leading = -1, 0, leading[:0]
	}
	flush := func() {
		if start < 0 || len(blocks) == 0 || len(leading) < 2 {
			return
		}
		if leading[0] == parsecss.IdentToken && leading[1] == parsecss.ColonToken {
			decls = append(decls, declaration{start: start, end: end, indent: indent, block: blocks[len(blocks)-1]})
		}
	}

	for {
		tt, data := lexer.Next()
		if tt == parsecss.ErrorToken {
			if err := lexer.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			break
		}
		pos := offset
		offset += len(data)

		switch tt {
		case parsecss.WhitespaceToken:
			prevWS = string(data)
			continue
		case parsecss.CommentToken:
			prevWS = ""
			continue
		}

		if depth == 0 {
			switch tt {
			case parsecss.SemicolonToken:
				flush()
				reset()
				prevWS = ""
				continue
			case parsecss.LeftBraceToken:
				reset()
				blocks = append(blocks, next)
				next++
				prevWS = ""
				continue
			case parsecss.RightBraceToken:
				flush()
				reset()
				if len(blocks) > 0 {
					blocks = blocks[:len(blocks)-1]
				}
				prevWS = ""
				continue
			}
		}

		switch tt {
		case parsecss.LeftParenthesisToken, parsecss.LeftBracketToken, parsecss.FunctionToken:
			depth++
		case parsecss.RightParenthesisToken, parsecss.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}

		if start < 0 {
			start, indent = pos, prevWS
		}
		if len(leading) < 2 {
			leading = append(leading, tt)
		}
		end = offset
		prevWS = ""
	}
	return decls, nil
}

// insertion is text added to the source before offset at
type insertion struct {
	at   int
	text string
}

// splice writes content with the insertions applied. When mb is not nil it
// records where each output line came from.
func splice(content string, inserts []insertion, mb *mapBuilder) string {
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].at < inserts[j].at })

	var (
		sb        strings.Builder
		gen, orig cursor
		prev      int
	)
	sb.Grow(len(content))

	// write emits text, mapping each of its lines to the current source position
	write := func(text string, fromSource bool) {
		for len(text) > 0 {
			if mb != nil {
				mb.add(gen, orig)
			}
			chunk := text
			if i := strings.IndexByte(text, '\n'); i >= 0 {
				chunk = text[:i+1]
			}
			text = text[len(chunk):]
			sb.WriteString(chunk)
			gen.advance(chunk)
			if fromSource {
				orig.advance(chunk)
			}
		}
	}

	for _, ins := range inserts {
		write(content[prev:ins.at], true)
		write(ins.text, false)
		prev = ins.at
	}
	write(content[prev:], true)
	return sb.String()
}

// canonical strips whitespace and case so equivalent declarations compare equal
func canonical(decl string) string {
	return strings.ToLower(strings.Join(strings.Fields(decl), ""))
}

// hasVendorPrefix reports whether a declaration's property or any value
// keyword carries a vendor prefix
func hasVendorPrefix(decl string) bool {
	words := strings.FieldsFunc(decl, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ':' || r == ',' || r == '(' || r == ')'
	})
	for _, w := range words {
		if report.VendorOf(w) != "" {
			return true
		}
	}
	return false
}

// annotate appends the sourceMappingURL comment for an external map
func annotate(css, mapName string) string {
	if !strings.HasSuffix(css, "\n") {
		css += "\n"
	}
	return css + "/*# sourceMappingURL=" + mapName + " */\n"
}

// sourceRelativeTo names src relative to the directory of out, slash-separated
func sourceRelativeTo(src, out string) string {
	if src == "" || out == "" {
		return filepath.ToSlash(src)
	}
	absSrc, err1 := filepath.Abs(src)
	absOut, err2 := filepath.Abs(filepath.Dir(out))
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(src)
	}
	rel, err := filepath.Rel(absOut, absSrc)
	if err != nil {
		return filepath.ToSlash(src)
	}
	return filepath.ToSlash(rel)
}

// formatMessages renders esbuild messages as "file:line:col: text"
func formatMessages(msgs []api.Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location == nil {
			out = append(out, msg.Text)
			continue
		}
		out = append(out, fmt.Sprintf("%s:%d:%d: %s",
			msg.Location.File, msg.Location.Line, msg.Location.Column+1, msg.Text))
	}
	return out
}
