package cssbuild

import (
	"bytes"
	"encoding/json"
	"unicode/utf16"
)

const base64VLQ = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// cursor is a zero-based line and UTF-16 column, the units source maps use
type cursor struct {
	line, col int
}

func (c *cursor) advance(text string) {
	for _, r := range text {
		if r == '\n' {
			c.line++
			c.col = 0
			continue
		}
		if n := utf16.RuneLen(r); n > 0 {
			c.col += n
		} else {
			c.col++
		}
	}
}

// mapBuilder encodes source map v3 mappings for a single source file
type mapBuilder struct {
	mappings []byte
	line     int // Generated line of the last segment
	first    bool
	last     struct{ genCol, srcLine, srcCol int }
}

func newMapBuilder() *mapBuilder {
	return &mapBuilder{first: true}
}

// add maps the generated position gen to the source position orig. Calls
// must come in generated order.
func (m *mapBuilder) add(gen, orig cursor) {
	for m.line < gen.line {
		m.mappings = append(m.mappings, ';')
		m.line++
		m.last.genCol = 0
		m.first = true
	}
	if !m.first {
		m.mappings = append(m.mappings, ',')
	}
	m.mappings = appendVLQ(m.mappings, gen.col-m.last.genCol)
	m.mappings = appendVLQ(m.mappings, 0)
	m.mappings = appendVLQ(m.mappings, orig.line-m.last.srcLine)
	m.mappings = appendVLQ(m.mappings, orig.col-m.last.srcCol)

	m.last.genCol, m.last.srcLine, m.last.srcCol = gen.col, orig.line, orig.col
	m.first = false
}

// JSON renders the map for the generated file, naming source as it should
// be resolved from the map's location.
func (m *mapBuilder) JSON(file, source, content string) (string, error) {
	doc := struct {
		Version        int      `json:"version"`
		File           string   `json:"file"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Names          []string `json:"names"`
		Mappings       string   `json:"mappings"`
	}{
		Version:        3,
		File:           file,
		Sources:        []string{source},
		SourcesContent: []string{content},
		Names:          []string{},
		Mappings:       string(m.mappings),
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// appendVLQ appends v as a base64 VLQ
func appendVLQ(b []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = -v<<1 | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b = append(b, base64VLQ[digit])
		if u == 0 {
			return b
		}
	}
}
