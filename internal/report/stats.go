// Package report inspects built stylesheets and prints build progress.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// vendorPrefixes are the engine prefixes counted as vendor-prefixed declarations
var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

// Stats summarizes the structure of a stylesheet
type Stats struct {
	Rules        int // Style rules ({...} blocks with a selector)
	Selectors    int // Comma-separated selectors across all rules
	AtRules      int // @media, @supports, @import, ...
	Declarations int
	Prefixed     int            // Declarations with a vendor-prefixed property
	ByVendor     map[string]int // "-webkit-" -> 3
	Comments     int
}

// Inspect parses a stylesheet and counts its rules and declarations.
func Inspect(content string) (Stats, error) {
	stats := Stats{ByVendor: make(map[string]int)}

	comments, err := countComments(content)
	if err != nil {
		return stats, fmt.Errorf("parse stylesheet: %w", err)
	}
	stats.Comments = comments

	p := css.NewParser(parse.NewInputString(content), false)

	for {
		gt, _, data := p.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && err != io.EOF {
				return stats, fmt.Errorf("parse stylesheet: %w", err)
			}
			return stats, nil
		case css.QualifiedRuleGrammar:
			// Every selector of a list except the last
			stats.Selectors++
		case css.BeginRulesetGrammar:
			stats.Rules++
			stats.Selectors++
		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			stats.AtRules++
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			stats.Declarations++
			if vendor := VendorOf(string(data)); vendor != "" {
				stats.Prefixed++
				stats.ByVendor[vendor]++
			}
		}
	}
}

// countComments counts comments with the lexer; the grammar parser drops
// the ones inside blocks and values.
func countComments(content string) (int, error) {
	l := css.NewLexer(parse.NewInputString(content))
	n := 0
	for {
		tt, _ := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return n, err
			}
			return n, nil
		case css.CommentToken:
			n++
		}
	}
}

// VendorOf returns the vendor prefix of a property name or keyword, or ""
func VendorOf(property string) string {
	property = strings.ToLower(property)
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(property, prefix) {
			return prefix
		}
	}
	return ""
}

// PrefixesAdded is the number of vendor-prefixed declarations in after that
// were not already in before.
func PrefixesAdded(before, after Stats) int {
	if added := after.Prefixed - before.Prefixed; added > 0 {
		return added
	}
	return 0
}
