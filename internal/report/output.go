package report

import (
	"encoding/json"
	"io"
)

// OutputFormat selects how build progress is reported
type OutputFormat string

const (
	// OutputText prints human-readable progress lines
	OutputText OutputFormat = "text"
	// OutputJSON prints one JSON summary after a successful build
	OutputJSON OutputFormat = "json"
)

// DetermineOutputFormat maps a --output-format value to an OutputFormat.
// Unknown values fall back to text.
func DetermineOutputFormat(formatFlag string) OutputFormat {
	switch formatFlag {
	case "json":
		return OutputJSON
	default:
		return OutputText
	}
}

// JSONOutput represents the structured JSON build summary
type JSONOutput struct {
	Version    string         `json:"version"`
	Name       string         `json:"name"`
	Artifacts  []JSONArtifact `json:"artifacts"`
	Gzip       JSONGzip       `json:"gzip"`
	Targets    string         `json:"targets"`
	Unresolved []string       `json:"unresolved_queries"`
	Warnings   []string       `json:"warnings"`
	Stats      JSONStats      `json:"stats"`
}

// JSONArtifact is one written file
type JSONArtifact struct {
	Kind  string  `json:"kind"`
	Path  string  `json:"path"`
	Bytes int     `json:"bytes"`
	KB    float64 `json:"kb"`
}

// JSONGzip is the compressed size of the minified artifact
type JSONGzip struct {
	Mode  string  `json:"mode"`
	Bytes int     `json:"bytes,omitempty"`
	KB    float64 `json:"kb"`
}

// JSONStats compares the source with the built stylesheets
type JSONStats struct {
	Rules           int `json:"rules"`
	Declarations    int `json:"declarations"`
	PrefixesAdded   int `json:"prefixes_added"`
	CommentsRemoved int `json:"comments_removed"`
}

// NewJSONStats summarizes the stats of one build
func NewJSONStats(source, plain, minified Stats) JSONStats {
	return JSONStats{
		Rules:           plain.Rules,
		Declarations:    plain.Declarations,
		PrefixesAdded:   PrefixesAdded(source, plain),
		CommentsRemoved: source.Comments - minified.Comments,
	}
}

// WriteJSON writes the build summary as indented JSON
func WriteJSON(w io.Writer, output JSONOutput) error {
	if output.Unresolved == nil {
		output.Unresolved = []string{}
	}
	if output.Warnings == nil {
		output.Warnings = []string{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
