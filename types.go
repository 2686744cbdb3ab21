package cssbuild

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yacobolo/cssbuild/internal/report"
)

// DefaultBrowsers is the support list the stylesheet has always been built for.
var DefaultBrowsers = []string{
	"last 2 versions",
	"> 1%",
	"not dead",
	"Chrome >= 105",
	"Safari >= 16",
	"Firefox >= 110",
}

// GzipMode selects how the compressed size of the minified artifact is reported
type GzipMode string

const (
	// GzipEstimate reports 30% of the minified size
	GzipEstimate GzipMode = "estimate"
	// GzipMeasure compresses the minified output and reports the real size
	GzipMeasure GzipMode = "measure"
)

// ArtifactKind identifies one of the files a build produces
type ArtifactKind string

// Artifact kinds, in the order they are written
const (
	ArtifactPlain     ArtifactKind = "plain"
	ArtifactSourceMap ArtifactKind = "sourcemap"
	ArtifactMinified  ArtifactKind = "minified"
)

// Config holds build configuration
type Config struct {
	Source    string   // "pascal-css.css"
	DistDir   string   // "dist"
	Name      string   // Banner title, "PascalCSS v3.2"
	Browsers  []string // Browser support queries for the prefix stage
	SourceMap bool     // Write <name>.css.map (default: true)
	Gzip      GzipMode // estimate | measure (default: estimate)
	Strict    bool     // Treat prefixer warnings as errors

	Logger   *zap.Logger // nil disables logging
	Observer Observer    // nil disables progress reporting
}

// DefaultConfig returns the stock PascalCSS build configuration.
func DefaultConfig() Config {
	return Config{
		Source:    "pascal-css.css",
		DistDir:   "dist",
		Name:      "PascalCSS v3.2",
		Browsers:  append([]string(nil), DefaultBrowsers...),
		SourceMap: true,
		Gzip:      GzipEstimate,
	}
}

// baseName is the artifact name stem: "pascal-css" for "src/pascal-css.css"
func (c Config) baseName() string {
	return strings.TrimSuffix(filepath.Base(c.Source), filepath.Ext(c.Source))
}

// PlainPath is where the unminified artifact is written
func (c Config) PlainPath() string {
	return filepath.Join(c.DistDir, c.baseName()+".css")
}

// MapPath is where the source map of the unminified artifact is written
func (c Config) MapPath() string {
	return c.PlainPath() + ".map"
}

// MinifiedPath is where the minified artifact is written
func (c Config) MinifiedPath() string {
	return filepath.Join(c.DistDir, c.baseName()+".min.css")
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Artifact is a file written by a build
type Artifact struct {
	Kind  ArtifactKind
	Path  string
	Bytes int
}

// Compressed describes the compressed size of the minified artifact
type Compressed struct {
	Mode  GzipMode
	Bytes int     // Measured size, zero in estimate mode
	KB    float64 // Reported size in KB
}

// BuildResult contains the artifacts and stats of a successful build
type BuildResult struct {
	Plain     Artifact
	SourceMap *Artifact // nil when source maps are disabled or empty
	Minified  Artifact
	Gzip      Compressed
	Targets   Targets
	Warnings  []string // Prefixer warnings

	SourceStats   report.Stats
	PlainStats    report.Stats
	MinifiedStats report.Stats
}

// Artifacts lists the written files in write order.
func (r *BuildResult) Artifacts() []Artifact {
	artifacts := []Artifact{r.Plain}
	if r.SourceMap != nil {
		artifacts = append(artifacts, *r.SourceMap)
	}
	return append(artifacts, r.Minified)
}

// Observer receives progress events while a build runs
type Observer interface {
	BuildStarted(config Config)
	ArtifactWritten(artifact Artifact)
	BuildFinished(result *BuildResult)
}
