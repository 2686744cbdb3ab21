package cssbuild

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yacobolo/cssbuild/internal/report"
)

// builder runs the read → prefix → minify → write pipeline
type builder struct {
	config  Config
	log     *zap.Logger
	targets Targets
	prefix  Stage
	minify  Stage
}

// Build is the main entry point. It reads config.Source, prefixes and
// minifies it, and writes the artifacts into config.DistDir.
//
// Both stages run before anything is written: a missing source or a failing
// stage leaves existing artifacts untouched.
func Build(config Config) (*BuildResult, error) {
	b, err := newBuilder(config)
	if err != nil {
		return nil, err
	}
	return b.run()
}

func newBuilder(config Config) (*builder, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	targets, err := ResolveBrowsers(config.Browsers)
	if err != nil {
		return nil, err
	}

	return &builder{
		config:  config,
		log:     config.logger(),
		targets: targets,
		prefix:  NewPrefixStage(targets, config.PlainPath(), config.SourceMap, config.Strict),
		minify:  NewMinifyStage(DefaultMinifyPreset, config.MinifiedPath()),
	}, nil
}

func (c Config) validate() error {
	if c.Source == "" {
		return errors.New("source file is required")
	}
	if c.DistDir == "" {
		return errors.New("dist directory is required")
	}
	switch c.Gzip {
	case "", GzipEstimate, GzipMeasure:
	default:
		return fmt.Errorf("unknown gzip mode %q (want %s or %s)", c.Gzip, GzipEstimate, GzipMeasure)
	}
	return nil
}

func (b *builder) run() (*BuildResult, error) {
	if b.config.Observer != nil {
		b.config.Observer.BuildStarted(b.config)
	}

	b.log.Debug("Resolved browser targets",
		zap.Stringer("engines", b.targets),
		zap.Strings("unresolved", b.targets.Unresolved))

	// 1. Read source
	// #nosec G304 - path comes from trusted configuration
	content, err := os.ReadFile(b.config.Source)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	source := Stylesheet{Path: b.config.Source, CSS: string(content)}
	b.log.Debug("Read source", zap.String("path", source.Path), zap.Int("bytes", len(content)))

	// 2. Prefix
	plain, warnings, err := b.prefix.Process(source)
	for _, w := range warnings {
		b.log.Warn("Prefixer warning", zap.String("message", w))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.prefix.Name(), err)
	}

	// 3. Minify the prefixed result, not the source
	minified, _, err := b.minify.Process(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.minify.Name(), err)
	}

	result := &BuildResult{
		Targets:  b.targets,
		Warnings: warnings,
	}
	result.SourceStats = b.inspect(source)
	result.PlainStats = b.inspect(plain)
	result.MinifiedStats = b.inspect(minified)

	if result.Gzip, err = b.compressed(minified.CSS); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}

	// 4. Write artifacts
	if err := ensureDir(b.config.DistDir); err != nil {
		return nil, err
	}

	if result.Plain, err = b.write(ArtifactPlain, b.config.PlainPath(), plain.CSS); err != nil {
		return nil, err
	}
	if plain.Map != "" {
		sourceMap, err := b.write(ArtifactSourceMap, b.config.MapPath(), plain.Map)
		if err != nil {
			return nil, err
		}
		result.SourceMap = &sourceMap
	}
	if result.Minified, err = b.write(ArtifactMinified, b.config.MinifiedPath(), minified.CSS); err != nil {
		return nil, err
	}

	if b.config.Observer != nil {
		b.config.Observer.BuildFinished(result)
	}
	return result, nil
}

func (b *builder) write(kind ArtifactKind, path, content string) (Artifact, error) {
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return Artifact{}, err
	}
	artifact := Artifact{Kind: kind, Path: path, Bytes: len(content)}
	b.log.Debug("Wrote artifact",
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Int("bytes", artifact.Bytes))

	if b.config.Observer != nil {
		b.config.Observer.ArtifactWritten(artifact)
	}
	return artifact, nil
}

// compressed computes the compressed size figure for the minified output
func (b *builder) compressed(minified string) (Compressed, error) {
	if b.config.Gzip != GzipMeasure {
		return Compressed{Mode: GzipEstimate, KB: report.EstimateGzipKB(len(minified))}, nil
	}
	n, err := report.MeasureGzip([]byte(minified))
	if err != nil {
		return Compressed{}, err
	}
	return Compressed{Mode: GzipMeasure, Bytes: n, KB: report.KB(n)}, nil
}

// inspect collects stats for reporting; a stylesheet the stats parser
// rejects still builds
func (b *builder) inspect(sheet Stylesheet) report.Stats {
	stats, err := report.Inspect(sheet.CSS)
	if err != nil {
		b.log.Debug("Could not inspect stylesheet", zap.String("path", sheet.Path), zap.Error(err))
	}
	return stats
}
