package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/cssbuild"
	"github.com/yacobolo/cssbuild/internal/report"
)

// errBuildFailed marks errors that were already reported to the user
var errBuildFailed = errors.New("build failed")

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Prefix and minify the stylesheet",
	Long: `Read the source stylesheet, add vendor prefixes for the browser
support list and minify the result. Nothing is written unless both
passes succeed.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	defaults := cssbuild.DefaultConfig()

	f := cmd.Flags()
	f.String("source", defaults.Source, "Source CSS file")
	f.String("dist-dir", defaults.DistDir, "Output directory for built files")
	f.String("name", defaults.Name, "Stylesheet name shown in the build banner")
	f.StringSlice("browsers", nil, "Browser support queries (default: the built-in list)")
	f.Bool("sourcemap", defaults.SourceMap, "Write an external source map for the unminified file")
	f.String("gzip", string(defaults.Gzip), "Compressed size report: estimate|measure")
	f.Bool("strict", defaults.Strict, "Fail on prefixer warnings")
	f.String("output-format", "text", "Output format: text|json")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	config := buildBuildConfig()

	verbose := getBoolWithFallback("verbose", "verbose", false)
	quiet := getBoolWithFallback("quiet", "quiet", false)
	color := getBoolWithFallback("color", "color", false)
	format := report.DetermineOutputFormat(getStringWithFallback("output-format", "output-format", "text"))

	logger := newLogger(verbose, quiet, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	reporter := report.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{
		UseColors: report.ShouldUseColors(color),
		Verbose:   verbose,
		Quiet:     quiet || format == report.OutputJSON,
	})

	config.Logger = logger
	config.Observer = &progress{reporter: reporter}

	result, err := cssbuild.Build(config)
	if err != nil {
		logger.Debug("Build failed", zap.Error(err))
		reporter.Failure(err)
		return fmt.Errorf("%w: %w", errBuildFailed, err)
	}

	if format == report.OutputJSON {
		if err := report.WriteJSON(cmd.OutOrStdout(), jsonSummary(config.Name, result)); err != nil {
			return fmt.Errorf("writing JSON summary: %w", err)
		}
	}
	return nil
}

// jsonSummary converts a build result into the JSON report shape
func jsonSummary(name string, result *cssbuild.BuildResult) report.JSONOutput {
	output := report.JSONOutput{
		Version: "1.0",
		Name:    name,
		Gzip: report.JSONGzip{
			Mode:  string(result.Gzip.Mode),
			Bytes: result.Gzip.Bytes,
			KB:    result.Gzip.KB,
		},
		Targets:    result.Targets.String(),
		Unresolved: result.Targets.Unresolved,
		Warnings:   result.Warnings,
		Stats:      report.NewJSONStats(result.SourceStats, result.PlainStats, result.MinifiedStats),
	}
	for _, a := range result.Artifacts() {
		output.Artifacts = append(output.Artifacts, report.JSONArtifact{
			Kind:  string(a.Kind),
			Path:  filepath.ToSlash(a.Path),
			Bytes: a.Bytes,
			KB:    report.KB(a.Bytes),
		})
	}
	return output
}

// progress forwards build events to the terminal reporter
type progress struct {
	reporter *report.Reporter
	distDir  string
}

func (p *progress) BuildStarted(config cssbuild.Config) {
	p.distDir = config.DistDir
	p.reporter.Banner(config.Name)
}

func (p *progress) ArtifactWritten(artifact cssbuild.Artifact) {
	switch artifact.Kind {
	case cssbuild.ArtifactPlain:
		p.reporter.Artifact("Unminified", artifact.Path, artifact.Bytes, false)
	case cssbuild.ArtifactMinified:
		p.reporter.Artifact("Minified", artifact.Path, artifact.Bytes, true)
	}
}

func (p *progress) BuildFinished(result *cssbuild.BuildResult) {
	p.reporter.Compressed(result.Gzip.KB, result.Gzip.Mode == cssbuild.GzipEstimate)
	p.reporter.Warnings(result.Warnings)
	p.reporter.Details(result.Targets.String(), result.SourceStats, result.PlainStats, result.MinifiedStats)

	files := []report.FileNote{
		{Name: filepath.Base(result.Plain.Path), Note: "unminified with comments"},
		{Name: filepath.Base(result.Minified.Path), Note: "production-ready"},
	}
	if result.SourceMap != nil {
		files = append(files, report.FileNote{Name: filepath.Base(result.SourceMap.Path), Note: "source map"})
	}
	p.reporter.Complete(p.distDir, files)
}
