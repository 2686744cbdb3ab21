package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Options configures a Reporter
type Options struct {
	UseColors bool
	Verbose   bool // Print stylesheet stats and prefixer details
	Quiet     bool // Print failures only
}

// Reporter prints human-readable build progress
type Reporter struct {
	w         io.Writer
	errW      io.Writer
	useColors bool
	verbose   bool
	quiet     bool
}

// FileNote is one entry of the distribution file list
type FileNote struct {
	Name string // "pascal-css.min.css"
	Note string // "production-ready"
}

// NewReporter creates a reporter writing progress to w and failures to errW.
func NewReporter(w, errW io.Writer, opts Options) *Reporter {
	return &Reporter{
		w:         w,
		errW:      errW,
		useColors: opts.UseColors,
		verbose:   opts.Verbose,
		quiet:     opts.Quiet,
	}
}

// ShouldUseColors determines if colors should be enabled
func ShouldUseColors(force bool) bool {
	// Explicit flag wins
	if force {
		return true
	}

	// Check for FORCE_COLOR environment variable (GitHub Actions, etc.)
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// GitHub Actions supports colors
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// Banner announces the start of a build
func (r *Reporter) Banner(name string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "🚀 %s\n\n", RenderStyle(StyleCyan, "Building "+name+"...", r.useColors))
}

// Artifact reports a written file and its size. Minified artifacts are
// followed by the compressed size, so no blank line is printed after them.
func (r *Reporter) Artifact(label, path string, size int, last bool) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "✅ %s: %s\n",
		label, RenderStyle(StyleGreen, filepath.ToSlash(path), r.useColors))
	fmt.Fprintf(r.w, "   Size: %s\n", FormatKB(size))
	if !last {
		fmt.Fprintln(r.w)
	}
}

// Compressed reports the compressed size of the minified artifact
func (r *Reporter) Compressed(kb float64, estimated bool) {
	if r.quiet {
		return
	}
	if estimated {
		fmt.Fprintf(r.w, "   Estimated gzipped: ~%.2f KB\n\n", kb)
		return
	}
	fmt.Fprintf(r.w, "   Gzipped: %.2f KB\n\n", kb)
}

// Warnings prints prefixer warnings
func (r *Reporter) Warnings(warnings []string) {
	if r.quiet || len(warnings) == 0 {
		return
	}
	fmt.Fprintf(r.w, "%s\n", RenderStyle(StyleYellow, "⚠ Warnings:", r.useColors))
	for _, w := range warnings {
		fmt.Fprintf(r.w, "  - %s\n", w)
	}
	fmt.Fprintln(r.w)
}

// Details prints stylesheet stats in verbose mode
func (r *Reporter) Details(targets string, source, plain, minified Stats) {
	if r.quiet || !r.verbose {
		return
	}
	if targets == "" {
		targets = "none"
	}
	fmt.Fprintf(r.w, "%s\n", RenderStyle(StyleCyan, "Details:", r.useColors))
	fmt.Fprintf(r.w, "   Targets: %s\n", targets)
	fmt.Fprintf(r.w, "   Rules: %d, declarations: %d\n", plain.Rules, plain.Declarations)
	fmt.Fprintf(r.w, "   Prefixes added: %d\n", PrefixesAdded(source, plain))
	fmt.Fprintf(r.w, "   Comments removed: %d\n\n", source.Comments-minified.Comments)
}

// Complete prints the completion message and the distribution file list
func (r *Reporter) Complete(distDir string, files []FileNote) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "✨ %s\n\n", RenderStyle(StyleGreen, "Build complete!", r.useColors))
	location := filepath.ToSlash(filepath.Clean(distDir))
	if !filepath.IsAbs(distDir) {
		location = "/" + location
	}
	fmt.Fprintf(r.w, "📦 Distribution files ready in %s:\n", location)
	for _, f := range files {
		fmt.Fprintf(r.w, "   - %s %s\n", f.Name, RenderStyle(StyleGray, "("+f.Note+")", r.useColors))
	}
	fmt.Fprintln(r.w)
}

// Failure reports a failed build; it is printed even in quiet mode
func (r *Reporter) Failure(err error) {
	fmt.Fprintf(r.errW, "❌ %s %v\n", RenderStyle(StyleRed, "Build failed:", r.useColors), err)
}
