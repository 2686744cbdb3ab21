// Package cssbuild builds a distributable stylesheet from one handwritten CSS file.
//
// A build runs two passes over the source: vendor prefixing for a browser
// support list, then minification. It writes three artifacts into the
// distribution directory:
//
//   - <name>.css      prefixed, readable output
//   - <name>.css.map  external source map for <name>.css
//   - <name>.min.css  minified output
//
// # Building
//
//	config := cssbuild.DefaultConfig()
//	config.Source = "styles/pascal-css.css"
//	config.DistDir = "dist"
//	result, err := cssbuild.Build(config)
//
// # CLI Tool
//
// cssbuild also provides a CLI tool. Install with:
//
//	go install github.com/yacobolo/cssbuild/cmd/cssbuild@latest
package cssbuild

// Public API:
// - Build(config Config) (*BuildResult, error)
// - ResolveBrowsers(queries []string) (Targets, error)
// - NewPrefixStage / NewMinifyStage for using the passes on their own
