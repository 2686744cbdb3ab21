package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeBuild runs the build command with a fresh config state
func executeBuild(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetKoanf()
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("GITHUB_ACTIONS", "")

	var out, errOut bytes.Buffer
	cmd := rootCmd
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})

	base := []string{"build", "--config", filepath.Join(t.TempDir(), "none.yaml")}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pascal-css.css")
	dist := filepath.Join(dir, "dist")
	require.NoError(t, os.WriteFile(source, []byte(".a{color:#ffffff}"), 0644))

	out, _, err := executeBuild(t, "--source", source, "--dist-dir", dist)
	require.NoError(t, err)

	assert.Contains(t, out, "Building PascalCSS v3.2...")
	assert.Contains(t, out, "✅ Unminified: ")
	assert.Contains(t, out, "✅ Minified: ")
	assert.Contains(t, out, "Estimated gzipped: ~")
	assert.Contains(t, out, "Build complete!")
	assert.Contains(t, out, "pascal-css.css.map")

	minified, err := os.ReadFile(filepath.Join(dist, "pascal-css.min.css"))
	require.NoError(t, err)
	assert.Equal(t, ".a{color:#fff}", string(minified))
	assert.FileExists(t, filepath.Join(dist, "pascal-css.css"))
	assert.FileExists(t, filepath.Join(dist, "pascal-css.css.map"))
}

func TestBuildCommand_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dist := filepath.Join(dir, "dist")

	_, errOut, err := executeBuild(t, "--source", filepath.Join(dir, "missing.css"), "--dist-dir", dist)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBuildFailed))
	assert.Contains(t, errOut, "Build failed:")

	_, statErr := os.Stat(dist)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildCommand_MalformedSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pascal-css.css")
	dist := filepath.Join(dir, "dist")
	require.NoError(t, os.WriteFile(source, []byte(".a{color:red"), 0644))

	out, errOut, err := executeBuild(t, "--source", source, "--dist-dir", dist)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBuildFailed))
	assert.Contains(t, errOut, "Build failed:")
	assert.Contains(t, errOut, "invalid CSS")
	assert.NotContains(t, out, "Build complete!")

	_, statErr := os.Stat(dist)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pascal-css.css")
	dist := filepath.Join(dir, "dist")
	require.NoError(t, os.WriteFile(source, []byte(".a { user-select: none; }\n"), 0644))
	t.Cleanup(func() { _ = buildCmd.Flags().Set("output-format", "text") })

	out, _, err := executeBuild(t, "--source", source, "--dist-dir", dist, "--output-format", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "Build complete!")

	var summary struct {
		Name      string `json:"name"`
		Artifacts []struct {
			Kind  string `json:"kind"`
			Bytes int    `json:"bytes"`
		} `json:"artifacts"`
		Gzip struct {
			Mode string `json:"mode"`
		} `json:"gzip"`
		Targets string `json:"targets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, "PascalCSS v3.2", summary.Name)
	assert.Equal(t, "estimate", summary.Gzip.Mode)
	assert.Contains(t, summary.Targets, "safari16")
	require.Len(t, summary.Artifacts, 3)
	assert.Equal(t, "plain", summary.Artifacts[0].Kind)
	assert.Equal(t, "sourcemap", summary.Artifacts[1].Kind)
	assert.Equal(t, "minified", summary.Artifacts[2].Kind)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })

	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "cssbuild dev\n", out.String())
}
