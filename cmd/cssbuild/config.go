package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yacobolo/cssbuild"
)

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	// Resolve config file path from flag
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = ".cssbuild.yaml"
	}

	// Load config file and env vars
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence). Only flags set on the command line
	// are loaded, flag defaults never shadow the config file.
	flags := cmd.Flags()
	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (CSSBUILD_* prefix)
	if err := k.Load(env.ProviderWithValue("CSSBUILD_", ".", envValue), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps an environment variable to a config key. The first
// underscore separates the section, later ones become dashes:
//
//	CSSBUILD_BUILD_SOURCE   -> build.source
//	CSSBUILD_BUILD_DIST_DIR -> build.dist-dir
//	CSSBUILD_VERBOSE        -> verbose
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "CSSBUILD_"))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + strings.ReplaceAll(rest, "_", "-")
}

// envValue maps an environment variable to a config key and value. List
// keys take a comma-separated value:
//
//	CSSBUILD_BROWSERS="Chrome >= 105,Safari >= 16" -> browsers: [Chrome >= 105, Safari >= 16]
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if key == "browsers" || key == "build.browsers" {
		var queries []string
		for _, q := range strings.Split(value, ",") {
			if q = strings.TrimSpace(q); q != "" {
				queries = append(queries, q)
			}
		}
		return key, queries
	}
	return key, value
}

// buildBuildConfig constructs the library's Config struct from koanf state.
func buildBuildConfig() cssbuild.Config {
	defaults := cssbuild.DefaultConfig()

	config := cssbuild.Config{
		Source:    getStringWithFallback("source", "build.source", defaults.Source),
		DistDir:   getStringWithFallback("dist-dir", "build.dist-dir", defaults.DistDir),
		Name:      getStringWithFallback("name", "build.name", defaults.Name),
		SourceMap: getBoolWithFallback("sourcemap", "build.sourcemap", defaults.SourceMap),
		Gzip:      cssbuild.GzipMode(getStringWithFallback("gzip", "build.gzip", string(defaults.Gzip))),
		Strict:    getBoolWithFallback("strict", "build.strict", defaults.Strict),
	}

	// Handle browsers: check flag key first, then config key
	if browsers := k.Strings("browsers"); len(browsers) > 0 {
		config.Browsers = browsers
	} else if browsers := k.Strings("build.browsers"); len(browsers) > 0 {
		config.Browsers = browsers
	} else {
		config.Browsers = defaults.Browsers
	}

	return config
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}
