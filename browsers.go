package cssbuild

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrInvalidBrowserQuery is returned for support queries that cannot be resolved.
var ErrInvalidBrowserQuery = errors.New("invalid browser query")

// Targets is the resolved form of a browser support list
type Targets struct {
	Engines    []api.Engine // Minimum version per engine, sorted by name
	Unresolved []string     // Queries that need usage data and add no floor
}

// String renders the engines as "chrome105, firefox110, safari16".
func (t Targets) String() string {
	parts := make([]string, 0, len(t.Engines))
	for _, e := range t.Engines {
		parts = append(parts, engineName(e.Name)+e.Version)
	}
	return strings.Join(parts, ", ")
}

// browserEngines maps browserslist names to esbuild engines. Mobile
// variants share the engine of their desktop browser.
var browserEngines = map[string]api.EngineName{
	"chrome":         api.EngineChrome,
	"chromeandroid":  api.EngineChrome,
	"and_chr":        api.EngineChrome,
	"edge":           api.EngineEdge,
	"firefox":        api.EngineFirefox,
	"ff":             api.EngineFirefox,
	"firefoxandroid": api.EngineFirefox,
	"and_ff":         api.EngineFirefox,
	"safari":         api.EngineSafari,
	"ios":            api.EngineIOS,
	"ios_saf":        api.EngineIOS,
	"opera":          api.EngineOpera,
	"ie":             api.EngineIE,
	"explorer":       api.EngineIE,
	"node":           api.EngineNode,
}

// engineless are browserslist names esbuild has no engine for. Their
// queries are valid but add no floor.
var engineless = map[string]bool{
	"android":        true,
	"samsung":        true,
	"operamini":      true,
	"op_mini":        true,
	"operamobile":    true,
	"op_mob":         true,
	"ucandroid":      true,
	"and_uc":         true,
	"qqandroid":      true,
	"and_qq":         true,
	"baidu":          true,
	"kaios":          true,
	"blackberry":     true,
	"bb":             true,
	"explorermobile": true,
	"ie_mob":         true,
	"electron":       true,
}

var (
	// "Chrome >= 105", "Safari > 15", "Firefox 110"
	floorQuery = regexp.MustCompile(`^([A-Za-z_]+)\s*(>=|>)?\s*(\d+(?:\.\d+){0,2})$`)
	// "Chrome 100-105"
	rangeQuery = regexp.MustCompile(`^([A-Za-z_]+)\s+(\d+(?:\.\d+){0,2})\s*-\s*\d+(?:\.\d+){0,2}$`)
	// "Chrome < 120", "ie <= 11"
	ceilingQuery = regexp.MustCompile(`^([A-Za-z_]+)\s*(?:<=|<)\s*\d+(?:\.\d+){0,2}$`)
	// "Safari TP", "op_mini all", "Firefox ESR"
	namedVersionQuery = regexp.MustCompile(`^([A-Za-z_]+)\s+(?:tp|all|esr)$`)
	// "> 1%", ">= .5% in US", "> 5% in my stats"
	usageQuery = regexp.MustCompile(`^(>=|>|<=|<)\s*\d*\.?\d+%(\s+in\s+.+)?$`)
	// "cover 99.5%", "cover 99.5% in US"
	coverQuery = regexp.MustCompile(`^cover\s+\d*\.?\d+%(\s+in\s+.+)?$`)
	// "last 2 versions", "last 1 Chrome major version", "last 2 years"
	lastQuery = regexp.MustCompile(`^last\s+\d*\.?\d+\s+(?:[a-z_]+\s+)?(?:(?:major\s+)?versions?|years?)$`)
	// "unreleased versions", "unreleased Chrome versions"
	unreleasedQuery = regexp.MustCompile(`^unreleased\s+(?:[a-z_]+\s+)?versions$`)
	// "since 2020", "since 2020-05-01"
	sinceQuery = regexp.MustCompile(`^since\s+\d{4}(?:-\d{2}){0,2}$`)
	// "supports es6-module", "partially supports css-grid"
	supportsQuery = regexp.MustCompile(`^(?:fully\s+|partially\s+)?supports\s+\S+$`)
	// "extends browserslist-config-foo", "baseline widely available"
	externalQuery = regexp.MustCompile(`^(?:extends\s+\S+|baseline\s+.+|browserslist\s+config)$`)
)

// lifecycleQueries need release data and never add a version floor
var lifecycleQueries = map[string]bool{
	"defaults":                 true,
	"dead":                     true,
	"not dead":                 true,
	"maintained node versions": true,
	"current node":             true,
}

// ResolveBrowsers turns browserslist-style queries into esbuild engine targets.
//
// Version floors set the minimum engine version; when several name the same
// browser the lowest wins. A version range counts as a floor at its lower
// bound. Queries that need usage or release data, negations, ceilings and
// browsers esbuild has no engine for are accepted but only recorded in
// Unresolved. A query may hold several comma-separated or "or"-joined parts.
func ResolveBrowsers(queries []string) (Targets, error) {
	var targets Targets
	floors := make(map[api.EngineName]string)

	for _, raw := range queries {
		if strings.TrimSpace(raw) == "" {
			return Targets{}, fmt.Errorf("%w: empty query", ErrInvalidBrowserQuery)
		}
		for _, part := range splitQuery(raw) {
			query := strings.Join(strings.Fields(part), " ")
			if query == "" {
				return Targets{}, fmt.Errorf("%w: empty part in %q", ErrInvalidBrowserQuery, raw)
			}

			engine, version, floor, err := resolveQuery(query)
			if err != nil {
				return Targets{}, err
			}
			if !floor {
				targets.Unresolved = append(targets.Unresolved, query)
				continue
			}
			if current, seen := floors[engine]; !seen || compareVersions(version, current) < 0 {
				floors[engine] = version
			}
		}
	}

	for engine, version := range floors {
		targets.Engines = append(targets.Engines, api.Engine{Name: engine, Version: version})
	}
	sort.Slice(targets.Engines, func(i, j int) bool {
		return engineName(targets.Engines[i].Name) < engineName(targets.Engines[j].Name)
	})

	return targets, nil
}

// splitQuery splits "a, b or c" into its parts
func splitQuery(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		parts = append(parts, orSeparator.Split(p, -1)...)
	}
	return parts
}

var orSeparator = regexp.MustCompile(`(?i)\s+or\s+`)

// resolveQuery classifies one query. floor is false for queries that are
// valid but set no minimum version.
func resolveQuery(query string) (engine api.EngineName, version string, floor bool, err error) {
	lower := strings.ToLower(query)

	switch {
	case lifecycleQueries[lower], strings.HasPrefix(lower, "not "), strings.Contains(lower, " and "),
		usageQuery.MatchString(lower), coverQuery.MatchString(lower), lastQuery.MatchString(lower),
		unreleasedQuery.MatchString(lower), sinceQuery.MatchString(lower),
		supportsQuery.MatchString(lower), externalQuery.MatchString(lower):
		return 0, "", false, nil
	}

	var name string
	if m := namedVersionQuery.FindStringSubmatch(lower); m != nil {
		name = m[1]
	} else if m := ceilingQuery.FindStringSubmatch(lower); m != nil {
		name = m[1]
	}
	if name != "" {
		if _, ok := browserEngines[name]; !ok && !engineless[name] {
			return 0, "", false, fmt.Errorf("%w: unknown browser %q", ErrInvalidBrowserQuery, name)
		}
		return 0, "", false, nil
	}

	if m := rangeQuery.FindStringSubmatch(lower); m != nil {
		name, version = m[1], m[2]
	} else if m := floorQuery.FindStringSubmatch(lower); m != nil {
		name, version = m[1], m[3]
		if m[2] == ">" {
			version = nextMajor(version)
		}
	} else {
		return 0, "", false, fmt.Errorf("%w: %q", ErrInvalidBrowserQuery, query)
	}

	if engineless[name] {
		return 0, "", false, nil
	}
	engine, ok := browserEngines[name]
	if !ok {
		return 0, "", false, fmt.Errorf("%w: unknown browser %q", ErrInvalidBrowserQuery, name)
	}
	return engine, version, true, nil
}

// nextMajor returns the first major release after v: "15.4" -> "16"
func nextMajor(v string) string {
	major, _ := strconv.Atoi(strings.SplitN(v, ".", 2)[0])
	return strconv.Itoa(major + 1)
}

// compareVersions compares dotted numeric versions, missing parts count as zero
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

func engineName(name api.EngineName) string {
	switch name {
	case api.EngineChrome:
		return "chrome"
	case api.EngineEdge:
		return "edge"
	case api.EngineFirefox:
		return "firefox"
	case api.EngineIE:
		return "ie"
	case api.EngineIOS:
		return "ios"
	case api.EngineNode:
		return "node"
	case api.EngineOpera:
		return "opera"
	case api.EngineSafari:
		return "safari"
	default:
		return fmt.Sprintf("engine%d", name)
	}
}
