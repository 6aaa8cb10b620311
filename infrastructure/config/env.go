package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
)

// ${VAR}, ${VAR:-default}, ${VAR:?message}
var bracketPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// envExpander expands environment references in configuration text.
type envExpander struct {
	strict  bool
	lookup  func(string) (string, bool)
	missing []string
}

func newEnvExpander(strict bool, lookup func(string) (string, bool)) *envExpander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envExpander{strict: strict, lookup: lookup}
}

// Expand replaces every ${...} reference in input.
//   - ${VAR} is the value of VAR, or empty (an error when strict)
//   - ${VAR:-default} falls back to default when VAR is unset or empty
//   - ${VAR:?message} fails with message when VAR is unset or empty
//
// Bare $VAR is left alone so API keys and prompts may contain dollars.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := bracketPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := bracketPattern.FindStringSubmatch(match)
		name, modifier := groups[1], groups[2]
		value, ok := e.lookup(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if !ok || value == "" {
				return modifier[2:]
			}
		case strings.HasPrefix(modifier, ":?"):
			if !ok || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[2:]))
				return match
			}
		case !ok:
			if e.strict {
				e.missing = append(e.missing, name)
			}
			return ""
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands references, substituting empty strings for unset variables.
func ExpandEnv(input string) string {
	result, _ := newEnvExpander(false, nil).Expand(input)
	return result
}

// ExpandEnvStrict expands references and fails on any unset variable.
func ExpandEnvStrict(input string) (string, error) {
	return newEnvExpander(true, nil).Expand(input)
}

// Environment overrides applied after the file is parsed.
const (
	EnvProvider = "TOOLPLAN_ORACLE_PROVIDER"
	EnvModel    = "TOOLPLAN_ORACLE_MODEL"
	EnvAPIKey   = "TOOLPLAN_API_KEY"
	EnvBaseURL  = "TOOLPLAN_BASE_URL"
	EnvLogLevel = "TOOLPLAN_LOG_LEVEL"
)

// applyOverrides copies set TOOLPLAN_* variables onto cfg.
func applyOverrides(cfg *domainconfig.PlannerConfig, lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Oracle.Provider, EnvProvider)
	set(&cfg.Oracle.Model, EnvModel)
	set(&cfg.Oracle.APIKey, EnvAPIKey)
	set(&cfg.Oracle.BaseURL, EnvBaseURL)
	set(&cfg.Logging.Level, EnvLogLevel)
}
