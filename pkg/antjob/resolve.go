package antjob

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Expand substitutes $VAR and ${VAR} references in the passed text against the
// given variables. An unknown reference (or anything else the expansion
// chokes on, like an embedded command substitution) is reported as an error so
// the caller can fall back to the raw text.
func Expand(text string, vars map[string]string) (string, error) {
	if text == "" {
		return "", nil
	}

	word, err := syntax.NewParser().Document(strings.NewReader(text))
	if err != nil {
		return "", eris.Wrap(err, "failed to parse the text for expansion")
	}

	cfg := &expand.Config{
		Env:     expand.ListEnviron(EnvSlice(vars)...),
		NoUnset: true,
	}

	result, err := expand.Document(cfg, word)
	if err != nil {
		return "", eris.Wrap(err, "failed to expand placeholders")
	}

	return result, nil
}

// resolveField expands one job field on a best-effort basis. Failures are only
// logged; the field keeps its raw text and other fields aren't affected.
func resolveField(ctx context.Context, field, text string, vars map[string]string) string {
	resolved, err := Expand(text, vars)
	if err != nil {
		log(ctx).Warn().
			Err(err).
			Str("field", field).
			Msg("placeholder expansion failed, keeping the raw text")
		return text
	}

	return resolved
}

// MergeEnv overlays the passed variables on top of the ambient set. Overrides
// win on conflicting keys; neither input is modified.
func MergeEnv(ambient, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(ambient)+len(overrides))
	for key, value := range ambient {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// ParseEnviron converts os.Environ() style KEY=VALUE pairs into a map.
// Malformed entries without a key are skipped.
func ParseEnviron(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if parts[0] == "" {
			continue
		}

		if len(parts) == 1 {
			env[parts[0]] = ""
		} else {
			env[parts[0]] = parts[1]
		}
	}
	return env
}

// EnvSlice flattens an environment map into sorted KEY=VALUE pairs.
func EnvSlice(env map[string]string) []string {
	pairs := make([]string, 0, len(env))
	for key, value := range env {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}

	sort.Strings(pairs)
	return pairs
}
