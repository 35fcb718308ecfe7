package profile

import (
	"encoding/json"
	"fmt"
)

// Normalize resolves a possibly-legacy preferences document into the current
// settings shape for both agents. It is pure: the input document is never
// mutated. The resolution order for each agent is fixed:
//
//	claudeCode: current shape (has env key) > legacy flat map > defaults
//	codex:      codex.env > codex wrapped as env > legacy codexCLI > defaults
func Normalize(prefs map[string]interface{}) Settings {
	return Settings{
		ClaudeCode: normalizeClaudeCode(prefs),
		Codex:      normalizeCodex(prefs),
	}
}

func normalizeClaudeCode(prefs map[string]interface{}) ClaudeCodeConfig {
	raw, ok := asMap(prefs[KeyClaudeCode])
	if !ok {
		// No config at all: placeholder env, empty credentials object. The
		// empty object is rendered for editing, but it is not meaningful and
		// is persisted as null.
		return ClaudeCodeConfig{
			Env:         DefaultClaudeCodeEnv(),
			Credentials: map[string]interface{}{},
		}
	}

	if _, hasEnv := raw[envKey]; hasEnv {
		// Current shape: env wrapper present, credentials taken as-is when
		// meaningful. A legacy flat map never contains an env entry.
		cfg := ClaudeCodeConfig{Env: map[string]string{}}
		if env, ok := asMap(raw[envKey]); ok {
			cfg.Env = asStringMap(env)
		}
		if creds := raw[credentialsKey]; MeaningfulCredentials(creds) {
			cfg.Credentials = creds
		}
		return cfg
	}

	// Legacy flat map: every entry is an environment variable, except a
	// credentials entry mixed in, which is split out.
	return legacyClaudeCode(raw)
}

func legacyClaudeCode(raw map[string]interface{}) ClaudeCodeConfig {
	env := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == credentialsKey {
			continue
		}
		env[k] = stringify(v)
	}
	cfg := ClaudeCodeConfig{Env: env}
	if creds := raw[credentialsKey]; MeaningfulCredentials(creds) {
		cfg.Credentials = creds
	}
	return cfg
}

func normalizeCodex(prefs map[string]interface{}) CodexConfig {
	if raw, ok := asMap(prefs[KeyCodex]); ok {
		if env, hasEnv := asMap(raw[envKey]); hasEnv {
			return CodexConfig{Env: asStringMap(env)}
		}
		// Stored without the env wrapper: the whole value is the environment.
		return CodexConfig{Env: asStringMap(raw)}
	}
	if raw, ok := asMap(prefs[KeyCodexCLI]); ok {
		// Legacy flat map under codexCLI; the key is dropped on the next save.
		return CodexConfig{Env: asStringMap(raw)}
	}
	return CodexConfig{Env: DefaultCodexEnv()}
}

// MeaningfulCredentials reports whether a credentials value counts as
// configured. Nil, empty strings and empty objects are placeholders; anything
// else is meaningful. The predicate gates both display classification and
// what gets persisted.
func MeaningfulCredentials(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// MergeInto builds the current-shape preference entries for both agents and
// shallow-merges them over an existing preferences document. The input
// document is not mutated. The legacy codexCLI key is always dropped, and
// non-meaningful Claude Code credentials are persisted as an explicit null.
func (s Settings) MergeInto(prefs map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(prefs)+2)
	for k, v := range prefs {
		merged[k] = v
	}

	claude := map[string]interface{}{
		envKey:         toDocument(s.ClaudeCode.Env),
		credentialsKey: nil,
	}
	if MeaningfulCredentials(s.ClaudeCode.Credentials) {
		claude[credentialsKey] = s.ClaudeCode.Credentials
	}
	merged[KeyClaudeCode] = claude
	merged[KeyCodex] = map[string]interface{}{
		envKey: toDocument(s.Codex.Env),
	}
	delete(merged, KeyCodexCLI)

	return merged
}

// IndentJSON renders a value as indented JSON text for display and editing.
func IndentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CoerceEnv turns a decoded JSON value into a flat env map, the same way
// normalization treats env entries. Non-object values coerce to an empty map.
func CoerceEnv(v interface{}) map[string]string {
	if m, ok := asMap(v); ok {
		return asStringMap(m)
	}
	return map[string]string{}
}

// toDocument widens a string map into the generic form it takes after a JSON
// round-trip, so that merged documents normalize identically before and after
// a trip through the backend.
func toDocument(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// asMap narrows a preference value to a JSON object.
func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// asStringMap coerces a JSON object into a flat string map. Env values are
// strings in practice; anything else is rendered with its JSON-ish literal.
func asStringMap(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
