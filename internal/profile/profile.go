// Package profile holds the user profile data model and the normalization
// rules for the agent settings stored in its preferences document.
package profile

// Profile is the user record owned by the profile service. The preferences
// document is a free-form JSON object used as a settings key-value store.
type Profile struct {
	ID          string                 `json:"id"`
	Email       string                 `json:"email,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// Preference keys of interest. KeyCodexCLI is the legacy location of the
// Codex config and is rewritten to KeyCodex on the next save.
const (
	KeyClaudeCode = "claudeCode"
	KeyCodex      = "codex"
	KeyCodexCLI   = "codexCLI"

	envKey         = "env"
	credentialsKey = "credentials"
)

// ClaudeCodeConfig is the current-shape configuration for the Claude Code CLI.
// Credentials is nil when unset; it is never persisted as an empty object.
type ClaudeCodeConfig struct {
	Env         map[string]string
	Credentials interface{}
}

// CodexConfig is the current-shape configuration for the Codex CLI.
type CodexConfig struct {
	Env map[string]string
}

// Settings bundles the normalized configuration for both agents.
type Settings struct {
	ClaudeCode ClaudeCodeConfig
	Codex      CodexConfig
}

// DefaultClaudeCodeEnv returns the placeholder environment shown when the
// profile has no Claude Code configuration yet.
func DefaultClaudeCodeEnv() map[string]string {
	return map[string]string{
		"ANTHROPIC_API_KEY": "",
	}
}

// DefaultCodexEnv returns the placeholder environment shown when the profile
// has no Codex configuration yet.
func DefaultCodexEnv() map[string]string {
	return map[string]string{
		"OPENAI_API_KEY":  "",
		"OPENAI_BASE_URL": "",
		"CODEX_HOME":      "",
	}
}
