package profile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_ClaudeCode(t *testing.T) {
	tests := []struct {
		name      string
		prefs     map[string]interface{}
		wantEnv   map[string]string
		wantCreds interface{}
	}{
		{
			name: "Legacy flat map with meaningful credentials is split",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"ANTHROPIC_API_KEY": "x",
					"credentials":       map[string]interface{}{"token": "t"},
				},
			},
			wantEnv:   map[string]string{"ANTHROPIC_API_KEY": "x"},
			wantCreds: map[string]interface{}{"token": "t"},
		},
		{
			name: "Legacy flat map with empty-object credentials resolves to nil",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"ANTHROPIC_API_KEY": "x",
					"credentials":       map[string]interface{}{},
				},
			},
			wantEnv:   map[string]string{"ANTHROPIC_API_KEY": "x"},
			wantCreds: nil,
		},
		{
			name: "Legacy flat map with empty-string credentials resolves to nil",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"ANTHROPIC_API_KEY": "x",
					"credentials":       "",
				},
			},
			wantEnv:   map[string]string{"ANTHROPIC_API_KEY": "x"},
			wantCreds: nil,
		},
		{
			name: "Legacy flat map without credentials",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"ANTHROPIC_API_KEY":  "x",
					"ANTHROPIC_BASE_URL": "https://example.test",
				},
			},
			wantEnv: map[string]string{
				"ANTHROPIC_API_KEY":  "x",
				"ANTHROPIC_BASE_URL": "https://example.test",
			},
			wantCreds: nil,
		},
		{
			name: "Current shape is used as-is",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "y"},
					"credentials": map[string]interface{}{"token": "t"},
				},
			},
			wantEnv:   map[string]string{"ANTHROPIC_API_KEY": "y"},
			wantCreds: map[string]interface{}{"token": "t"},
		},
		{
			name: "Current shape with null credentials",
			prefs: map[string]interface{}{
				KeyClaudeCode: map[string]interface{}{
					"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "y"},
					"credentials": nil,
				},
			},
			wantEnv:   map[string]string{"ANTHROPIC_API_KEY": "y"},
			wantCreds: nil,
		},
		{
			name:      "Missing config falls back to placeholder env and empty credentials",
			prefs:     map[string]interface{}{},
			wantEnv:   DefaultClaudeCodeEnv(),
			wantCreds: map[string]interface{}{},
		},
		{
			name:      "Nil preferences document",
			prefs:     nil,
			wantEnv:   DefaultClaudeCodeEnv(),
			wantCreds: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.prefs).ClaudeCode
			assert.Equal(t, tt.wantEnv, got.Env)
			assert.Equal(t, tt.wantCreds, got.Credentials)
		})
	}
}

func TestNormalize_Codex(t *testing.T) {
	tests := []struct {
		name    string
		prefs   map[string]interface{}
		wantEnv map[string]string
	}{
		{
			name: "Current shape with env wrapper",
			prefs: map[string]interface{}{
				KeyCodex: map[string]interface{}{
					"env": map[string]interface{}{"OPENAI_API_KEY": "k"},
				},
			},
			wantEnv: map[string]string{"OPENAI_API_KEY": "k"},
		},
		{
			name: "Codex without env wrapper is wrapped",
			prefs: map[string]interface{}{
				KeyCodex: map[string]interface{}{"OPENAI_API_KEY": "k"},
			},
			wantEnv: map[string]string{"OPENAI_API_KEY": "k"},
		},
		{
			name: "Legacy codexCLI flat map is wrapped",
			prefs: map[string]interface{}{
				KeyCodexCLI: map[string]interface{}{"OPENAI_API_KEY": "legacy"},
			},
			wantEnv: map[string]string{"OPENAI_API_KEY": "legacy"},
		},
		{
			name: "Codex wins over legacy codexCLI",
			prefs: map[string]interface{}{
				KeyCodex: map[string]interface{}{
					"env": map[string]interface{}{"OPENAI_API_KEY": "new"},
				},
				KeyCodexCLI: map[string]interface{}{"OPENAI_API_KEY": "old"},
			},
			wantEnv: map[string]string{"OPENAI_API_KEY": "new"},
		},
		{
			name:    "Missing config falls back to the three placeholder keys",
			prefs:   map[string]interface{}{},
			wantEnv: DefaultCodexEnv(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.prefs).Codex
			assert.Equal(t, tt.wantEnv, got.Env)
		})
	}
}

func TestMeaningfulCredentials(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"Nil", nil, false},
		{"Empty string", "", false},
		{"Empty object", map[string]interface{}{}, false},
		{"Non-empty string", "token", true},
		{"Non-empty object", map[string]interface{}{"token": "t"}, true},
		{"Number", float64(1), true},
		{"Boolean false", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeaningfulCredentials(tt.value))
		})
	}
}

func TestMergeInto(t *testing.T) {
	settings := Settings{
		ClaudeCode: ClaudeCodeConfig{
			Env:         map[string]string{"ANTHROPIC_API_KEY": "x"},
			Credentials: map[string]interface{}{"token": "t"},
		},
		Codex: CodexConfig{
			Env: map[string]string{"OPENAI_API_KEY": "k"},
		},
	}
	prefs := map[string]interface{}{
		"theme":     "dark",
		KeyCodexCLI: map[string]interface{}{"OPENAI_API_KEY": "old"},
	}

	merged := settings.MergeInto(prefs)

	// Unrelated keys survive the shallow merge; the legacy key does not.
	assert.Equal(t, "dark", merged["theme"])
	assert.NotContains(t, merged, KeyCodexCLI)
	// The input document is not mutated.
	assert.Contains(t, prefs, KeyCodexCLI)

	want := map[string]interface{}{
		"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "x"},
		"credentials": map[string]interface{}{"token": "t"},
	}
	if diff := cmp.Diff(want, merged[KeyClaudeCode]); diff != "" {
		t.Errorf("claudeCode mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeInto_NonMeaningfulCredentialsPersistAsNull(t *testing.T) {
	settings := Settings{
		ClaudeCode: ClaudeCodeConfig{
			Env:         map[string]string{"ANTHROPIC_API_KEY": "x"},
			Credentials: map[string]interface{}{},
		},
		Codex: CodexConfig{Env: map[string]string{"OPENAI_API_KEY": "k"}},
	}

	merged := settings.MergeInto(nil)

	claude, ok := merged[KeyClaudeCode].(map[string]interface{})
	assert.True(t, ok)
	assert.Contains(t, claude, "credentials")
	assert.Nil(t, claude["credentials"])
}

func TestNormalizeMergeRoundTrip(t *testing.T) {
	// Repeated save with no further edits is idempotent: normalizing the
	// merged document yields the same settings again.
	docs := []map[string]interface{}{
		{
			KeyClaudeCode: map[string]interface{}{
				"ANTHROPIC_API_KEY": "x",
				"credentials":       map[string]interface{}{"token": "t"},
			},
			KeyCodexCLI: map[string]interface{}{"OPENAI_API_KEY": "legacy"},
		},
		{},
		{
			KeyClaudeCode: map[string]interface{}{
				"env": map[string]interface{}{"A": "1"},
			},
			KeyCodex: map[string]interface{}{"OPENAI_API_KEY": "k"},
		},
	}

	for _, doc := range docs {
		first := Normalize(doc)
		merged := first.MergeInto(doc)
		second := Normalize(merged)

		// The default empty credentials object is rendered but persisted as
		// null, so compare through the meaningful predicate.
		assert.Equal(t, first.ClaudeCode.Env, second.ClaudeCode.Env)
		assert.Equal(t, first.Codex.Env, second.Codex.Env)
		assert.Equal(t,
			MeaningfulCredentials(first.ClaudeCode.Credentials),
			MeaningfulCredentials(second.ClaudeCode.Credentials),
		)

		// And a second merge changes nothing.
		if diff := cmp.Diff(merged, second.MergeInto(merged)); diff != "" {
			t.Errorf("second save drifted (-first +second):\n%s", diff)
		}
	}
}

func TestIndentJSON(t *testing.T) {
	assert.Equal(t, "null", IndentJSON(nil))
	assert.Equal(t, "{\n  \"A\": \"1\"\n}", IndentJSON(map[string]string{"A": "1"}))
}
