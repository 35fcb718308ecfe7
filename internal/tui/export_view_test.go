package tui

import (
	"os"
	"testing"

	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestExportSettingsToYamlFile(t *testing.T) {
	// Create a temporary file with random name
	tempFile, err := os.CreateTemp("", "test-export-*.yaml")
	assert.NoError(t, err)
	defer func() {
		if closeErr := tempFile.Close(); closeErr != nil {
			t.Errorf("Failed to close temporary file: %v", closeErr)
		}
		if err := os.Remove(tempFile.Name()); err != nil {
			t.Errorf("Failed to remove temporary file: %v", err)
		}
	}()

	testCases := []struct {
		name     string
		settings profile.Settings
		expected map[string]interface{}
	}{
		{
			name: "Meaningful credentials are exported",
			settings: profile.Settings{
				ClaudeCode: profile.ClaudeCodeConfig{
					Env:         map[string]string{"ANTHROPIC_API_KEY": "x"},
					Credentials: map[string]interface{}{"token": "t"},
				},
				Codex: profile.CodexConfig{
					Env: map[string]string{"OPENAI_API_KEY": "k"},
				},
			},
			expected: map[string]interface{}{
				"claude_code": map[string]interface{}{
					"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "x"},
					"credentials": map[string]interface{}{"token": "t"},
				},
				"codex": map[string]interface{}{
					"env": map[string]interface{}{"OPENAI_API_KEY": "k"},
				},
			},
		},
		{
			name: "Placeholder credentials are omitted",
			settings: profile.Settings{
				ClaudeCode: profile.ClaudeCodeConfig{
					Env:         map[string]string{"ANTHROPIC_API_KEY": ""},
					Credentials: map[string]interface{}{},
				},
				Codex: profile.CodexConfig{
					Env: map[string]string{"OPENAI_API_KEY": ""},
				},
			},
			expected: map[string]interface{}{
				"claude_code": map[string]interface{}{
					"env": map[string]interface{}{"ANTHROPIC_API_KEY": ""},
				},
				"codex": map[string]interface{}{
					"env": map[string]interface{}{"OPENAI_API_KEY": ""},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// When: Export to YAML
			err = ExportSettingsToYamlFile(tc.settings, tempFile.Name())
			assert.NoError(t, err)

			// Then: Read and verify the file content
			actualYaml := readYamlFile(t, tempFile.Name())

			diff := cmp.Diff(tc.expected, actualYaml, cmpopts.EquateEmpty())
			assert.True(t, diff == "", diff)
		})
	}
}

// readYamlFile reads and parses a YAML file, failing the test if any errors occur
func readYamlFile(t *testing.T, filePath string) map[string]interface{} {
	yamlData, err := os.ReadFile(filePath)
	assert.NoError(t, err)

	var result map[string]interface{}
	err = yaml.Unmarshal(yamlData, &result)
	assert.NoError(t, err)

	return result
}
