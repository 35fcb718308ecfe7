package server

import (
	"context"
	"fmt"

	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Agent identifiers accepted by the settings tools.
const (
	AgentClaudeCode = "claude-code"
	AgentCodex      = "codex"
)

func getSettingsTool() mcp.Tool {
	return mcp.NewTool("get_agent_settings",
		mcp.WithDescription("Read the environment variables and credentials configured for the code agent CLIs on the user profile"),
		mcp.WithString("agent",
			mcp.Description("Agent to read: claude-code or codex. Omit to read both."),
		),
	)
}

func updateEnvTool() mcp.Tool {
	return mcp.NewTool("update_agent_env",
		mcp.WithDescription("Set or overwrite environment variables for one code agent CLI and persist them to the user profile"),
		mcp.WithString("agent",
			mcp.Required(),
			mcp.Description("Agent to update: claude-code or codex"),
		),
		mcp.WithObject("env",
			mcp.Required(),
			mcp.Description("Environment variables to set; values must be strings"),
		),
	)
}

// loadProfile returns the cached profile, re-fetching when the cache holds an
// error or nothing at all. A transient backend outage at startup must not
// stick to every later tool call; calling the tool again is the retry.
func (s *Server) loadProfile(ctx context.Context) (*profile.Profile, error) {
	if p, err := s.cache.Get(ctx); err == nil && p != nil {
		return p, nil
	}
	return s.cache.Refresh(ctx)
}

// handleGetSettings resolves the current settings through the cache and
// returns them as indented JSON.
func (s *Server) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.loadProfile(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}

	var prefs map[string]interface{}
	if p != nil {
		prefs = p.Preferences
	}
	resolved := profile.Normalize(prefs)

	args := request.GetArguments()
	agent, _ := args["agent"].(string)

	var payload interface{}
	switch agent {
	case AgentClaudeCode:
		payload = claudeCodePayload(resolved)
	case AgentCodex:
		payload = codexPayload(resolved)
	case "":
		payload = map[string]interface{}{
			AgentClaudeCode: claudeCodePayload(resolved),
			AgentCodex:      codexPayload(resolved),
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown agent %q, expected %q or %q", agent, AgentClaudeCode, AgentCodex)), nil
	}

	return mcp.NewToolResultText(profile.IndentJSON(payload)), nil
}

// handleUpdateEnv merges the given env keys into one agent's environment and
// persists the result through the same merge-and-write path as the editor.
func (s *Server) handleUpdateEnv(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	agent, _ := args["agent"].(string)
	env := profile.CoerceEnv(args["env"])
	if len(env) == 0 {
		return mcp.NewToolResultError("env must be a non-empty object of string values"), nil
	}

	p, err := s.loadProfile(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load profile: %v", err)), nil
	}
	var prefs map[string]interface{}
	if p != nil {
		prefs = p.Preferences
	}
	resolved := profile.Normalize(prefs)

	var target map[string]string
	switch agent {
	case AgentClaudeCode:
		target = resolved.ClaudeCode.Env
	case AgentCodex:
		target = resolved.Codex.Env
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown agent %q, expected %q or %q", agent, AgentClaudeCode, AgentCodex)), nil
	}
	for k, v := range env {
		target[k] = v
	}

	updated, err := s.client.UpdateProfile(ctx, store.UpdateRequest{
		Preferences: resolved.MergeInto(prefs),
	})
	if err != nil {
		logger.Error("Failed to persist agent env update", zap.String("agent", agent), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save settings: %v", err)), nil
	}
	if _, err := s.cache.Refresh(ctx); err != nil {
		logger.Warn("Profile refresh after update failed", zap.Error(err))
	}

	logger.Info("Updated agent environment",
		zap.String("agent", agent),
		zap.Int("keys", len(env)),
	)
	return mcp.NewToolResultText(profile.IndentJSON(profile.Normalize(updated.Preferences))), nil
}

func claudeCodePayload(s profile.Settings) map[string]interface{} {
	payload := map[string]interface{}{
		"env":         s.ClaudeCode.Env,
		"credentials": nil,
	}
	if profile.MeaningfulCredentials(s.ClaudeCode.Credentials) {
		payload["credentials"] = s.ClaudeCode.Credentials
	}
	return payload
}

func codexPayload(s profile.Settings) map[string]interface{} {
	return map[string]interface{}{
		"env": s.Codex.Env,
	}
}
