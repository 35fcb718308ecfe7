package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/brizzai/agent-settings/internal/config"
	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStoreClient serves a canned profile and records every update it
// receives, so handler tests can assert on the exact persisted document.
// The first failGets fetches fail, simulating a recovering backend.
type fakeStoreClient struct {
	profile  *profile.Profile
	failGets int
	getErr   error
	gets     int
	updates  []store.UpdateRequest
}

func (f *fakeStoreClient) GetProfile(ctx context.Context) (*profile.Profile, error) {
	f.gets++
	if f.failGets > 0 {
		f.failGets--
		return nil, errors.New("profile service unavailable")
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.profile, nil
}

func (f *fakeStoreClient) UpdateProfile(ctx context.Context, req store.UpdateRequest) (*profile.Profile, error) {
	f.updates = append(f.updates, req)
	updated := *f.profile
	updated.Preferences = req.Preferences
	f.profile = &updated
	return &updated, nil
}

func newTestServer(t *testing.T, client store.Client) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:    "localhost",
			Port:    0,
			Mode:    config.ServerModeSTDIO,
			Name:    "Agent Settings Test",
			Version: "0.0.0-test",
		},
	}
	srv := NewServer(cfg, client, store.NewCache(client))
	require.NotNil(t, srv, "expected server instance, got nil")
	return srv
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected tool result content")
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestHandleGetSettings(t *testing.T) {
	client := &fakeStoreClient{
		profile: &profile.Profile{
			ID:    "u-1",
			Email: "dev@example.com",
			Preferences: map[string]interface{}{
				"theme": "dark",
				"claudeCode": map[string]interface{}{
					"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "sk-ant"},
					"credentials": map[string]interface{}{"token": "tok"},
				},
				"codexCLI": map[string]interface{}{"OPENAI_API_KEY": "sk-oa"},
			},
		},
	}
	srv := newTestServer(t, client)

	t.Run("both agents by default", func(t *testing.T) {
		result, err := srv.handleGetSettings(context.Background(), callRequest(nil))
		require.NoError(t, err)
		require.False(t, result.IsError)

		var payload map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))

		assert.Contains(t, payload, AgentClaudeCode)
		assert.Contains(t, payload, AgentCodex)
		claude := payload[AgentClaudeCode]
		assert.Equal(t, map[string]interface{}{"ANTHROPIC_API_KEY": "sk-ant"}, claude["env"])
		assert.Equal(t, map[string]interface{}{"token": "tok"}, claude["credentials"])
		// legacy codexCLI block resolves into the codex env
		assert.Equal(t, map[string]interface{}{"OPENAI_API_KEY": "sk-oa"}, payload[AgentCodex]["env"])
	})

	t.Run("single agent", func(t *testing.T) {
		result, err := srv.handleGetSettings(context.Background(), callRequest(map[string]interface{}{
			"agent": AgentCodex,
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
		assert.Equal(t, map[string]interface{}{"OPENAI_API_KEY": "sk-oa"}, payload["env"])
		assert.NotContains(t, payload, "credentials")
	})

	t.Run("unknown agent is a tool error", func(t *testing.T) {
		result, err := srv.handleGetSettings(context.Background(), callRequest(map[string]interface{}{
			"agent": "cursor",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("fetch failure is a tool error", func(t *testing.T) {
		failing := &fakeStoreClient{getErr: errors.New("profile service down")}
		srv := newTestServer(t, failing)

		result, err := srv.handleGetSettings(context.Background(), callRequest(nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestHandleGetSettings_RecoversAfterFailedFirstFetch(t *testing.T) {
	client := &fakeStoreClient{
		profile: &profile.Profile{
			ID: "u-1",
			Preferences: map[string]interface{}{
				"claudeCode": map[string]interface{}{
					"env": map[string]interface{}{"ANTHROPIC_API_KEY": "sk-ant"},
				},
			},
		},
		failGets: 2,
	}
	srv := newTestServer(t, client)

	result, err := srv.handleGetSettings(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "both fetch attempts fail while the backend is down")

	// The backend is back; calling the tool again must re-fetch instead of
	// replaying the cached startup error.
	result, err = srv.handleGetSettings(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 3, client.gets, "each failed call retried, the recovered call fetched once")

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, map[string]interface{}{"ANTHROPIC_API_KEY": "sk-ant"}, payload[AgentClaudeCode]["env"])
}

func TestHandleUpdateEnv(t *testing.T) {
	newClient := func() *fakeStoreClient {
		return &fakeStoreClient{
			profile: &profile.Profile{
				ID: "u-1",
				Preferences: map[string]interface{}{
					"theme": "dark",
					"claudeCode": map[string]interface{}{
						"env":         map[string]interface{}{"ANTHROPIC_API_KEY": "sk-ant"},
						"credentials": nil,
					},
					"codexCLI": map[string]interface{}{"OPENAI_API_KEY": "sk-oa"},
				},
			},
		}
	}

	t.Run("merges keys and persists once", func(t *testing.T) {
		client := newClient()
		srv := newTestServer(t, client)

		result, err := srv.handleUpdateEnv(context.Background(), callRequest(map[string]interface{}{
			"agent": AgentClaudeCode,
			"env": map[string]interface{}{
				"ANTHROPIC_MODEL": "claude-sonnet-4-0",
			},
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.Len(t, client.updates, 1)

		prefs := client.updates[0].Preferences
		claude, ok := prefs[profile.KeyClaudeCode].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, map[string]interface{}{
			"ANTHROPIC_API_KEY": "sk-ant",
			"ANTHROPIC_MODEL":   "claude-sonnet-4-0",
		}, claude["env"])
		// unrelated preferences survive, the legacy block does not
		assert.Equal(t, "dark", prefs["theme"])
		assert.NotContains(t, prefs, profile.KeyCodexCLI)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	})

	t.Run("codex update keeps migrated env", func(t *testing.T) {
		client := newClient()
		srv := newTestServer(t, client)

		result, err := srv.handleUpdateEnv(context.Background(), callRequest(map[string]interface{}{
			"agent": AgentCodex,
			"env": map[string]interface{}{
				"OPENAI_BASE_URL": "https://proxy.internal/v1",
			},
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.Len(t, client.updates, 1)

		codex, ok := client.updates[0].Preferences[profile.KeyCodex].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, map[string]interface{}{
			"OPENAI_API_KEY":  "sk-oa",
			"OPENAI_BASE_URL": "https://proxy.internal/v1",
		}, codex["env"])
	})

	t.Run("missing env is a tool error", func(t *testing.T) {
		client := newClient()
		srv := newTestServer(t, client)

		result, err := srv.handleUpdateEnv(context.Background(), callRequest(map[string]interface{}{
			"agent": AgentClaudeCode,
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Empty(t, client.updates)
	})

	t.Run("unknown agent is a tool error", func(t *testing.T) {
		client := newClient()
		srv := newTestServer(t, client)

		result, err := srv.handleUpdateEnv(context.Background(), callRequest(map[string]interface{}{
			"agent": "cursor",
			"env":   map[string]interface{}{"KEY": "value"},
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Empty(t, client.updates)
	})
}

// TestServer_ContextCancellation tests that the server shuts down properly
// when its context is cancelled.
func TestServer_ContextCancellation(t *testing.T) {
	// Find an available port for the server
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err, "Failed to create listener")
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close(), "Failed to close listener")

	client := &fakeStoreClient{profile: &profile.Profile{ID: "u-1"}}
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:    "localhost",
			Port:    port,
			Mode:    config.ServerModeSSE, // SSE mode exercises the HTTP shutdown path
			Name:    "Agent Settings Test",
			Version: "0.0.0-test",
		},
	}
	srv := NewServer(cfg, client, store.NewCache(client))
	require.NotNil(t, srv, "Failed to create server")

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Give the server time to start
	time.Sleep(100 * time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err, "Server should shut down cleanly on context cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down within timeout")
	}
}
