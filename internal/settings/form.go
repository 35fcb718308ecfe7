// Package settings implements the editable form state for the agent
// configuration: one JSON text buffer per field, validation, and the
// merge-and-persist flow against the profile service.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/profile"
	"github.com/brizzai/agent-settings/internal/store"
	"go.uber.org/zap"
)

// Field identifies one editable JSON buffer.
type Field int

const (
	FieldClaudeEnv Field = iota
	FieldClaudeCredentials
	FieldCodexEnv
)

// Fields lists all form fields in display order.
var Fields = []Field{FieldClaudeEnv, FieldClaudeCredentials, FieldCodexEnv}

// Title returns the user-facing name of the field.
func (f Field) Title() string {
	switch f {
	case FieldClaudeEnv:
		return "Claude Code environment variables"
	case FieldClaudeCredentials:
		return "Claude Code credentials"
	case FieldCodexEnv:
		return "Codex environment variables"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// DefaultBuffer returns the placeholder JSON text for a field, used when
// resetting an edited buffer back to its documented default.
func DefaultBuffer(f Field) string {
	switch f {
	case FieldClaudeEnv:
		return profile.IndentJSON(profile.DefaultClaudeCodeEnv())
	case FieldClaudeCredentials:
		return "{}"
	case FieldCodexEnv:
		return profile.IndentJSON(profile.DefaultCodexEnv())
	default:
		return "{}"
	}
}

// InvalidJSONMessage is the fixed per-field error shown for parse failures.
const InvalidJSONMessage = "Invalid JSON format"

// ErrValidation aborts a save when any buffer holds invalid JSON. No network
// call is made in that case.
var ErrValidation = errors.New("one or more fields contain invalid JSON")

// Form holds the editable text buffers. Buffers are exclusively owned by the
// form once editing starts; a cache refresh never overwrites them. The form
// is not safe for concurrent use: callers snapshot it with Settings before
// handing work to another goroutine.
type Form struct {
	buffers map[Field]string
	errs    map[Field]string
}

// NewForm seeds the buffers from normalized settings, rendered as indented
// JSON. Nil credentials render as null; the placeholder default renders as
// an empty object.
func NewForm(s profile.Settings) *Form {
	return &Form{
		buffers: map[Field]string{
			FieldClaudeEnv:         profile.IndentJSON(s.ClaudeCode.Env),
			FieldClaudeCredentials: profile.IndentJSON(s.ClaudeCode.Credentials),
			FieldCodexEnv:          profile.IndentJSON(s.Codex.Env),
		},
		errs: map[Field]string{},
	}
}

// SetField stores the edited text verbatim and synchronously re-validates
// that single field.
func (f *Form) SetField(field Field, text string) {
	f.buffers[field] = text
	f.Validate(field)
}

// Buffer returns the current text of a field.
func (f *Form) Buffer(field Field) string {
	return f.buffers[field]
}

// FieldError returns the validation message for a field, or "" when valid.
func (f *Form) FieldError(field Field) string {
	return f.errs[field]
}

// Validate checks that the buffer parses as JSON. Any JSON shape is accepted;
// there is no schema validation.
func (f *Form) Validate(field Field) bool {
	if !json.Valid([]byte(f.buffers[field])) {
		f.errs[field] = InvalidJSONMessage
		return false
	}
	delete(f.errs, field)
	return true
}

// ValidateAll re-validates every buffer and reports whether all are valid.
func (f *Form) ValidateAll() bool {
	valid := true
	for _, field := range Fields {
		if !f.Validate(field) {
			valid = false
		}
	}
	return valid
}

// Settings re-validates every buffer and, when all parse, returns the decoded
// current-shape settings. The returned value shares nothing with the form, so
// it can safely cross into a command goroutine.
func (f *Form) Settings() (profile.Settings, error) {
	if !f.ValidateAll() {
		return profile.Settings{}, ErrValidation
	}
	return profile.Settings{
		ClaudeCode: profile.ClaudeCodeConfig{
			Env:         profile.CoerceEnv(f.parse(FieldClaudeEnv)),
			Credentials: f.parse(FieldClaudeCredentials),
		},
		Codex: profile.CodexConfig{
			Env: profile.CoerceEnv(f.parse(FieldCodexEnv)),
		},
	}, nil
}

// Save re-validates all buffers and persists the decoded settings. On any
// failure nothing has been mutated beyond local text state, so retrying the
// save is always safe.
func (f *Form) Save(ctx context.Context, client store.Client, cache *store.Cache) (*profile.Profile, error) {
	settings, err := f.Settings()
	if err != nil {
		return nil, err
	}
	return SaveSettings(ctx, settings, client, cache)
}

// SaveSettings shallow-merges the settings over the profile's existing
// preferences (dropping the legacy codexCLI key), writes the merged document
// in a single update call and refreshes the cache. Saving requires a loaded
// profile: merging over an unknown document would erase every sibling
// preference key, so a cache that has never held a profile gets one re-fetch
// and the save is refused if that also fails.
func SaveSettings(ctx context.Context, settings profile.Settings, client store.Client, cache *store.Cache) (*profile.Profile, error) {
	p := cache.Profile()
	if p == nil {
		var err error
		if p, err = cache.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("profile not loaded, refusing to overwrite preferences: %w", err)
		}
	}
	if p == nil {
		return nil, errors.New("profile not loaded, refusing to overwrite preferences")
	}

	updated, err := client.UpdateProfile(ctx, store.UpdateRequest{
		Preferences: settings.MergeInto(p.Preferences),
	})
	if err != nil {
		logger.Error("failed to save agent settings", zap.Error(err))
		return nil, err
	}

	if _, err := cache.Refresh(ctx); err != nil {
		// The write itself succeeded; the stale cache is surfaced by the
		// cache's own error state.
		logger.Warn("profile refresh after save failed", zap.Error(err))
	}
	return updated, nil
}

// parse decodes a validated buffer. Buffers reach this point only after
// ValidateAll, so a decode error cannot occur.
func (f *Form) parse(field Field) interface{} {
	var v interface{}
	_ = json.Unmarshal([]byte(f.buffers[field]), &v)
	return v
}
