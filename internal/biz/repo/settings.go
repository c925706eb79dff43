package repo

import (
	"context"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
)

// SettingsRepo is the scoped key/value settings store interface.
// A missing key resolves to the supplied default, never to an error.
type SettingsRepo interface {
	// GetBool gets a boolean setting
	GetBool(ctx context.Context, scope domain.Scope, key string, def bool) (bool, error)

	// GetStrings gets a string list setting
	GetStrings(ctx context.Context, scope domain.Scope, key string, def []string) ([]string, error)

	// GetRaw gets the JSON encoding of a setting, ok is false if unset
	GetRaw(ctx context.Context, scope domain.Scope, key string) (raw string, ok bool, err error)

	// Set stores a JSON-encodable value
	Set(ctx context.Context, scope domain.Scope, key string, value any) error

	// Remove deletes a setting
	Remove(ctx context.Context, scope domain.Scope, key string) error

	// Clear deletes every setting of a scope
	Clear(ctx context.Context, scope domain.Scope) error

	Close() error
}
