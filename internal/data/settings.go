package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// settingsRepo implements the settings repository.
// Each scope is one row holding a JSON object of key -> value.
type settingsRepo struct {
	db *sql.DB
	mu sync.Mutex // serializes read-modify-write of a scope row
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(dbPath string) (repo.SettingsRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			scope TEXT PRIMARY KEY,
			settings TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &settingsRepo{db: db}, nil
}

// load reads the settings object of a scope, empty if the scope has no row
func (r *settingsRepo) load(ctx context.Context, q querier, scope domain.Scope) (map[string]json.RawMessage, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT settings FROM settings WHERE scope = ?`, string(scope)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	values := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode settings for scope %s: %w", scope, err)
	}
	return values, nil
}

// get decodes one setting into out, reporting whether it was set
func (r *settingsRepo) get(ctx context.Context, scope domain.Scope, key string, out any) (bool, error) {
	values, err := r.load(ctx, r.db, scope)
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// GetBool gets a boolean setting
func (r *settingsRepo) GetBool(ctx context.Context, scope domain.Scope, key string, def bool) (bool, error) {
	var v bool
	ok, err := r.get(ctx, scope, key, &v)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// GetStrings gets a string list setting
func (r *settingsRepo) GetStrings(ctx context.Context, scope domain.Scope, key string, def []string) ([]string, error) {
	var v []string
	ok, err := r.get(ctx, scope, key, &v)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// GetRaw gets the JSON encoding of a setting
func (r *settingsRepo) GetRaw(ctx context.Context, scope domain.Scope, key string) (string, bool, error) {
	values, err := r.load(ctx, r.db, scope)
	if err != nil {
		return "", false, err
	}
	raw, ok := values[key]
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Set stores a setting
func (r *settingsRepo) Set(ctx context.Context, scope domain.Scope, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	return r.update(ctx, scope, func(values map[string]json.RawMessage) {
		values[key] = encoded
	})
}

// Remove deletes a setting
func (r *settingsRepo) Remove(ctx context.Context, scope domain.Scope, key string) error {
	return r.update(ctx, scope, func(values map[string]json.RawMessage) {
		delete(values, key)
	})
}

// Clear deletes every setting of a scope
func (r *settingsRepo) Clear(ctx context.Context, scope domain.Scope) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE scope = ?`, string(scope))
	if err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}

func (r *settingsRepo) update(ctx context.Context, scope domain.Scope, fn func(map[string]json.RawMessage)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	values, err := r.load(ctx, tx, scope)
	if err != nil {
		return err
	}
	fn(values)

	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings (scope, settings) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET settings = excluded.settings
	`, string(scope), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *settingsRepo) Close() error {
	return r.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
