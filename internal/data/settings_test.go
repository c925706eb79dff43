package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
)

func newTestSettingsRepo(t *testing.T) repo.SettingsRepo {
	t.Helper()
	r, err := NewSettingsRepo(filepath.Join(t.TempDir(), "nested", "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSettingsRepo_Defaults(t *testing.T) {
	r := newTestSettingsRepo(t)
	ctx := context.Background()

	enabled, err := r.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, false)
	require.NoError(t, err)
	assert.False(t, enabled)

	keywords, err := r.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchKeywords, domain.DefaultWatchKeywords())
	require.NoError(t, err)
	assert.Equal(t, []string{"username", "nickname"}, keywords)

	_, ok, err := r.GetRaw(ctx, domain.GlobalScope, domain.KeyWatchKeywords)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsRepo_SetGetRemove(t *testing.T) {
	r := newTestSettingsRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, domain.GlobalScope, domain.KeyWatchToggle, true))
	require.NoError(t, r.Set(ctx, domain.GlobalScope, domain.KeyWatchKeywords, []string{"alice", "ally"}))

	enabled, err := r.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, false)
	require.NoError(t, err)
	assert.True(t, enabled)

	keywords, err := r.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchKeywords, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "ally"}, keywords)

	raw, ok, err := r.GetRaw(ctx, domain.GlobalScope, domain.KeyWatchKeywords)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `["alice","ally"]`, raw)

	require.NoError(t, r.Remove(ctx, domain.GlobalScope, domain.KeyWatchKeywords))
	keywords, err = r.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchKeywords, []string{"fallback"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, keywords)

	// Other keys survive a remove
	enabled, err = r.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, false)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSettingsRepo_ScopesAreIndependent(t *testing.T) {
	r := newTestSettingsRepo(t)
	ctx := context.Background()
	guild := domain.Scope("tenant-1")

	require.NoError(t, r.Set(ctx, guild, domain.KeyWatchToggle, true))

	enabled, err := r.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, false)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, r.Clear(ctx, guild))
	enabled, err = r.GetBool(ctx, guild, domain.KeyWatchToggle, false)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSettingsRepo_TypeMismatchReturnsDefault(t *testing.T) {
	r := newTestSettingsRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, domain.GlobalScope, domain.KeyWatchToggle, "yes"))

	enabled, err := r.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, false)
	assert.Error(t, err)
	assert.False(t, enabled)
}

func TestSettingsRepo_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	r, err := NewSettingsRepo(path)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, domain.GlobalScope, domain.KeyWatchExclusions, []string{"not here"}))
	require.NoError(t, r.Close())

	r, err = NewSettingsRepo(path)
	require.NoError(t, err)
	defer r.Close()

	exclusions, err := r.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchExclusions, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"not here"}, exclusions)
}
