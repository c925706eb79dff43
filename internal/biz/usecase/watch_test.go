package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
)

const testOwner = "ou_owner"

// Mock implementations

type mockSettingsRepo struct {
	values map[string]any
	err    error
}

func (m *mockSettingsRepo) GetBool(ctx context.Context, scope domain.Scope, key string, def bool) (bool, error) {
	if m.err != nil {
		return def, m.err
	}
	if v, ok := m.values[key].(bool); ok {
		return v, nil
	}
	return def, nil
}

func (m *mockSettingsRepo) GetStrings(ctx context.Context, scope domain.Scope, key string, def []string) ([]string, error) {
	if m.err != nil {
		return def, m.err
	}
	if v, ok := m.values[key].([]string); ok {
		return v, nil
	}
	return def, nil
}

func (m *mockSettingsRepo) GetRaw(ctx context.Context, scope domain.Scope, key string) (string, bool, error) {
	return "", false, nil
}

func (m *mockSettingsRepo) Set(ctx context.Context, scope domain.Scope, key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockSettingsRepo) Remove(ctx context.Context, scope domain.Scope, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mockSettingsRepo) Clear(ctx context.Context, scope domain.Scope) error {
	m.values = map[string]any{}
	return nil
}

func (m *mockSettingsRepo) Close() error {
	return nil
}

func newMessage(author, content string, mentions ...string) *domain.IncomingMessage {
	set := make(map[string]struct{})
	for _, id := range mentions {
		set[id] = struct{}{}
	}
	return &domain.IncomingMessage{
		AuthorID:         author,
		CleanContent:     content,
		ChannelType:      domain.ChannelTypeDirect,
		AuthorUsername:   author,
		MentionedUserIDs: set,
	}
}

func watchConfig(enabled bool, keywords, exclusions []string) domain.WatchConfig {
	return domain.WatchConfig{Enabled: enabled, Keywords: keywords, Exclusions: exclusions}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  *domain.IncomingMessage
		cfg  domain.WatchConfig
		want bool
	}{
		{
			name: "keyword match without exclusions",
			msg:  newMessage("ou_bob", "hey alice check this"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"none"}),
			want: true,
		},
		{
			name: "exclusion dominates keyword",
			msg:  newMessage("ou_bob", "alice is not here"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"not here"}),
			want: false,
		},
		{
			name: "disabled watcher",
			msg:  newMessage("ou_bob", "hey alice"),
			cfg:  watchConfig(false, []string{"alice"}, []string{"none"}),
			want: false,
		},
		{
			name: "owner's own message",
			msg:  newMessage(testOwner, "alice here"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"none"}),
			want: false,
		},
		{
			name: "owner explicitly mentioned",
			msg:  newMessage("ou_bob", "@alice ping", testOwner),
			cfg:  watchConfig(true, []string{"alice"}, []string{"none"}),
			want: false,
		},
		{
			name: "other user mentioned",
			msg:  newMessage("ou_bob", "@carol ask alice", "ou_carol"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"none"}),
			want: true,
		},
		{
			name: "no keyword match",
			msg:  newMessage("ou_bob", "hello world"),
			cfg:  watchConfig(true, []string{"alice", "ally"}, []string{"none"}),
			want: false,
		},
		{
			name: "any keyword suffices",
			msg:  newMessage("ou_bob", "where is ALLY"),
			cfg:  watchConfig(true, []string{"alice", "ally"}, nil),
			want: true,
		},
		{
			name: "empty keyword set matches nothing",
			msg:  newMessage("ou_bob", "alice"),
			cfg:  watchConfig(true, nil, nil),
			want: false,
		},
		{
			name: "any exclusion suffices",
			msg:  newMessage("ou_bob", "alice in wonderland"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"cooper", "WONDERLAND"}),
			want: false,
		},
		{
			name: "sentinel does not exclude the word none",
			msg:  newMessage("ou_bob", "none of this is for alice"),
			cfg:  watchConfig(true, []string{"alice"}, []string{"none"}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Classify(tt.msg, tt.cfg, testOwner, PatternLiteral)
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_OwnerNeverNotified(t *testing.T) {
	cfg := watchConfig(true, []string{"alice", "a", "e"}, nil)
	for _, content := range []string{"alice", "a", "everything", "ALICE ALICE"} {
		got, _ := Classify(newMessage(testOwner, content), cfg, testOwner, PatternLiteral)
		assert.False(t, got, content)
	}
}

func TestClassify_ReportsInvalidRegex(t *testing.T) {
	cfg := watchConfig(true, []string{"(alice", "alice"}, nil)
	got, errs := Classify(newMessage("ou_bob", "alice"), cfg, testOwner, PatternRegex)
	assert.True(t, got)
	assert.Len(t, errs, 1)
}

func TestWatchUsecase_LoadConfigDefaults(t *testing.T) {
	uc := NewWatchUsecase(&mockSettingsRepo{values: map[string]any{}}, testOwner, PatternLiteral, zerolog.Nop())

	cfg := uc.LoadConfig(context.Background())
	assert.Equal(t, domain.DefaultWatchConfig(), cfg)
}

func TestWatchUsecase_LoadConfigReadErrorUsesDefaults(t *testing.T) {
	repo := &mockSettingsRepo{values: map[string]any{}, err: errors.New("disk gone")}
	uc := NewWatchUsecase(repo, testOwner, PatternLiteral, zerolog.Nop())

	cfg := uc.LoadConfig(context.Background())
	assert.Equal(t, domain.DefaultWatchConfig(), cfg)
	assert.False(t, uc.Classify(context.Background(), newMessage("ou_bob", "username")))
}

func TestWatchUsecase_ReadsSettingsPerMessage(t *testing.T) {
	repo := &mockSettingsRepo{values: map[string]any{
		domain.KeyWatchToggle:   true,
		domain.KeyWatchKeywords: []string{"alice"},
	}}
	uc := NewWatchUsecase(repo, testOwner, PatternLiteral, zerolog.Nop())
	ctx := context.Background()

	msg := newMessage("ou_bob", "hey alice check this")
	assert.True(t, uc.Classify(ctx, msg))

	// Edits take effect on the next message
	repo.values[domain.KeyWatchExclusions] = []string{"check"}
	assert.False(t, uc.Classify(ctx, msg))

	repo.values[domain.KeyWatchExclusions] = []string{"none"}
	repo.values[domain.KeyWatchToggle] = false
	assert.False(t, uc.Classify(ctx, msg))
}

func TestWatchUsecase_Evaluate(t *testing.T) {
	repo := &mockSettingsRepo{values: map[string]any{
		domain.KeyWatchToggle:     true,
		domain.KeyWatchKeywords:   []string{"alice"},
		domain.KeyWatchExclusions: []string{"none"},
	}}
	uc := NewWatchUsecase(repo, testOwner, PatternLiteral, zerolog.Nop())
	ctx := context.Background()

	n := uc.Evaluate(ctx, newMessage("ou_bob", "hey alice check this"))
	require.NotNil(t, n)
	assert.Equal(t, "hey alice check this", n.ContentField)
	assert.Equal(t, "ou_bob sent a message with your name", n.AuthorLine)

	repo.values[domain.KeyWatchExclusions] = []string{"not here"}
	assert.Nil(t, uc.Evaluate(ctx, newMessage("ou_bob", "alice is not here")))
}
