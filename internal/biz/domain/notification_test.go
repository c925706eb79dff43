package domain

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestBuildNotification_TextChannel(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := &IncomingMessage{
		AuthorID:          "ou_bob",
		CleanContent:      "hey alice check this",
		ChannelName:       "general",
		ChannelType:       ChannelTypeText,
		GuildName:         strPtr("Acme"),
		GuildID:           strPtr("tenant-1"),
		MemberDisplayName: strPtr("Bob"),
		MemberColor:       strPtr("#FF0000"),
		AuthorUsername:    "bob",
		AuthorAvatarURL:   "https://x/bob.png",
		CreatedAt:         created,
	}

	n := BuildNotification(msg)

	if n.AuthorLine != "Bob dropped your name in #general in Acme" {
		t.Errorf("Unexpected author line: %q", n.AuthorLine)
	}
	if n.AccentColor != "#FF0000" {
		t.Errorf("Expected member color, got %q", n.AccentColor)
	}
	if n.ThumbnailURL != "https://x/bob.png" || n.AuthorIconURL != "https://x/bob.png" {
		t.Errorf("Expected avatar URL on thumbnail and author icon, got %q / %q", n.ThumbnailURL, n.AuthorIconURL)
	}
	if n.FooterLabel != "Message date" {
		t.Errorf("Unexpected footer label: %q", n.FooterLabel)
	}
	if !n.Timestamp.Equal(created) {
		t.Errorf("Expected timestamp %v, got %v", created, n.Timestamp)
	}
	if n.ContentField != "hey alice check this" {
		t.Errorf("Unexpected content field: %q", n.ContentField)
	}
	if n.AttachmentsField != "None" {
		t.Errorf("Expected None attachments, got %q", n.AttachmentsField)
	}
}

func TestBuildNotification_TextChannelWithoutMember(t *testing.T) {
	msg := &IncomingMessage{
		ChannelName:    "random",
		ChannelType:    ChannelTypeText,
		GuildName:      strPtr("Acme"),
		AuthorUsername: "bob",
	}

	n := BuildNotification(msg)

	if n.AuthorLine != "someone dropped your name in #random in Acme" {
		t.Errorf("Unexpected author line: %q", n.AuthorLine)
	}
	if n.AccentColor != DefaultAccentColor {
		t.Errorf("Expected fallback color, got %q", n.AccentColor)
	}
}

func TestBuildNotification_DirectChannel(t *testing.T) {
	for _, ct := range []ChannelType{ChannelTypeDirect, ChannelTypeOther} {
		msg := &IncomingMessage{
			ChannelType:       ct,
			IsDirect:          ct == ChannelTypeDirect,
			MemberDisplayName: strPtr("Bob"),
			AuthorUsername:    "bob",
		}

		n := BuildNotification(msg)

		if n.AuthorLine != "bob sent a message with your name" {
			t.Errorf("%s: unexpected author line: %q", ct, n.AuthorLine)
		}
	}
}

func TestBuildNotification_ContentTruncation(t *testing.T) {
	long := strings.Repeat("a", 2000)
	n := BuildNotification(&IncomingMessage{CleanContent: long})
	if n.ContentField != long[:1024] {
		t.Errorf("Expected first 1024 characters, got %d", len(n.ContentField))
	}

	short := strings.Repeat("b", 500)
	n = BuildNotification(&IncomingMessage{CleanContent: short})
	if n.ContentField != short {
		t.Errorf("Expected content unchanged, got %d characters", len(n.ContentField))
	}
}

func TestTruncateField_CountsCharacters(t *testing.T) {
	s := strings.Repeat("名", 1030)
	got := TruncateField(s, 1024)
	if len([]rune(got)) != 1024 {
		t.Errorf("Expected 1024 characters, got %d", len([]rune(got)))
	}
}

func TestBuildNotification_Attachments(t *testing.T) {
	tests := []struct {
		name string
		urls []string
		want string
	}{
		{"no attachments", nil, "None"},
		{"single attachment", []string{"https://x/a.png"}, "https://x/a.png"},
		{"multiple attachments", []string{"https://x/a.png", "https://x/b.png"}, "https://x/a.png\nhttps://x/b.png"},
		{"first attachment without url", []string{"", "https://x/b.png"}, "None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := BuildNotification(&IncomingMessage{AttachmentURLs: tt.urls})
			if n.AttachmentsField != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, n.AttachmentsField)
			}
		})
	}
}
