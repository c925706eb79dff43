package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxFieldLength is the size limit of a rich-content field on the webhook side
	MaxFieldLength = 1024

	// DefaultAccentColor is used when the author has no member color
	DefaultAccentColor = "#535B62"

	// FooterLabel labels the notification timestamp
	FooterLabel = "Message date"

	// NoAttachments is rendered when a message carries no attachment
	NoAttachments = "None"
)

// Notification represents the payload pushed to the webhook for a matched message.
// It is built once, handed to the dispatcher and discarded.
type Notification struct {
	AuthorLine       string
	AuthorIconURL    string
	FooterLabel      string
	Timestamp        time.Time
	AccentColor      string
	ThumbnailURL     string
	ContentField     string
	AttachmentsField string
}

// BuildNotification builds the notification payload for a matched message
func BuildNotification(msg *IncomingMessage) *Notification {
	return &Notification{
		AuthorLine:       authorLine(msg),
		AuthorIconURL:    msg.AuthorAvatarURL,
		FooterLabel:      FooterLabel,
		Timestamp:        msg.CreatedAt,
		AccentColor:      accentColor(msg),
		ThumbnailURL:     msg.AuthorAvatarURL,
		ContentField:     TruncateField(msg.CleanContent, MaxFieldLength),
		AttachmentsField: attachmentsField(msg.AttachmentURLs),
	}
}

func authorLine(msg *IncomingMessage) string {
	if msg.ChannelType != ChannelTypeText {
		return fmt.Sprintf("%s sent a message with your name", msg.AuthorUsername)
	}

	displayName := "someone"
	if msg.MemberDisplayName != nil {
		displayName = *msg.MemberDisplayName
	}
	guildName := ""
	if msg.GuildName != nil {
		guildName = *msg.GuildName
	}
	return fmt.Sprintf("%s dropped your name in #%s in %s", displayName, msg.ChannelName, guildName)
}

func accentColor(msg *IncomingMessage) string {
	if msg.MemberColor != nil && *msg.MemberColor != "" {
		return *msg.MemberColor
	}
	return DefaultAccentColor
}

// attachmentsField lists every attachment URL once the first attachment carries one
func attachmentsField(urls []string) string {
	if len(urls) == 0 || urls[0] == "" {
		return NoAttachments
	}
	return strings.Join(urls, "\n")
}

// TruncateField keeps the first n characters of s
func TruncateField(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
