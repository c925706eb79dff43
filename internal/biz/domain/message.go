package domain

import "time"

// ChannelType represents the kind of chat a message was posted in
type ChannelType string

const (
	ChannelTypeText   ChannelType = "text"   // group chat inside a workspace
	ChannelTypeDirect ChannelType = "direct" // one-to-one chat
	ChannelTypeOther  ChannelType = "other"
)

// IncomingMessage represents one chat message delivered by the intake loop
type IncomingMessage struct {
	ID                string
	AuthorID          string
	CleanContent      string // Text with mention placeholders replaced by names
	IsDirect          bool
	ChannelName       string
	ChannelType       ChannelType
	GuildName         *string
	GuildID           *string
	MemberDisplayName *string
	MemberColor       *string // Hex color, e.g. "#FF0000"
	AuthorUsername    string
	AuthorAvatarURL   string
	CreatedAt         time.Time
	AttachmentURLs    []string
	MentionedUserIDs  map[string]struct{}
}

// Mentions checks if the user was explicitly mentioned in the message
func (m *IncomingMessage) Mentions(userID string) bool {
	_, ok := m.MentionedUserIDs[userID]
	return ok
}

// IsFrom checks if the message was authored by the user
func (m *IncomingMessage) IsFrom(userID string) bool {
	return m.AuthorID == userID
}
