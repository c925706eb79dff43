package data

import (
	"context"
	"time"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
	"github.com/DevRickLin/feishu-watchbot/internal/infra/webhook"
)

// notifierRepo implements the notifier repository over a webhook
type notifierRepo struct {
	client *webhook.Client
}

// NewNotifierRepo creates a new webhook notifier repository
func NewNotifierRepo(client *webhook.Client) repo.NotifierRepo {
	return &notifierRepo{client: client}
}

// Send posts the preamble and the notification as one embed
func (r *notifierRepo) Send(ctx context.Context, preamble string, n *domain.Notification) error {
	return r.client.Execute(ctx, &webhook.Message{
		Content: preamble,
		Embeds:  []webhook.Embed{toEmbed(n)},
		// Only user mentions may ping, never @everyone
		AllowedMentions: &webhook.AllowedMentions{Parse: []string{"users"}},
	})
}

func toEmbed(n *domain.Notification) webhook.Embed {
	color, err := webhook.ParseColor(n.AccentColor)
	if err != nil {
		color, _ = webhook.ParseColor(domain.DefaultAccentColor)
	}

	embed := webhook.Embed{
		Author: &webhook.EmbedAuthor{Name: domain.TruncateField(n.AuthorLine, webhook.MaxAuthorNameLength), IconURL: n.AuthorIconURL},
		Footer: &webhook.EmbedFooter{Text: n.FooterLabel},
		Color:  color,
		Fields: []webhook.EmbedField{
			{Name: "Message Content", Value: n.ContentField},
			{Name: "Message Attachments", Value: n.AttachmentsField},
		},
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	if n.ThumbnailURL != "" {
		embed.Thumbnail = &webhook.EmbedThumbnail{URL: n.ThumbnailURL}
	}
	return embed
}
