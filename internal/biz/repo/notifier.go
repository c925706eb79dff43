package repo

import (
	"context"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
)

// NotifierRepo delivers notifications to the outbound webhook
type NotifierRepo interface {
	// Send posts a text preamble and one notification. Delivery is at most once.
	Send(ctx context.Context, preamble string, n *domain.Notification) error
}
