package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/usecase"
)

// NotificationDispatcher starts delivery of a notification without blocking
type NotificationDispatcher interface {
	Dispatch(n *domain.Notification) bool
}

// Enricher fills display details of a message that is about to notify
type Enricher func(ctx context.Context, msg *domain.IncomingMessage)

// WatchService runs the mention watch pipeline for each incoming message
type WatchService struct {
	watchUC    *usecase.WatchUsecase
	dispatcher NotificationDispatcher
	log        zerolog.Logger
}

// NewWatchService creates a new watch service
func NewWatchService(watchUC *usecase.WatchUsecase, dispatcher NotificationDispatcher, log zerolog.Logger) *WatchService {
	return &WatchService{
		watchUC:    watchUC,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "watch_service").Logger(),
	}
}

// HandleMessage classifies msg and dispatches a notification if it triggers.
// enrich, if set, runs only for triggering messages before the notification
// is built. It reports whether a notification was handed to the dispatcher.
func (s *WatchService) HandleMessage(ctx context.Context, msg *domain.IncomingMessage, enrich Enricher) bool {
	if !s.watchUC.Classify(ctx, msg) {
		return false
	}
	if enrich != nil {
		enrich(ctx, msg)
	}
	n := domain.BuildNotification(msg)

	s.log.Info().
		Str("msg_id", msg.ID).
		Str("author_id", msg.AuthorID).
		Str("channel", msg.ChannelName).
		Msg("Message matched watch keywords")

	return s.dispatcher.Dispatch(n)
}
