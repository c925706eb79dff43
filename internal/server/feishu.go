package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/infra/feishu"
	"github.com/DevRickLin/feishu-watchbot/internal/service"
)

const (
	// seenTTL is how long a message id is remembered for deduplication
	seenTTL = 5 * time.Minute

	// lookupTimeout bounds the chat/user lookups done per message
	lookupTimeout = 5 * time.Second
)

// ChatDirectory resolves chat and user details for incoming messages
type ChatDirectory interface {
	GetChatInfo(ctx context.Context, chatID string) (*feishu.ChatInfo, error)
	GetChatMembers(ctx context.Context, chatID string) ([]*feishu.ChatMember, error)
	GetUser(ctx context.Context, openID string) (*feishu.User, error)
}

// MessageHandler processes one incoming message
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *domain.IncomingMessage, enrich service.Enricher) bool
}

// WatchServer feeds Feishu messages into the mention watch pipeline
type WatchServer struct {
	feishuClient  *feishu.Client
	directory     ChatDirectory
	watchSvc      MessageHandler
	dispatcher    *service.Dispatcher
	workspaceName string
	log           zerolog.Logger

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewWatchServer creates a new watch server
func NewWatchServer(
	feishuClient *feishu.Client,
	watchSvc MessageHandler,
	dispatcher *service.Dispatcher,
	workspaceName string,
	log zerolog.Logger,
) *WatchServer {
	return &WatchServer{
		feishuClient:  feishuClient,
		directory:     feishuClient,
		watchSvc:      watchSvc,
		dispatcher:    dispatcher,
		workspaceName: workspaceName,
		log:           log.With().Str("component", "server").Logger(),
		seenMsgs:      make(map[string]time.Time),
	}
}

// Start runs the intake loop until ctx is done
func (s *WatchServer) Start(ctx context.Context) error {
	s.feishuClient.OnMessage(func(msg *feishu.Message) {
		s.handleMessage(ctx, msg)
	})
	return s.feishuClient.Start(ctx)
}

// Stop waits for in-flight notifications
func (s *WatchServer) Stop(ctx context.Context) error {
	return s.dispatcher.Close(ctx)
}

// handleMessage handles one Feishu message
func (s *WatchServer) handleMessage(ctx context.Context, msg *feishu.Message) {
	if s.isMessageSeen(msg.MsgID) {
		s.log.Debug().Str("msg_id", msg.MsgID).Msg("Duplicate message ignored")
		return
	}
	s.markMessageSeen(msg.MsgID)

	incoming := s.toIncoming(msg)
	s.watchSvc.HandleMessage(ctx, incoming, func(ctx context.Context, in *domain.IncomingMessage) {
		lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
		defer cancel()
		s.enrich(lookupCtx, msg.ChatID, in)
	})
}

// toIncoming converts a Feishu message into the watcher's message model
// without any API lookups
func (s *WatchServer) toIncoming(msg *feishu.Message) *domain.IncomingMessage {
	in := &domain.IncomingMessage{
		ID:               msg.MsgID,
		CleanContent:     msg.Content,
		MentionedUserIDs: make(map[string]struct{}, len(msg.Mentions)),
		CreatedAt:        time.Now(),
	}
	if msg.CreateTime > 0 {
		in.CreatedAt = time.UnixMilli(msg.CreateTime)
	}
	for _, id := range msg.Mentions {
		in.MentionedUserIDs[id] = struct{}{}
	}
	for _, key := range msg.ImageKeys {
		in.AttachmentURLs = append(in.AttachmentURLs, feishu.ResourceURL(msg.MsgID, key, "image"))
	}
	for _, key := range msg.FileKeys {
		in.AttachmentURLs = append(in.AttachmentURLs, feishu.ResourceURL(msg.MsgID, key, "file"))
	}

	if msg.Sender != nil {
		in.AuthorID = msg.Sender.SenderID
		if msg.Sender.TenantKey != "" {
			tenant := msg.Sender.TenantKey
			in.GuildID = &tenant
		}
	}
	in.AuthorUsername = in.AuthorID

	switch msg.ChatType {
	case "group":
		in.ChannelType = domain.ChannelTypeText
		in.ChannelName = msg.ChatID
		workspace := s.workspaceName
		in.GuildName = &workspace
	case "p2p":
		in.ChannelType = domain.ChannelTypeDirect
		in.IsDirect = true
	default:
		in.ChannelType = domain.ChannelTypeOther
	}

	return in
}

// enrich resolves the author profile and, in group chats, the chat name and
// the author's display name. Lookup failures are logged and leave the
// fields as they are.
func (s *WatchServer) enrich(ctx context.Context, chatID string, in *domain.IncomingMessage) {
	if in.AuthorID != "" {
		user, err := s.directory.GetUser(ctx, in.AuthorID)
		if err != nil {
			s.log.Warn().Err(err).Str("author_id", in.AuthorID).Msg("Failed to get user profile")
		} else {
			if user.Name != "" {
				in.AuthorUsername = user.Name
			}
			in.AuthorAvatarURL = user.AvatarURL
		}
	}

	if in.ChannelType != domain.ChannelTypeText {
		return
	}

	info, err := s.directory.GetChatInfo(ctx, chatID)
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to get chat info")
	} else if info.Name != "" {
		in.ChannelName = info.Name
	}

	members, err := s.directory.GetChatMembers(ctx, chatID)
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to get chat members")
		return
	}
	for _, m := range members {
		if m.MemberID == in.AuthorID && m.Name != "" {
			name := m.Name
			in.MemberDisplayName = &name
			return
		}
	}
}

// isMessageSeen checks if a message has been processed
func (s *WatchServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and drops expired records
func (s *WatchServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	now := time.Now()
	s.seenMsgs[msgID] = now

	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
