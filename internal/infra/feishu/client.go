package feishu

import (
	"context"
	"fmt"
	"strconv"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/rs/zerolog"
)

const (
	// queueSize bounds the events waiting for the message loop
	queueSize = 256

	// apiBase is the Open API host used to build resource URLs
	apiBase = "https://open.feishu.cn/open-apis"
)

// Message represents a received Feishu message
type Message struct {
	ChatID     string
	MsgID      string
	MsgType    string            // text, image, post, file
	ChatType   string            // p2p (private), group
	Content    string            // Text content (extracted from all message types)
	ImageKeys  []string          // Image keys of inline images
	FileKeys   []string          // File keys of attached files
	Sender     *Sender           // Message sender info
	Mentions   []string          // Mentioned user open_ids
	MentionMap map[string]string // Map from mention key (@_user_1) to real name
	CreateTime int64             // Message creation time (milliseconds Unix timestamp from Feishu)
}

// Sender represents the message sender
type Sender struct {
	SenderID   string // open_id
	SenderType string // user, app
	TenantKey  string
}

// ChatMember represents a member in a chat
type ChatMember struct {
	MemberID string
	Name     string
}

// ChatInfo represents information about a chat
type ChatInfo struct {
	ChatID   string
	Name     string
	ChatMode string // group, topic, p2p
}

// User represents a user profile
type User struct {
	OpenID    string
	Name      string
	AvatarURL string
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	queue     chan *larkim.P2MessageReceiveV1
	log       zerolog.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, log zerolog.Logger) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		queue:     make(chan *larkim.P2MessageReceiveV1, queueSize),
		log:       log.With().Str("component", "feishu").Logger(),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and delivers messages one at a time
// to the handler until ctx is done
func (c *Client) Start(ctx context.Context) error {
	// Must return quickly so the SDK can ACK, otherwise Feishu retries the event
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			select {
			case c.queue <- event:
			default:
				c.log.Warn().Msg("Message queue full, dropping event")
			}
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	stopLoop := c.startLoop(ctx)
	defer stopLoop()

	c.log.Info().Msg("Starting WebSocket connection")
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.wsCli.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		c.log.Warn().Msg("Disconnected")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("feishu websocket: %w", err)
		}
		return nil
	}
}

// startLoop runs messageLoop in the background. The returned func stops the
// loop and waits until the message being handled, if any, is finished.
func (c *Client) startLoop(ctx context.Context) func() {
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.messageLoop(loopCtx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// messageLoop hands queued events to the handler sequentially
func (c *Client) messageLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.queue:
			msg := c.parseEvent(event)
			if msg == nil || c.onMessage == nil {
				continue
			}
			c.onMessage(msg)
		}
	}
}

// parseEvent converts a receive event into a Message, nil if it should be ignored
func (c *Client) parseEvent(event *larkim.P2MessageReceiveV1) *Message {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	rawMsg := event.Event.Message

	// Ignore messages sent by apps, including our own
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return nil
		}
	}

	msg := &Message{
		ChatID:     deref(rawMsg.ChatId),
		MsgID:      deref(rawMsg.MessageId),
		MsgType:    deref(rawMsg.MessageType),
		ChatType:   deref(rawMsg.ChatType),
		MentionMap: make(map[string]string),
	}

	// Parse create time (milliseconds Unix timestamp)
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if sender := event.Event.Sender; sender != nil {
		msg.Sender = &Sender{
			SenderType: deref(sender.SenderType),
			TenantKey:  deref(sender.TenantKey),
		}
		if sender.SenderId != nil {
			msg.Sender.SenderID = deref(sender.SenderId.OpenId)
		}
	}

	for _, mention := range rawMsg.Mentions {
		if mention.Id != nil && mention.Id.OpenId != nil {
			msg.Mentions = append(msg.Mentions, *mention.Id.OpenId)
		}
		if mention.Key != nil && mention.Name != nil {
			msg.MentionMap[*mention.Key] = *mention.Name
		}
	}

	if !parseContent(msg, deref(rawMsg.Content)) {
		c.log.Debug().Str("msg_type", msg.MsgType).Msg("Unsupported message type")
		return nil
	}

	c.log.Debug().
		Str("msg_id", msg.MsgID).
		Str("chat_type", msg.ChatType).
		Str("chat_id", msg.ChatID).
		Msg("Received message")
	return msg
}

// GetChatMembers gets the members of a chat
func (c *Client) GetChatMembers(ctx context.Context, chatID string) ([]*ChatMember, error) {
	var members []*ChatMember
	var pageToken string

	for {
		reqBuilder := larkim.NewGetChatMembersReqBuilder().
			MemberIdType("open_id").
			ChatId(chatID).
			PageSize(100)

		if pageToken != "" {
			reqBuilder = reqBuilder.PageToken(pageToken)
		}

		resp, err := c.larkCli.Im.ChatMembers.Get(ctx, reqBuilder.Build())
		if err != nil {
			return nil, fmt.Errorf("get chat members failed: %w", err)
		}
		if !resp.Success() {
			return nil, fmt.Errorf("get chat members error: %s", resp.Msg)
		}

		for _, item := range resp.Data.Items {
			members = append(members, &ChatMember{
				MemberID: deref(item.MemberId),
				Name:     deref(item.Name),
			})
		}

		// Check if there are more pages
		if resp.Data.PageToken == nil || *resp.Data.PageToken == "" {
			break
		}
		pageToken = *resp.Data.PageToken
	}

	return members, nil
}

// GetChatInfo gets information about a chat
func (c *Client) GetChatInfo(ctx context.Context, chatID string) (*ChatInfo, error) {
	req := larkim.NewGetChatReqBuilder().
		ChatId(chatID).
		Build()

	resp, err := c.larkCli.Im.Chat.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get chat info failed: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("get chat info error: %s", resp.Msg)
	}

	return &ChatInfo{
		ChatID:   chatID,
		Name:     deref(resp.Data.Name),
		ChatMode: deref(resp.Data.ChatMode),
	}, nil
}

// GetUser gets a user's profile by open_id
func (c *Client) GetUser(ctx context.Context, openID string) (*User, error) {
	req := larkcontact.NewGetUserReqBuilder().
		UserId(openID).
		UserIdType("open_id").
		Build()

	resp, err := c.larkCli.Contact.User.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("get user error: %s", resp.Msg)
	}

	user := &User{OpenID: openID}
	if resp.Data.User != nil {
		user.Name = deref(resp.Data.User.Name)
		if resp.Data.User.Avatar != nil {
			user.AvatarURL = deref(resp.Data.User.Avatar.Avatar72)
		}
	}
	return user, nil
}

// ResourceURL returns the Open API URL of a message resource
func ResourceURL(msgID, key, resourceType string) string {
	return fmt.Sprintf("%s/im/v1/messages/%s/resources/%s?type=%s", apiBase, msgID, key, resourceType)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
