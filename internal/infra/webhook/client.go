package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Discord-compatible webhook endpoint prefix
const DefaultBaseURL = "https://discord.com/api/webhooks"

// Embed is the rich notification object of a webhook message
type Embed struct {
	Author    *EmbedAuthor    `json:"author,omitempty"`
	Footer    *EmbedFooter    `json:"footer,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"` // RFC 3339
	Color     int             `json:"color"`
	Thumbnail *EmbedThumbnail `json:"thumbnail,omitempty"`
	Fields    []EmbedField    `json:"fields,omitempty"`
}

// MaxAuthorNameLength is the longest embed author name the webhook accepts
const MaxAuthorNameLength = 256

// EmbedAuthor is the author line of an embed
type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedFooter is the footer of an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedThumbnail is the thumbnail of an embed
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// EmbedField is a named field of an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// AllowedMentions restricts which mentions in content ping anyone
type AllowedMentions struct {
	Parse []string `json:"parse"`
}

// Message is the body posted to the webhook
type Message struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// Client posts messages to one webhook identified by id and token
type Client struct {
	baseURL    string
	id         string
	token      string
	httpClient *http.Client
}

// NewClient creates a new webhook client
func NewClient(baseURL, id, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		id:         id,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the webhook endpoint
func (c *Client) URL() string {
	return c.baseURL + "/" + c.id + "/" + c.token
}

// Execute posts a message to the webhook
func (c *Client) Execute(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// StatusError is returned when the webhook answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

// ParseColor converts "#RRGGBB" into the integer form used by embeds
func ParseColor(hex string) (int, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return int(v), nil
}
