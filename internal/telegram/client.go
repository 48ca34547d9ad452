// Package telegram implements the Bot API client and the chat bot that
// answers contributor commands and delivers tracker notifications.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forgewatch/forgewatch/internal/platform/timeouts"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Chat identifies a telegram conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Account is a telegram user reference.
type Account struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64    `json:"message_id"`
	From      *Account `json:"from"`
	Chat      Chat     `json:"chat"`
	Text      string   `json:"text"`
}

// Update is one entry of the getUpdates feed.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// KeyboardButton is one reply keyboard button.
type KeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup is a persistent reply keyboard.
type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

// OutgoingMessage is a sendMessage request. Text is rendered as HTML.
type OutgoingMessage struct {
	ChatID      string               `json:"chat_id"`
	Text        string               `json:"text"`
	ParseMode   string               `json:"parse_mode,omitempty"`
	ReplyMarkup *ReplyKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Client calls the telegram Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Bot API client. An empty baseURL targets the public
// endpoint. The default HTTP client leaves room for long-poll requests.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.HTTPRequest + DefaultPollTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

// DefaultPollTimeout is how long a getUpdates call waits server-side.
const DefaultPollTimeout = 10 * time.Second

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// GetMe returns the bot's own account, including its public username.
func (c *Client) GetMe(ctx context.Context) (Account, error) {
	var account Account
	if err := c.call(ctx, "getMe", nil, &account); err != nil {
		return Account{}, fmt.Errorf("get me: %w", err)
	}
	return account, nil
}

// GetUpdates long-polls for new updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	request := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", request, &updates); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}

// SendMessage delivers a message to a chat. HTML parse mode is applied when
// the request does not choose one.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) error {
	if msg.ParseMode == "" {
		msg.ParseMode = "HTML"
	}
	if err := c.call(ctx, "sendMessage", msg, nil); err != nil {
		return fmt.Errorf("send message to %s: %w", msg.ChatID, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, payload any, target any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.OK {
		description := envelope.Description
		if description == "" {
			description = response.Status
		}
		return fmt.Errorf("telegram responded: %s", description)
	}
	if target != nil {
		if err := json.Unmarshal(envelope.Result, target); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// MentionHTML renders a clickable HTML mention of an account.
func MentionHTML(account Account) string {
	name := account.FirstName
	if name == "" {
		name = account.Username
	}
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, account.ID, name)
}

// DeepLink builds the t.me link that opens the bot with a start payload.
func DeepLink(botUsername, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), payload)
}
