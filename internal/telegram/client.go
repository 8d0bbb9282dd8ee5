// Package telegram is a minimal Bot API client covering the calls the
// workflow needs: long-poll update fetching, text and photo replies with
// inline keyboards, document upload, and callback acknowledgement.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"vcert/internal/config"
	"vcert/internal/faults"
)

// HTTPDoer describes the HTTP client used for Bot API calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Telegram Bot API over HTTPS.
type Client struct {
	baseURL     string
	token       string
	client      HTTPDoer
	pollTimeout int
}

// New builds a Client from config. Pass a doer whose timeout exceeds the
// configured poll timeout, otherwise long polls abort early.
func New(cfg *config.Config, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.Telegram.APIBaseURL, "/"),
		token:       cfg.Telegram.Token,
		client:      doer,
		pollTimeout: cfg.Telegram.PollTimeout,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", method, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", method, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, result)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", method, "execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", method, "read response", err)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", method,
			fmt.Sprintf("decode response (status %d)", resp.StatusCode), err)
	}
	if !api.OK {
		return faults.Wrap(faults.ErrDependency, "telegram", method,
			fmt.Sprintf("api error %d: %s", api.ErrorCode, api.Description), nil)
	}
	if result != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return faults.Wrap(faults.ErrDependency, "telegram", method, "decode result", err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         c.pollTimeout,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendOptions tune an outgoing message.
type SendOptions struct {
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

// Markdown requests Telegram's legacy Markdown rendering.
const Markdown = "Markdown"

// SendMessage posts text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*Message, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if opts != nil {
		if opts.ParseMode != "" {
			payload["parse_mode"] = opts.ParseMode
		}
		if opts.ReplyMarkup != nil {
			payload["reply_markup"] = opts.ReplyMarkup
		}
	}
	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendPhoto redelivers a previously uploaded photo by file id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   fileID,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	return c.call(ctx, "sendPhoto", payload, nil)
}

// SendDocument uploads a file as a document with an optional caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, content io.Reader, caption string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "write chat_id field", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "write caption field", err)
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "create form file", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "copy document body", err)
	}
	if err := writer.Close(); err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "finalize multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &buf)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "telegram", "sendDocument", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, "sendDocument", nil)
}

// AnswerCallbackQuery acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	return c.call(ctx, "deleteMessage", payload, nil)
}
