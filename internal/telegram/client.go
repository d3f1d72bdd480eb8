package telegram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/config"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

// Client is a thin typed client over the messaging provider's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// NewClient builds the provider client.
func NewClient(cfg config.BotConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.APIBaseURL,
		token:      cfg.Token,
		logger:     logger,
	}
}

// WebhookPath derives the secret inbound path from the bot token. The token
// itself never appears in URLs the provider pushes to.
func WebhookPath(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "/webhook/" + hex.EncodeToString(sum[:])
}

// apiResponse is the provider's standard envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return util.NewInternalError(err)
		}
		body = bytes.NewReader(encoded)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return util.NewInternalError(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return util.NewTransportError(fmt.Errorf("provider %s: %w", method, err))
	}
	defer resp.Body.Close() //nolint:errcheck

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return util.NewTransportError(fmt.Errorf("provider %s: decode response: %w", method, err))
	}
	if !envelope.OK {
		c.logger.Warn("provider rejected request",
			zap.String("method", method),
			zap.Int("error_code", envelope.ErrorCode),
			zap.String("description", envelope.Description))
		return util.NewTransportError(fmt.Errorf("provider %s: %d %s", method, envelope.ErrorCode, envelope.Description))
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return util.NewTransportError(fmt.Errorf("provider %s: decode result: %w", method, err))
		}
	}
	return nil
}

// SendMessage posts a new message to a chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText edits a previously sent message in place.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	return c.call(ctx, "editMessageText", req, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops the
// loading indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID, text string) error {
	payload := map[string]any{"callback_query_id": queryID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// SetMyCommands registers the command menu.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	return c.call(ctx, "setMyCommands", map[string]any{"commands": commands}, nil)
}

// SetWebhook registers the public webhook URL with the provider.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", map[string]any{"url": url}, nil)
}

// DeleteWebhook deregisters the webhook, stopping event intake.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", nil, nil)
}

// GetFile resolves a source file id to its transfer location.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile opens a stream of the raw bytes at a transfer location. The
// caller must close the returned reader.
func (c *Client) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, int64, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, util.NewInternalError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, util.NewTransportError(fmt.Errorf("provider file download: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		return nil, 0, util.NewTransportError(fmt.Errorf("provider file download: status %d", resp.StatusCode))
	}
	return resp.Body, resp.ContentLength, nil
}
