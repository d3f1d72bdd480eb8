package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/config"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

// Client is the typed request layer over the storage backend. Every call
// carries the shared-secret header; user-scoped calls carry the caller
// identity in the body and the backend re-derives authorization from it, so
// the cached token is an optimization, not a security boundary.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// New builds the backend client.
func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return util.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return util.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

// do sends a prepared request, attaching credentials and a correlation id,
// and decodes either the success body or the backend's error envelope.
func (c *Client) do(req *http.Request, path string, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return util.NewTransportError(fmt.Errorf("backend %s: %w", path, err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, path, requestID)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return util.NewTransportError(fmt.Errorf("backend %s: decode response: %w", path, err))
		}
	}
	return nil
}

// decodeError surfaces the backend's structured envelope rather than a
// generic transport error whenever the backend actually responded.
func (c *Client) decodeError(resp *http.Response, path, requestID string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		c.logger.Warn("backend error without envelope",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return util.NewBackendError(resp.StatusCode, "")
	}

	c.logger.Info("backend rejected request",
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.String("message", envelope.Message))
	return util.NewBackendError(resp.StatusCode, envelope.Message)
}

// CreateUser registers a caller. Calling it twice with the same identity
// returns the existing account with IsNewUser=false.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error) {
	var resp CreateUserResponse
	if err := c.post(ctx, "/api/users", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUploadURL reserves an object reference and returns a presigned write URL.
func (c *Client) GetUploadURL(ctx context.Context, req GetUploadURLRequest) (*GetUploadURLResponse, error) {
	var resp GetUploadURLResponse
	if err := c.post(ctx, "/api/files/upload-url", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteUpload confirms a direct transfer and returns the finalized link.
func (c *Client) CompleteUpload(ctx context.Context, req CompleteUploadRequest) (*CompleteUploadResponse, error) {
	var resp CompleteUploadResponse
	if err := c.post(ctx, "/api/files/complete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFiles returns every stored file for the caller.
func (c *Client) ListFiles(ctx context.Context, telegramID int64) (*ListFilesResponse, error) {
	var resp ListFilesResponse
	body := map[string]int64{"telegramId": telegramID}
	if err := c.post(ctx, "/api/files/list", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateShareLink issues a fresh share link for a stored object.
func (c *Client) GenerateShareLink(ctx context.Context, req GenerateShareLinkRequest) (*GenerateShareLinkResponse, error) {
	var resp GenerateShareLinkResponse
	if err := c.post(ctx, "/api/links/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteShareLink removes a share link and its object reference.
func (c *Client) DeleteShareLink(ctx context.Context, telegramID int64, fsObjectID string) error {
	body := map[string]any{"telegramId": telegramID, "fsObjectId": fsObjectID}
	return c.post(ctx, "/api/links/delete", body, nil)
}

// GetLinksWithViews pages through the caller's links with view counts.
// Pagination metadata is recomputed by the backend on every call.
func (c *Client) GetLinksWithViews(ctx context.Context, req LinksWithViewsRequest) (*LinksWithViewsResponse, error) {
	var resp LinksWithViewsResponse
	if err := c.post(ctx, "/api/links/views", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePhone records a verified phone number on the account.
func (c *Client) UpdatePhone(ctx context.Context, telegramID int64, phone string) error {
	body := map[string]any{"telegramId": telegramID, "phone": phone}
	return c.post(ctx, "/api/users/phone", body, nil)
}

// DeleteAccount removes the account and every stored file.
func (c *Client) DeleteAccount(ctx context.Context, telegramID int64) error {
	body := map[string]int64{"telegramId": telegramID}
	return c.post(ctx, "/api/users/delete", body, nil)
}

// UploadFile is the legacy multipart path. It routes the bytes through the
// backend instead of a presigned URL and is kept as an optional fallback.
func (c *Client) UploadFile(ctx context.Context, telegramID int64, filename, contentType string, r io.Reader) (*CompleteUploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("telegramId", fmt.Sprintf("%d", telegramID)); err != nil {
		return nil, util.NewInternalError(err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, util.NewInternalError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, util.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-File-Content-Type", contentType)

	var resp CompleteUploadResponse
	if err := c.do(req, "/api/files/upload", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
