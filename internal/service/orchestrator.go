package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

// MaxProviderFileSize is the provider's per-file download limit. Declared
// sizes above it are rejected before any network call.
const MaxProviderFileSize = 20 << 20

// UploadStep tags which stage of the transaction a failure belongs to.
type UploadStep string

const (
	StepPresign  UploadStep = "presign"
	StepFetch    UploadStep = "fetch"
	StepTransfer UploadStep = "transfer"
	StepConfirm  UploadStep = "confirm"
)

// UploadError wraps a step failure. The transaction aborts on the first
// failed step; retries are a router decision triggered by a fresh user
// action, never automatic.
type UploadError struct {
	Step UploadStep
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Step, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// providerFiles is the slice of the provider client the orchestrator needs.
type providerFiles interface {
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, int64, error)
}

// uploadBackend is the slice of the backend client the orchestrator needs.
type uploadBackend interface {
	GetUploadURL(ctx context.Context, req backend.GetUploadURLRequest) (*backend.GetUploadURLResponse, error)
	CompleteUpload(ctx context.Context, req backend.CompleteUploadRequest) (*backend.CompleteUploadResponse, error)
	UploadFile(ctx context.Context, telegramID int64, filename, contentType string, r io.Reader) (*backend.CompleteUploadResponse, error)
}

// UploadResult is the single user-visible outcome of the transaction.
type UploadResult struct {
	ShareableLink string
	Filename      string
	Size          int64
}

// Orchestrator moves a file from the messaging provider to object storage
// without routing the bytes through the backend: presign, fetch, direct PUT,
// confirm. Once presign has reserved an object reference the transaction runs
// to completion or terminal failure; there is no cancel signal.
type Orchestrator struct {
	backend    uploadBackend
	provider   providerFiles
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOrchestrator builds the orchestrator.
func NewOrchestrator(b uploadBackend, p providerFiles, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		backend:    b,
		provider:   p,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Upload runs the direct-upload transaction for one attachment.
func (o *Orchestrator) Upload(ctx context.Context, caller domain.Caller, att domain.Attachment) (*UploadResult, error) {
	if att.DeclaredSize > MaxProviderFileSize {
		return nil, util.NewPolicyRejection(fmt.Sprintf(
			"file is too large: the limit is %s", humanMiB(MaxProviderFileSize)))
	}

	slot, err := o.backend.GetUploadURL(ctx, backend.GetUploadURLRequest{
		TelegramID:  caller.ID,
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.DeclaredSize,
	})
	if err != nil {
		return nil, &UploadError{Step: StepPresign, Err: err}
	}

	body, size, err := o.fetchSource(ctx, att)
	if err != nil {
		return nil, &UploadError{Step: StepFetch, Err: err}
	}
	defer body.Close() //nolint:errcheck

	if err := o.transfer(ctx, slot.UploadURL, att.ContentType, body, size); err != nil {
		return nil, &UploadError{Step: StepTransfer, Err: err}
	}

	confirmed, err := o.backend.CompleteUpload(ctx, backend.CompleteUploadRequest{
		TelegramID: caller.ID,
		FSObjectID: slot.FSObjectID,
	})
	if err != nil {
		return nil, &UploadError{Step: StepConfirm, Err: err}
	}

	o.logger.Info("upload completed",
		zap.Int64("caller_id", caller.ID),
		zap.String("fs_object_id", slot.FSObjectID),
		zap.String("filename", confirmed.Filename),
		zap.Int64("size", confirmed.Size))

	return &UploadResult{
		ShareableLink: confirmed.ShareableLink,
		Filename:      confirmed.Filename,
		Size:          confirmed.Size,
	}, nil
}

// UploadLegacy routes the bytes through the backend's multipart endpoint,
// bypassing the presign flow. Kept as an optional fallback capability.
func (o *Orchestrator) UploadLegacy(ctx context.Context, caller domain.Caller, att domain.Attachment) (*UploadResult, error) {
	if att.DeclaredSize > MaxProviderFileSize {
		return nil, util.NewPolicyRejection(fmt.Sprintf(
			"file is too large: the limit is %s", humanMiB(MaxProviderFileSize)))
	}

	body, _, err := o.fetchSource(ctx, att)
	if err != nil {
		return nil, &UploadError{Step: StepFetch, Err: err}
	}
	defer body.Close() //nolint:errcheck

	confirmed, err := o.backend.UploadFile(ctx, caller.ID, att.Filename, att.ContentType, body)
	if err != nil {
		return nil, &UploadError{Step: StepTransfer, Err: err}
	}

	return &UploadResult{
		ShareableLink: confirmed.ShareableLink,
		Filename:      confirmed.Filename,
		Size:          confirmed.Size,
	}, nil
}

// fetchSource resolves the source file id to a transfer location and opens
// the byte stream.
func (o *Orchestrator) fetchSource(ctx context.Context, att domain.Attachment) (io.ReadCloser, int64, error) {
	file, err := o.provider.GetFile(ctx, att.SourceFileID)
	if err != nil {
		return nil, 0, err
	}
	if file.FilePath == "" {
		return nil, 0, fmt.Errorf("provider returned no transfer location for file %s", att.SourceFileID)
	}
	return o.provider.DownloadFile(ctx, file.FilePath)
}

// transfer PUTs the bytes to the presigned URL. The content type must match
// what presign declared, since issued URLs are content-type-pinned.
func (o *Orchestrator) transfer(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return util.NewTransportError(fmt.Errorf("storage put: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage put: status %d", resp.StatusCode)
	}
	return nil
}

func humanMiB(n int64) string {
	return fmt.Sprintf("%d MB", n>>20)
}
