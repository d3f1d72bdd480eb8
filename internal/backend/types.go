package backend

import (
	"github.com/spec-kit/filedrop-bot/internal/domain"
)

// User is the backend-owned account record.
type User struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName,omitempty"`
	Username   string `json:"username,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// CreateUserRequest registers (or re-identifies) a caller. Registration is
// idempotent by identity.
type CreateUserRequest struct {
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName,omitempty"`
	Username   string `json:"username,omitempty"`
}

// CreateUserResponse carries the account, an opaque auth token and whether
// the account was created by this call.
type CreateUserResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	IsNewUser bool   `json:"isNewUser"`
}

// GetUploadURLRequest declares an upload and reserves an object reference.
type GetUploadURLRequest struct {
	TelegramID  int64  `json:"telegramId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// GetUploadURLResponse carries the presigned write URL and the provisional
// object reference to confirm later.
type GetUploadURLResponse struct {
	UploadURL  string `json:"uploadUrl"`
	FSObjectID string `json:"fsObjectId"`
}

// CompleteUploadRequest confirms a finished direct transfer.
type CompleteUploadRequest struct {
	TelegramID int64  `json:"telegramId"`
	FSObjectID string `json:"fsObjectId"`
}

// CompleteUploadResponse is the finalized file record.
type CompleteUploadResponse struct {
	ShareableLink string `json:"shareableLink"`
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
}

// ListFilesResponse returns every stored file for a caller.
type ListFilesResponse struct {
	Files []domain.FileRecord `json:"files"`
}

// GenerateShareLinkRequest asks for a fresh share link (legacy path).
type GenerateShareLinkRequest struct {
	TelegramID int64  `json:"telegramId"`
	FSObjectID string `json:"fsObjectId"`
}

// GenerateShareLinkResponse carries the issued link.
type GenerateShareLinkResponse struct {
	ShareableLink string `json:"shareableLink"`
}

// LinksWithViewsRequest pages through share links with view counts.
type LinksWithViewsRequest struct {
	TelegramID int64 `json:"telegramId"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// LinksWithViewsResponse is one page of links plus derived pagination state.
type LinksWithViewsResponse struct {
	Links      []domain.FileRecord `json:"links"`
	Pagination domain.Pagination   `json:"pagination"`
}

// errorEnvelope is the backend's structured failure body.
type errorEnvelope struct {
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}
