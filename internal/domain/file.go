package domain

import "time"

// FileRecord is the backend-owned view of a stored file and its share link.
// The bot never mutates it locally.
type FileRecord struct {
	FSObjectID    string     `json:"fsObjectId"`
	Filename      string     `json:"filename"`
	Size          int64      `json:"size"`
	ShareableLink string     `json:"shareableLink"`
	ViewCount     int        `json:"viewCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Pagination is derived listing state, recomputed on every request.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a preceding page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
