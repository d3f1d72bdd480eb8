package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUploadCompleted EventType = "upload_completed"
	EventUploadFailed    EventType = "upload_failed"
	EventLinkDeleted     EventType = "link_deleted"
	EventAccountDeleted  EventType = "account_deleted"
	EventPhoneVerified   EventType = "phone_verified"
)

// Event represents a domain event emitted after a state-changing operation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CallerID  int64       `json:"caller_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UploadCompletedPayload payload.
type UploadCompletedPayload struct {
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
	ShareableLink string `json:"shareable_link"`
}

// UploadFailedPayload payload.
type UploadFailedPayload struct {
	Filename string `json:"filename"`
	Step     string `json:"step"`
	Reason   string `json:"reason"`
}

// LinkDeletedPayload payload.
type LinkDeletedPayload struct {
	FSObjectID string `json:"fs_object_id"`
}
