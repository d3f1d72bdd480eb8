package domain

// Caller identifies the human on the messaging-provider side. It maps 1:1 to
// a backend user record; the process holds only a transient token cache for it.
type Caller struct {
	ID        int64
	FirstName string
	Username  string
}

// MediaKind enumerates the provider attachment variants.
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
)

// Attachment is the normalized media variant. Per-kind field extraction
// happens once at the provider boundary; everything downstream routes this
// single shape through the upload orchestrator.
type Attachment struct {
	Kind         MediaKind
	SourceFileID string
	Filename     string
	ContentType  string
	DeclaredSize int64
}

// Contact is a shared phone-number card.
type Contact struct {
	PhoneNumber string
	FirstName   string
	UserID      int64
}

// ButtonPress is a normalized inline-button callback.
type ButtonPress struct {
	QueryID   string
	MessageID int
	Data      string
}

// Update is the normalized inbound event handed to the router. Exactly one of
// Command/Text/Attachment/Contact/Button describes the payload; Caller is nil
// when the provider omitted the sender.
type Update struct {
	EventID    int64
	ChatID     int64
	Caller     *Caller
	Command    string
	Text       string
	Attachment *Attachment
	Contact    *Contact
	Button     *ButtonPress
}
