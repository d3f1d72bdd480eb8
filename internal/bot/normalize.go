package bot

import (
	"strings"

	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
)

// Normalize flattens a provider update into the router's event shape. The
// per-kind media field extraction happens here, once, so every variant flows
// through the orchestrator as the same tagged attachment.
func Normalize(upd telegram.Update) *domain.Update {
	if upd.CallbackQuery != nil {
		return normalizeCallback(upd.UpdateID, upd.CallbackQuery)
	}
	if upd.Message != nil {
		return normalizeMessage(upd.UpdateID, upd.Message)
	}
	return nil
}

func normalizeCallback(eventID int64, cb *telegram.CallbackQuery) *domain.Update {
	out := &domain.Update{
		EventID: eventID,
		Caller:  normalizeUser(cb.From),
		Button: &domain.ButtonPress{
			QueryID: cb.ID,
			Data:    cb.Data,
		},
	}
	if cb.Message != nil {
		out.ChatID = cb.Message.Chat.ID
		out.Button.MessageID = cb.Message.MessageID
	}
	return out
}

func normalizeMessage(eventID int64, msg *telegram.Message) *domain.Update {
	out := &domain.Update{
		EventID: eventID,
		ChatID:  msg.Chat.ID,
		Caller:  normalizeUser(msg.From),
	}

	switch {
	case msg.Contact != nil:
		out.Contact = &domain.Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			FirstName:   msg.Contact.FirstName,
			UserID:      msg.Contact.UserID,
		}
	case msg.Document != nil:
		out.Attachment = &domain.Attachment{
			Kind:         domain.MediaDocument,
			SourceFileID: msg.Document.FileID,
			Filename:     fallbackName(msg.Document.FileName, "document", msg.Document.MimeType),
			ContentType:  fallbackType(msg.Document.MimeType),
			DeclaredSize: msg.Document.FileSize,
		}
	case len(msg.Photo) > 0:
		// Largest rendition is last.
		photo := msg.Photo[len(msg.Photo)-1]
		out.Attachment = &domain.Attachment{
			Kind:         domain.MediaPhoto,
			SourceFileID: photo.FileID,
			Filename:     "photo.jpg",
			ContentType:  "image/jpeg",
			DeclaredSize: photo.FileSize,
		}
	case msg.Video != nil:
		out.Attachment = &domain.Attachment{
			Kind:         domain.MediaVideo,
			SourceFileID: msg.Video.FileID,
			Filename:     fallbackName(msg.Video.FileName, "video", msg.Video.MimeType),
			ContentType:  fallbackType(msg.Video.MimeType),
			DeclaredSize: msg.Video.FileSize,
		}
	case msg.Audio != nil:
		out.Attachment = &domain.Attachment{
			Kind:         domain.MediaAudio,
			SourceFileID: msg.Audio.FileID,
			Filename:     fallbackName(msg.Audio.FileName, "audio", msg.Audio.MimeType),
			ContentType:  fallbackType(msg.Audio.MimeType),
			DeclaredSize: msg.Audio.FileSize,
		}
	case msg.Voice != nil:
		out.Attachment = &domain.Attachment{
			Kind:         domain.MediaVoice,
			SourceFileID: msg.Voice.FileID,
			Filename:     "voice.ogg",
			ContentType:  fallbackType(msg.Voice.MimeType),
			DeclaredSize: msg.Voice.FileSize,
		}
	case strings.HasPrefix(msg.Text, "/"):
		out.Command = parseCommand(msg.Text)
		out.Text = msg.Text
	default:
		out.Text = msg.Text
	}

	return out
}

func normalizeUser(u *telegram.User) *domain.Caller {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &domain.Caller{ID: u.ID, FirstName: u.FirstName, Username: u.Username}
}

// parseCommand extracts the bare command name: "/links@somebot arg" → "links".
func parseCommand(text string) string {
	cmd := strings.Fields(text)[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func fallbackName(name, kind, mimeType string) string {
	if name != "" {
		return name
	}
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		return kind + "." + sub
	}
	return kind
}

func fallbackType(mimeType string) string {
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
