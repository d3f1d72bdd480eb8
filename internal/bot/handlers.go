package bot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/internal/events"
	"github.com/spec-kit/filedrop-bot/internal/service"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

func (r *Router) handleStart(ctx context.Context, upd *domain.Update) error {
	_, isNew, err := r.sessions.EnsureRegistered(ctx, *upd.Caller)
	if err != nil {
		return err
	}
	if isNew {
		r.publish(ctx, events.EventUserRegistered, upd.Caller.ID, nil)
		// Offer optional phone verification on first contact.
		return r.reply(ctx, upd.ChatID, WelcomeText(upd.Caller.FirstName, true), ContactKeyboard())
	}
	return r.reply(ctx, upd.ChatID, WelcomeText(upd.Caller.FirstName, false), nil)
}

func (r *Router) handleStatus(ctx context.Context, upd *domain.Update) error {
	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}
	resp, err := r.backend.ListFiles(ctx, upd.Caller.ID)
	if err != nil {
		return err
	}
	return r.reply(ctx, upd.ChatID, StatusText(resp.Files), nil)
}

func (r *Router) handleLinks(ctx context.Context, upd *domain.Update) error {
	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}
	resp, err := r.backend.GetLinksWithViews(ctx, backend.LinksWithViewsRequest{
		TelegramID: upd.Caller.ID,
		Page:       1,
		Limit:      linksPerPage,
	})
	if err != nil {
		return err
	}
	return r.reply(ctx, upd.ChatID, LinksPageText(resp.Links, resp.Pagination), markupOrNil(LinksKeyboard(resp.Pagination)))
}

func (r *Router) handleDeleteLink(ctx context.Context, upd *domain.Update) error {
	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}
	resp, err := r.backend.ListFiles(ctx, upd.Caller.ID)
	if err != nil {
		return err
	}
	if len(resp.Files) == 0 {
		return r.reply(ctx, upd.ChatID, "You have no links to delete.", nil)
	}
	return r.reply(ctx, upd.ChatID, "Choose a link to delete:", DeleteLinkKeyboard(resp.Files))
}

func (r *Router) handleDeleteAccount(ctx context.Context, upd *domain.Update) error {
	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}
	return r.reply(ctx, upd.ChatID,
		"This will delete your account and every stored file. This cannot be undone. Are you sure?",
		DeleteAccountKeyboard())
}

// handleContact verifies an unsolicited contact share before touching the
// backend: forwarding a third party's card is rejected.
func (r *Router) handleContact(ctx context.Context, upd *domain.Update) error {
	if upd.Contact.UserID == 0 || upd.Contact.UserID != upd.Caller.ID {
		return util.NewPolicyRejection("Please share your own contact card, not someone else's.")
	}
	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}
	if err := r.backend.UpdatePhone(ctx, upd.Caller.ID, upd.Contact.PhoneNumber); err != nil {
		return err
	}
	r.publish(ctx, events.EventPhoneVerified, upd.Caller.ID, nil)
	return r.reply(ctx, upd.ChatID, "Phone number verified, thank you!", nil)
}

// handleUpload runs the direct-upload transaction behind an in-place status
// message: one reply when the file arrives, one edit with the outcome.
func (r *Router) handleUpload(ctx context.Context, upd *domain.Update) error {
	att := *upd.Attachment

	if _, _, err := r.sessions.EnsureRegistered(ctx, *upd.Caller); err != nil {
		return err
	}

	status, err := r.messenger.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: upd.ChatID,
		Text:   UploadReceivedText(att.Filename),
	})
	if err != nil {
		return util.NewTransportError(err)
	}

	result, err := r.uploader.Upload(ctx, *upd.Caller, att)
	if err != nil && r.legacyFallback && failedAt(err, service.StepPresign) {
		r.logger.Warn("presign failed, retrying via legacy multipart path",
			zap.Int64("caller_id", upd.Caller.ID), zap.Error(err))
		result, err = r.uploader.UploadLegacy(ctx, *upd.Caller, att)
	}

	if err != nil {
		r.logFailure(upd, err)
		r.publish(ctx, events.EventUploadFailed, upd.Caller.ID, events.UploadFailedPayload{
			Filename: att.Filename,
			Step:     failedStep(err),
			Reason:   err.Error(),
		})
		return r.editStatus(ctx, upd.ChatID, status.MessageID, uploadFailureText(err))
	}

	r.publish(ctx, events.EventUploadCompleted, upd.Caller.ID, events.UploadCompletedPayload{
		Filename:      result.Filename,
		Size:          result.Size,
		ShareableLink: result.ShareableLink,
	})
	return r.editStatus(ctx, upd.ChatID, status.MessageID,
		UploadDoneText(result.Filename, result.Size, result.ShareableLink))
}

func (r *Router) handleCallback(ctx context.Context, upd *domain.Update) error {
	press := upd.Button
	if err := r.messenger.AnswerCallbackQuery(ctx, press.QueryID, ""); err != nil {
		r.logger.Debug("failed to answer callback query", zap.Error(err))
	}

	cmd, err := ParseCallback(press.Data)
	if err != nil {
		return err
	}

	switch cmd.Action {
	case ActionLinksPage:
		return r.handleLinksPage(ctx, upd, cmd.Page)
	case ActionDeleteLinkSelect:
		if err := r.backend.DeleteShareLink(ctx, upd.Caller.ID, cmd.FSObjectID); err != nil {
			return err
		}
		r.publish(ctx, events.EventLinkDeleted, upd.Caller.ID, events.LinkDeletedPayload{FSObjectID: cmd.FSObjectID})
		return r.editStatus(ctx, upd.ChatID, press.MessageID, "Link deleted.")
	case ActionDeleteLinkCancel:
		return r.editStatus(ctx, upd.ChatID, press.MessageID, "Nothing was deleted.")
	case ActionDeleteAccountYes:
		if err := r.backend.DeleteAccount(ctx, upd.Caller.ID); err != nil {
			return err
		}
		r.sessions.Forget(upd.Caller.ID)
		r.publish(ctx, events.EventAccountDeleted, upd.Caller.ID, nil)
		return r.editStatus(ctx, upd.ChatID, press.MessageID, "Your account and all stored files have been deleted.")
	case ActionDeleteAccountNo:
		return r.editStatus(ctx, upd.ChatID, press.MessageID, "Deletion cancelled. Your account is untouched.")
	}
	return util.NewCallbackParseError(press.Data)
}

// handleLinksPage re-runs the listing query for an adjusted page number and
// rewrites the original message in place.
func (r *Router) handleLinksPage(ctx context.Context, upd *domain.Update, page int) error {
	resp, err := r.backend.GetLinksWithViews(ctx, backend.LinksWithViewsRequest{
		TelegramID: upd.Caller.ID,
		Page:       page,
		Limit:      linksPerPage,
	})
	if err != nil {
		return err
	}
	return r.editStatus(ctx, upd.ChatID, upd.Button.MessageID,
		LinksPageText(resp.Links, resp.Pagination), markupOrNil(LinksKeyboard(resp.Pagination)))
}

// markupOrNil avoids handing a typed nil keyboard to the JSON encoder.
func markupOrNil(m *telegram.InlineKeyboardMarkup) any {
	if m == nil {
		return nil
	}
	return m
}

func (r *Router) editStatus(ctx context.Context, chatID int64, messageID int, text string, markup ...any) error {
	req := telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if len(markup) > 0 && markup[0] != nil {
		req.ReplyMarkup = markup[0]
	}
	if err := r.messenger.EditMessageText(ctx, req); err != nil {
		r.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}

func failedAt(err error, step service.UploadStep) bool {
	var stepErr *service.UploadError
	return errors.As(err, &stepErr) && stepErr.Step == step
}

func failedStep(err error) string {
	var stepErr *service.UploadError
	if errors.As(err, &stepErr) {
		return string(stepErr.Step)
	}
	return "preflight"
}
