package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/cache"
	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/internal/events"
	"github.com/spec-kit/filedrop-bot/internal/observability"
	"github.com/spec-kit/filedrop-bot/internal/service"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

const linksPerPage = 5

// messenger is the slice of the provider client the router needs.
type messenger interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, queryID, text string) error
}

// backendAPI is the slice of the backend client the router calls directly.
type backendAPI interface {
	ListFiles(ctx context.Context, telegramID int64) (*backend.ListFilesResponse, error)
	GetLinksWithViews(ctx context.Context, req backend.LinksWithViewsRequest) (*backend.LinksWithViewsResponse, error)
	DeleteShareLink(ctx context.Context, telegramID int64, fsObjectID string) error
	UpdatePhone(ctx context.Context, telegramID int64, phone string) error
	DeleteAccount(ctx context.Context, telegramID int64) error
}

// uploader runs the direct-upload transaction.
type uploader interface {
	Upload(ctx context.Context, caller domain.Caller, att domain.Attachment) (*service.UploadResult, error)
	UploadLegacy(ctx context.Context, caller domain.Caller, att domain.Attachment) (*service.UploadResult, error)
}

// sessionResolver registers callers and manages the token cache.
type sessionResolver interface {
	EnsureRegistered(ctx context.Context, caller domain.Caller) (token string, isNew bool, err error)
	Forget(callerID int64)
}

// Router maps normalized inbound events to handlers. The deduplicator is
// consulted before any other side effect.
type Router struct {
	dedup          cache.Deduplicator
	sessions       sessionResolver
	backend        backendAPI
	uploader       uploader
	messenger      messenger
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	legacyFallback bool
}

// RouterDependencies bundles the router's collaborators.
type RouterDependencies struct {
	Dedup      cache.Deduplicator
	Sessions   sessionResolver
	Backend    backendAPI
	Uploader   uploader
	Messenger  messenger
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// NewRouter builds the router. legacyFallback enables one multipart-path
// retry when the presign step fails.
func NewRouter(deps RouterDependencies, legacyFallback bool, logger *zap.Logger) *Router {
	return &Router{
		dedup:          deps.Dedup,
		sessions:       deps.Sessions,
		backend:        deps.Backend,
		uploader:       deps.Uploader,
		messenger:      deps.Messenger,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
		legacyFallback: legacyFallback,
	}
}

// HandleUpdate is the top-level dispatch boundary. It never returns an error
// and never panics outward; anything unclassified is logged and answered with
// a generic failure message.
func (r *Router) HandleUpdate(ctx context.Context, raw telegram.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in update handler",
				zap.Any("panic", rec),
				zap.Int64("update_id", raw.UpdateID),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	upd := Normalize(raw)
	if upd == nil {
		r.logger.Debug("ignoring update with no actionable payload", zap.Int64("update_id", raw.UpdateID))
		return
	}

	if r.dedup.Seen(ctx, upd.EventID) {
		r.metrics.RecordDuplicate()
		r.logger.Info("dropping duplicate update", zap.Int64("update_id", upd.EventID))
		return
	}

	r.metrics.RecordUpdate(updateKind(upd))

	if upd.Caller == nil {
		r.logger.Warn("update without sender identity", zap.Int64("update_id", upd.EventID))
		if upd.ChatID != 0 {
			r.reply(ctx, upd.ChatID, util.Classify(util.NewIdentityError()).Message, nil)
		}
		return
	}

	if err := r.dispatch(ctx, upd); err != nil {
		r.logFailure(upd, err)
		r.reply(ctx, upd.ChatID, util.Classify(err).Message, nil)
	}
}

func (r *Router) dispatch(ctx context.Context, upd *domain.Update) error {
	switch {
	case upd.Button != nil:
		return r.handleCallback(ctx, upd)
	case upd.Attachment != nil:
		return r.handleUpload(ctx, upd)
	case upd.Contact != nil:
		return r.handleContact(ctx, upd)
	case upd.Command != "":
		return r.handleCommand(ctx, upd)
	default:
		return r.handleFallback(ctx, upd)
	}
}

func (r *Router) handleCommand(ctx context.Context, upd *domain.Update) error {
	switch upd.Command {
	case "start":
		return r.handleStart(ctx, upd)
	case "status":
		return r.handleStatus(ctx, upd)
	case "help":
		return r.reply(ctx, upd.ChatID, HelpText(), nil)
	case "links":
		return r.handleLinks(ctx, upd)
	case "deletelink":
		return r.handleDeleteLink(ctx, upd)
	case "deleteaccount":
		return r.handleDeleteAccount(ctx, upd)
	default:
		return r.handleFallback(ctx, upd)
	}
}

func (r *Router) handleFallback(ctx context.Context, upd *domain.Update) error {
	return r.reply(ctx, upd.ChatID, "I didn't understand that. Send me a file, or /help for the command list.", nil)
}

// reply sends a message, surfacing send failures to the log only; there is no
// further channel back to the user.
func (r *Router) reply(ctx context.Context, chatID int64, text string, markup any) error {
	if chatID == 0 {
		return nil
	}
	_, err := r.messenger.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		r.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}

func (r *Router) publish(ctx context.Context, eventType events.EventType, callerID int64, payload any) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CallerID:  callerID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func (r *Router) logFailure(upd *domain.Update, err error) {
	appErr := util.Classify(err)
	fields := []zap.Field{
		zap.Int64("update_id", upd.EventID),
		zap.String("class", string(appErr.Class)),
		zap.Error(err),
	}
	if upd.Caller != nil {
		fields = append(fields, zap.Int64("caller_id", upd.Caller.ID))
	}
	if appErr.Class == util.ClassInternal || appErr.Class == util.ClassTransport {
		r.logger.Error("update handling failed", fields...)
	} else {
		r.logger.Info("update rejected", fields...)
	}
}

func updateKind(upd *domain.Update) string {
	switch {
	case upd.Button != nil:
		return "button"
	case upd.Attachment != nil:
		return string(upd.Attachment.Kind)
	case upd.Contact != nil:
		return "contact"
	case upd.Command != "":
		return "command"
	default:
		return "text"
	}
}

// uploadFailureText picks the most specific user-facing phrasing for a failed
// upload transaction.
func uploadFailureText(err error) string {
	var stepErr *service.UploadError
	if !errors.As(err, &stepErr) {
		return util.Classify(err).Message
	}

	appErr := util.Classify(stepErr.Err)
	if appErr.Class == util.ClassBackend {
		// Backend messages are user-appropriate, pass them through.
		return "Upload failed: " + appErr.Message
	}

	switch stepErr.Step {
	case service.StepPresign:
		return "Upload failed: could not reserve an upload slot. Please try again."
	case service.StepFetch:
		return "Upload failed: could not download the file from the messenger. Please try again."
	case service.StepTransfer:
		return "Upload failed: could not transfer the file to storage. Please try again."
	case service.StepConfirm:
		return "Upload failed: the transfer finished but could not be confirmed. Please try again."
	}
	return util.Classify(err).Message
}
