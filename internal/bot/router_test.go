package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type fakeMessenger struct {
	sent     []telegram.SendMessageRequest
	edits    []telegram.EditMessageTextRequest
	answered []string
}

func (f *fakeMessenger) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	f.sent = append(f.sent, req)
	return &telegram.Message{MessageID: 99, Chat: telegram.Chat{ID: req.ChatID}}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, req telegram.EditMessageTextRequest) error {
	f.edits = append(f.edits, req)
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, queryID, _ string) error {
	f.answered = append(f.answered, queryID)
	return nil
}

func (f *fakeMessenger) lastSent(t *testing.T) telegram.SendMessageRequest {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) lastEdit(t *testing.T) telegram.EditMessageTextRequest {
	t.Helper()
	require.NotEmpty(t, f.edits)
	return f.edits[len(f.edits)-1]
}

type fakeBackendAPI struct {
	calls   []string
	files   []domain.FileRecord
	listErr error
}

func (f *fakeBackendAPI) ListFiles(_ context.Context, _ int64) (*backend.ListFilesResponse, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &backend.ListFilesResponse{Files: f.files}, nil
}

func (f *fakeBackendAPI) GetLinksWithViews(_ context.Context, req backend.LinksWithViewsRequest) (*backend.LinksWithViewsResponse, error) {
	f.calls = append(f.calls, "links")
	total := len(f.files)
	totalPages := (total + req.Limit - 1) / req.Limit
	start := (req.Page - 1) * req.Limit
	links := []domain.FileRecord{}
	if start < total {
		end := start + req.Limit
		if end > total {
			end = total
		}
		links = f.files[start:end]
	}
	return &backend.LinksWithViewsResponse{
		Links: links,
		Pagination: domain.Pagination{
			Page: req.Page, Limit: req.Limit, Total: total, TotalPages: totalPages,
		},
	}, nil
}

func (f *fakeBackendAPI) DeleteShareLink(_ context.Context, _ int64, _ string) error {
	f.calls = append(f.calls, "deletelink")
	return nil
}

func (f *fakeBackendAPI) UpdatePhone(_ context.Context, _ int64, _ string) error {
	f.calls = append(f.calls, "updatephone")
	return nil
}

func (f *fakeBackendAPI) DeleteAccount(_ context.Context, _ int64) error {
	f.calls = append(f.calls, "deleteaccount")
	return nil
}

type fakeUploader struct {
	calls     []string
	result    *service.UploadResult
	err       error
	legacyErr error
}

func (f *fakeUploader) Upload(_ context.Context, _ domain.Caller, _ domain.Attachment) (*service.UploadResult, error) {
	f.calls = append(f.calls, "upload")
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeUploader) UploadLegacy(_ context.Context, _ domain.Caller, _ domain.Attachment) (*service.UploadResult, error) {
	f.calls = append(f.calls, "legacy")
	if f.legacyErr != nil {
		return nil, f.legacyErr
	}
	return f.result, nil
}

type fakeSessions struct {
	calls     int
	forgotten []int64
	err       error
}

func (f *fakeSessions) EnsureRegistered(_ context.Context, _ domain.Caller) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	return "tok", f.calls == 1, nil
}

func (f *fakeSessions) Forget(callerID int64) {
	f.forgotten = append(f.forgotten, callerID)
}

type routerFixture struct {
	router    *Router
	messenger *fakeMessenger
	backend   *fakeBackendAPI
	uploader  *fakeUploader
	sessions  *fakeSessions
}

func newFixture(legacyFallback bool) *routerFixture {
	f := &routerFixture{
		messenger: &fakeMessenger{},
		backend:   &fakeBackendAPI{},
		uploader:  &fakeUploader{result: &service.UploadResult{ShareableLink: "https://share/x", Filename: "a.txt", Size: 5}},
		sessions:  &fakeSessions{},
	}
	f.router = NewRouter(RouterDependencies{
		Dedup:      cache.NewDeduplicator(100),
		Sessions:   f.sessions,
		Backend:    f.backend,
		Uploader:   f.uploader,
		Messenger:  f.messenger,
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
	}, legacyFallback, zap.NewNop())
	return f
}

func messageUpdate(eventID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: eventID,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: 7, FirstName: "Ada"},
			Chat:      telegram.Chat{ID: 55},
			Text:      text,
		},
	}
}

func callbackUpdate(eventID int64, data string) telegram.Update {
	return telegram.Update{
		UpdateID: eventID,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    &telegram.User{ID: 7, FirstName: "Ada"},
			Message: &telegram.Message{MessageID: 10, Chat: telegram.Chat{ID: 55}},
			Data:    data,
		},
	}
}

func documentUpdate(eventID int64, size int64) telegram.Update {
	upd := messageUpdate(eventID, "")
	upd.Message.Document = &telegram.Document{
		FileID:   "src-1",
		FileName: "a.txt",
		MimeType: "text/plain",
		FileSize: size,
	}
	return upd
}

func TestDuplicateUpdateProducesNoSideEffect(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	f.router.HandleUpdate(ctx, messageUpdate(1, "/status"))
	require.Equal(t, []string{"list"}, f.backend.calls)
	require.Len(t, f.messenger.sent, 1)

	f.router.HandleUpdate(ctx, messageUpdate(1, "/status"))
	assert.Equal(t, []string{"list"}, f.backend.calls, "replay must not reach the backend")
	assert.Len(t, f.messenger.sent, 1, "replay must not produce a reply")
}

func TestMissingSenderIdentity(t *testing.T) {
	f := newFixture(false)
	upd := messageUpdate(1, "/start")
	upd.Message.From = nil

	f.router.HandleUpdate(context.Background(), upd)

	assert.Zero(t, f.sessions.calls)
	assert.Contains(t, f.messenger.lastSent(t).Text, "could not identify your account")
}

func TestStartWelcomesNewAndReturning(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	f.router.HandleUpdate(ctx, messageUpdate(1, "/start"))
	assert.Contains(t, f.messenger.lastSent(t).Text, "Welcome, Ada!")

	f.router.HandleUpdate(ctx, messageUpdate(2, "/start"))
	assert.Contains(t, f.messenger.lastSent(t).Text, "Welcome back, Ada!")
}

func TestSessionFailureIsDowngraded(t *testing.T) {
	f := newFixture(false)
	f.sessions.err = util.NewBackendError(500, "registration unavailable")

	f.router.HandleUpdate(context.Background(), messageUpdate(1, "/start"))

	assert.Equal(t, "registration unavailable", f.messenger.lastSent(t).Text)
}

func TestContactForwardingRejected(t *testing.T) {
	f := newFixture(false)
	upd := messageUpdate(1, "")
	upd.Message.Contact = &telegram.Contact{PhoneNumber: "+100", FirstName: "Eve", UserID: 8}

	f.router.HandleUpdate(context.Background(), upd)

	assert.NotContains(t, f.backend.calls, "updatephone", "third-party contact must never reach the backend")
	assert.Contains(t, f.messenger.lastSent(t).Text, "your own contact")
}

func TestContactVerified(t *testing.T) {
	f := newFixture(false)
	upd := messageUpdate(1, "")
	upd.Message.Contact = &telegram.Contact{PhoneNumber: "+100", FirstName: "Ada", UserID: 7}

	f.router.HandleUpdate(context.Background(), upd)

	assert.Contains(t, f.backend.calls, "updatephone")
	assert.Contains(t, f.messenger.lastSent(t).Text, "verified")
}

func TestInvalidPageToken(t *testing.T) {
	f := newFixture(false)

	f.router.HandleUpdate(context.Background(), callbackUpdate(1, "links:abc"))

	assert.Empty(t, f.backend.calls)
	assert.Equal(t, "invalid page", f.messenger.lastSent(t).Text)
}

func TestLinksPageNavigation(t *testing.T) {
	f := newFixture(false)
	for i := 0; i < 12; i++ {
		f.backend.files = append(f.backend.files, domain.FileRecord{
			FSObjectID: "obj", Filename: "f.txt", Size: 10, ShareableLink: "https://share/f",
		})
	}

	f.router.HandleUpdate(context.Background(), callbackUpdate(1, "links:2"))

	edit := f.messenger.lastEdit(t)
	assert.Equal(t, 10, edit.MessageID, "listing is rewritten in place")
	assert.Contains(t, edit.Text, "page 2 of 3")
}

func TestDeleteAccountCancelAndConfirm(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	f.router.HandleUpdate(ctx, callbackUpdate(1, "da_no"))
	assert.NotContains(t, f.backend.calls, "deleteaccount")
	assert.Empty(t, f.sessions.forgotten)
	assert.Contains(t, f.messenger.lastEdit(t).Text, "cancelled")

	f.router.HandleUpdate(ctx, callbackUpdate(2, "da_yes"))
	assert.Contains(t, f.backend.calls, "deleteaccount")
	assert.Equal(t, []int64{7}, f.sessions.forgotten, "cached token must be dropped after deletion")
	assert.Contains(t, f.messenger.lastEdit(t).Text, "deleted")
}

func TestDeleteLinkSelection(t *testing.T) {
	f := newFixture(false)

	f.router.HandleUpdate(context.Background(), callbackUpdate(1, "dl:obj-3"))

	assert.Contains(t, f.backend.calls, "deletelink")
	assert.Contains(t, f.messenger.lastEdit(t).Text, "Link deleted")
}

func TestUploadHappyPath(t *testing.T) {
	f := newFixture(false)

	f.router.HandleUpdate(context.Background(), documentUpdate(1, 5))

	require.Equal(t, []string{"upload"}, f.uploader.calls)
	assert.Contains(t, f.messenger.lastSent(t).Text, "Receiving a.txt")
	edit := f.messenger.lastEdit(t)
	assert.Equal(t, 99, edit.MessageID, "outcome edits the status message in place")
	assert.Contains(t, edit.Text, "https://share/x")
}

func TestUploadPolicyRejection(t *testing.T) {
	f := newFixture(false)
	f.uploader.err = util.NewPolicyRejection("file is too large: the limit is 20 MB")

	f.router.HandleUpdate(context.Background(), documentUpdate(1, 25<<20))

	assert.Contains(t, f.messenger.lastEdit(t).Text, "too large")
}

func TestUploadStepFailurePhrasing(t *testing.T) {
	f := newFixture(false)
	f.uploader.err = &service.UploadError{Step: service.StepTransfer, Err: assert.AnError}

	f.router.HandleUpdate(context.Background(), documentUpdate(1, 5))

	assert.Contains(t, f.messenger.lastEdit(t).Text, "transfer the file to storage")
	assert.Equal(t, []string{"upload"}, f.uploader.calls, "no automatic retry across steps")
}

func TestLegacyFallbackOnPresignFailure(t *testing.T) {
	f := newFixture(true)
	f.uploader.err = &service.UploadError{Step: service.StepPresign, Err: assert.AnError}

	f.router.HandleUpdate(context.Background(), documentUpdate(1, 5))

	assert.Equal(t, []string{"upload", "legacy"}, f.uploader.calls)
	assert.Contains(t, f.messenger.lastEdit(t).Text, "https://share/x")
}

func TestLegacyFallbackDisabled(t *testing.T) {
	f := newFixture(false)
	f.uploader.err = &service.UploadError{Step: service.StepPresign, Err: assert.AnError}

	f.router.HandleUpdate(context.Background(), documentUpdate(1, 5))

	assert.Equal(t, []string{"upload"}, f.uploader.calls)
	assert.Contains(t, f.messenger.lastEdit(t).Text, "upload slot")
}

func TestFallbackReply(t *testing.T) {
	f := newFixture(false)

	f.router.HandleUpdate(context.Background(), messageUpdate(1, "what is this"))

	assert.Contains(t, f.messenger.lastSent(t).Text, "/help")
}

func TestNormalizeMediaVariants(t *testing.T) {
	photo := telegram.Update{UpdateID: 1, Message: &telegram.Message{
		From: &telegram.User{ID: 7},
		Chat: telegram.Chat{ID: 55},
		Photo: []telegram.PhotoSize{
			{FileID: "small", FileSize: 100},
			{FileID: "large", FileSize: 900},
		},
	}}
	norm := Normalize(photo)
	require.NotNil(t, norm.Attachment)
	assert.Equal(t, domain.MediaPhoto, norm.Attachment.Kind)
	assert.Equal(t, "large", norm.Attachment.SourceFileID, "largest rendition wins")
	assert.Equal(t, "image/jpeg", norm.Attachment.ContentType)

	voice := telegram.Update{UpdateID: 2, Message: &telegram.Message{
		From:  &telegram.User{ID: 7},
		Chat:  telegram.Chat{ID: 55},
		Voice: &telegram.Voice{FileID: "v-1", MimeType: "audio/ogg", FileSize: 5},
	}}
	norm = Normalize(voice)
	require.NotNil(t, norm.Attachment)
	assert.Equal(t, domain.MediaVoice, norm.Attachment.Kind)
	assert.Equal(t, "voice.ogg", norm.Attachment.Filename)

	video := telegram.Update{UpdateID: 3, Message: &telegram.Message{
		From:  &telegram.User{ID: 7},
		Chat:  telegram.Chat{ID: 55},
		Video: &telegram.Video{FileID: "vid-1", MimeType: "video/mp4", FileSize: 5},
	}}
	norm = Normalize(video)
	require.NotNil(t, norm.Attachment)
	assert.Equal(t, "video.mp4", norm.Attachment.Filename)
}
