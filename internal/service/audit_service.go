package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/events"
	"github.com/spec-kit/filedrop-bot/internal/observability"
)

// AuditService records state-changing domain events for operators. Duplicate
// drops and upload outcomes end up in logs and counters, never in chat.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.logEvent)
	a.dispatcher.Subscribe(events.EventUploadCompleted, a.handleUploadCompleted)
	a.dispatcher.Subscribe(events.EventUploadFailed, a.handleUploadFailed)
	a.dispatcher.Subscribe(events.EventLinkDeleted, a.logEvent)
	a.dispatcher.Subscribe(events.EventAccountDeleted, a.logEvent)
	a.dispatcher.Subscribe(events.EventPhoneVerified, a.logEvent)
}

func (a *AuditService) handleUploadCompleted(ctx context.Context, event events.Event) error {
	a.metrics.RecordUpload("completed")
	return a.logEvent(ctx, event)
}

func (a *AuditService) handleUploadFailed(ctx context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.UploadFailedPayload); ok {
		a.metrics.RecordUpload(payload.Step)
	} else {
		a.metrics.RecordUpload("failed")
	}
	return a.logEvent(ctx, event)
}

func (a *AuditService) logEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("caller_id", event.CallerID),
		zap.Any("payload", event.Payload))
	return nil
}
