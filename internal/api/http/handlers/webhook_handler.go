package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/bot"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
)

// WebhookHandler receives provider-pushed updates on the secret path.
type WebhookHandler struct {
	router *bot.Router
	logger *zap.Logger
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(router *bot.Router, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{router: router, logger: logger}
}

// Handle parses one update and dispatches it. It always answers 200 so the
// provider does not redeliver: failures are handled and reported in-chat by
// the router, not via HTTP status.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var upd telegram.Update
	if err := c.BodyParser(&upd); err != nil {
		h.logger.Warn("unparseable webhook payload", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}

	h.router.HandleUpdate(c.UserContext(), upd)
	return c.SendStatus(fiber.StatusOK)
}
