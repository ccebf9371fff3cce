package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/orchestrator"
	"github.com/Cordycepsers/final-transcript/internal/revai"
)

// WebhookHandler receives form-response webhooks and provider callbacks
// on a single route.
type WebhookHandler struct {
	orchestrator *orchestrator.Orchestrator
	log          *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(o *orchestrator.Orchestrator, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		orchestrator: o,
		log:          log.WithComponent("webhook_handler"),
	}
}

// Handle dispatches an incoming POST by payload shape: bodies carrying a
// job envelope are provider callbacks, everything else is treated as a
// form response.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	if orchestrator.IsProviderCallback(body) {
		return h.handleCallback(c, body)
	}

	event, err := orchestrator.ParseWebhookEvent(body)
	if err != nil {
		h.log.WithError(err).Warn("Rejected unparseable webhook payload")
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid webhook payload",
			"code":  "ERR_BAD_PAYLOAD",
		})
	}

	result := h.orchestrator.ProcessWebhook(c.Context(), event)
	return c.JSON(result)
}

// Provider callbacks are always answered with 200 so the provider does
// not keep redelivering; failures travel in the response body instead.
func (h *WebhookHandler) handleCallback(c *fiber.Ctx, body []byte) error {
	cb, err := revai.ParseCallback(body)
	if err != nil {
		h.log.WithError(err).Warn("Rejected malformed provider callback")
		return c.JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}

	if err := h.orchestrator.HandleCallback(c.Context(), cb); err != nil {
		h.log.WithError(err).WithField("job_id", cb.Job.ID).Error("Callback processing failed")
		return c.JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "processed",
	})
}
