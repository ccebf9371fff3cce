package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/orchestrator"
	"github.com/Cordycepsers/final-transcript/internal/revai"
)

// ManualHandler serves the direct transcription API: single submissions,
// batches, and job status lookups.
type ManualHandler struct {
	orchestrator *orchestrator.Orchestrator
	log          *logger.Logger
}

// NewManualHandler creates a new manual transcription handler
func NewManualHandler(o *orchestrator.Orchestrator, log *logger.Logger) *ManualHandler {
	return &ManualHandler{
		orchestrator: o,
		log:          log.WithComponent("manual_handler"),
	}
}

// Transcribe processes a single transcription request
func (h *ManualHandler) Transcribe(c *fiber.Ctx) error {
	var req orchestrator.TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_PAYLOAD",
		})
	}

	if msg := h.orchestrator.ValidateRequest(req.MediaURL, req.Email); msg != "" {
		return c.Status(400).JSON(fiber.Map{
			"error": msg,
			"code":  "ERR_VALIDATION",
		})
	}

	resp, err := h.orchestrator.Transcribe(c.Context(), req)
	if err != nil {
		h.log.WithError(err).WithField("media_url", req.MediaURL).Error("Transcription request failed")
		return errorResponse(c, err)
	}

	return c.JSON(resp)
}

// Status reports the current state of a submitted job. Completed jobs
// include the transcript and its quality metrics.
func (h *ManualHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("job_id")

	res, err := h.orchestrator.JobStatus(c.Context(), jobID)
	if err != nil {
		h.log.WithError(err).WithField("job_id", jobID).Error("Status lookup failed")
		return errorResponse(c, err)
	}

	if res.Metrics != nil {
		return c.JSON(fiber.Map{
			"status":          "completed",
			"transcript":      res.Transcript,
			"quality_metrics": res.Metrics,
		})
	}

	return c.JSON(res.Job)
}

// Batch processes several transcription requests in one call. Items fail
// individually; the batch itself always returns 200.
func (h *ManualHandler) Batch(c *fiber.Ctx) error {
	var req struct {
		Requests []orchestrator.BatchItem `json:"requests"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_PAYLOAD",
		})
	}

	if len(req.Requests) == 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "requests array is required",
			"code":  "ERR_VALIDATION",
		})
	}

	return c.JSON(h.orchestrator.TranscribeBatch(c.Context(), req.Requests))
}

// errorResponse maps pipeline errors onto HTTP statuses: caller mistakes
// are 4xx, provider trouble is 5xx gateway territory, everything else is
// an internal error.
func errorResponse(c *fiber.Ctx, err error) error {
	var validationErr *media.ValidationError
	var timeoutErr *revai.TimeoutError
	var failedErr *revai.JobFailedError
	var providerErr *revai.ProviderError
	var configErr *revai.ConfigurationError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(400).JSON(fiber.Map{
			"error": validationErr.Reason,
			"code":  "ERR_VALIDATION",
		})
	case errors.As(err, &timeoutErr):
		return c.Status(504).JSON(fiber.Map{
			"error":  err.Error(),
			"code":   "ERR_TIMEOUT",
			"status": "error",
		})
	case errors.As(err, &failedErr):
		return c.Status(502).JSON(fiber.Map{
			"error":  err.Error(),
			"code":   "ERR_JOB_FAILED",
			"status": "error",
		})
	case errors.As(err, &providerErr):
		return c.Status(502).JSON(fiber.Map{
			"error":  err.Error(),
			"code":   "ERR_PROVIDER",
			"status": "error",
		})
	case errors.As(err, &configErr):
		return c.Status(500).JSON(fiber.Map{
			"error":  err.Error(),
			"code":   "ERR_CONFIGURATION",
			"status": "error",
		})
	default:
		return c.Status(500).JSON(fiber.Map{
			"error":  err.Error(),
			"status": "error",
		})
	}
}
