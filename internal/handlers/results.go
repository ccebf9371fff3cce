package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/orchestrator"
	"github.com/Cordycepsers/final-transcript/internal/storage"
)

// ResultsHandler exposes delivered results: the local ledger listing and
// per-job quality reports.
type ResultsHandler struct {
	orchestrator *orchestrator.Orchestrator
	ledger       *storage.Ledger
	log          *logger.Logger
}

// NewResultsHandler creates a new results handler. The ledger may be nil
// when local result tracking is disabled.
func NewResultsHandler(o *orchestrator.Orchestrator, ledger *storage.Ledger, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		orchestrator: o,
		ledger:       ledger,
		log:          log.WithComponent("results_handler"),
	}
}

// List returns the most recently delivered results, newest first
func (h *ResultsHandler) List(c *fiber.Ctx) error {
	if h.ledger == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Results ledger not configured",
			"code":  "ERR_LEDGER_DISABLED",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.ledger.Recent(limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to list results")
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to list results",
			"code":  "ERR_LEDGER",
		})
	}
	if entries == nil {
		entries = []storage.LedgerEntry{}
	}

	return c.JSON(fiber.Map{
		"results": entries,
		"count":   len(entries),
	})
}

// Quality reports transcript quality for a job without delivering it.
// Jobs still in flight get a pending report rather than an error.
func (h *ResultsHandler) Quality(c *fiber.Ctx) error {
	jobID := c.Params("job_id")

	report, err := h.orchestrator.TranscriptQuality(c.Context(), jobID)
	if err != nil {
		h.log.WithError(err).WithField("job_id", jobID).Error("Quality lookup failed")
		return c.Status(500).JSON(fiber.Map{
			"error":  err.Error(),
			"status": "error",
		})
	}

	return c.JSON(report)
}
