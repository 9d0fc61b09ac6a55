package handlers

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/response"
)

// CronHandler exposes the delivery processors to the external scheduler
type CronHandler struct {
	processor DeliveryProcessor
	logger    *slog.Logger
	now       func() time.Time
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(processor DeliveryProcessor, log *slog.Logger) *CronHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CronHandler{processor: processor, logger: log, now: time.Now}
}

// ScheduledEmails handles GET|POST /api/cron/scheduled-emails.
// Per-record failures are reported in the batch result.
func (h *CronHandler) ScheduledEmails(c echo.Context) error {
	result, err := h.processor.ProcessScheduled(c.Request().Context(), h.now().UTC())
	if err != nil {
		return respondError(c, h.logger, "failed to process scheduled emails", err)
	}

	h.logger.Info("scheduled emails processed",
		slog.Int("processed", result.Processed),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)
	return response.Success(c, result)
}

// Snoozes handles GET|POST /api/cron/snoozes
func (h *CronHandler) Snoozes(c echo.Context) error {
	result, err := h.processor.ProcessSnoozed(c.Request().Context(), h.now().UTC())
	if err != nil {
		return respondError(c, h.logger, "failed to process snoozes", err)
	}

	h.logger.Info("snoozes processed",
		slog.Int("processed", result.Processed),
		slog.Int("resurfaced", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)
	return response.Success(c, result)
}
