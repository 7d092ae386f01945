package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/datalumen/lumen/internal/domain"
	"github.com/datalumen/lumen/internal/metric"
	"github.com/datalumen/lumen/internal/report"
)

// ReportHandler manages scheduled report definitions.
type ReportHandler struct {
	repo     *report.Repository
	registry *metric.Registry
	logger   *slog.Logger
}

func NewReportHandler(repo *report.Repository, registry *metric.Registry, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

type createReportRequest struct {
	Name        string   `json:"name"`
	Metrics     []string `json:"metrics"`
	Granularity string   `json:"granularity"`
	Source      string   `json:"source"`
	Schedule    string   `json:"schedule"`
}

// Create handles POST /v1/reports
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var req createReportRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation.WithMessage("invalid request body")
	}

	if req.Name == "" {
		return domain.ErrValidation.WithMessage("name is required")
	}
	if len(req.Metrics) == 0 {
		return domain.ErrValidation.WithMessage("metrics must not be empty")
	}
	for _, name := range req.Metrics {
		if !h.registry.Has(name) {
			return domain.ErrUnknownMetric.WithMessage(fmt.Sprintf("unknown metric %q", name))
		}
	}

	granularity := metric.Granularity(req.Granularity)
	if req.Granularity == "" {
		granularity = metric.GranularityDay
	}
	if !granularity.Valid() {
		return domain.ErrValidation.WithMessage("granularity must be one of: hour, day, week, month")
	}

	schedule := report.Schedule(req.Schedule)
	if !schedule.Valid() {
		return domain.ErrValidation.WithMessage("schedule must be one of: daily, weekly, monthly")
	}

	def := &report.Definition{
		Name:        req.Name,
		Metrics:     req.Metrics,
		Granularity: granularity,
		Source:      req.Source,
		Schedule:    schedule,
	}

	if err := h.repo.Create(c.Context(), def); err != nil {
		h.logger.Error("failed to create report definition", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(def)
}

// List handles GET /v1/reports
func (h *ReportHandler) List(c *fiber.Ctx) error {
	defs, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list report definitions", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(fiber.Map{"data": defs})
}

// Get handles GET /v1/reports/:id
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidation.WithMessage("invalid report id")
	}

	def, err := h.repo.GetByID(c.Context(), id)
	if errors.Is(err, domain.ErrReportNotFound) {
		return domain.ErrReportNotFound
	}
	if err != nil {
		h.logger.Error("failed to get report definition", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(def)
}

// Delete handles DELETE /v1/reports/:id
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidation.WithMessage("invalid report id")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			return domain.ErrReportNotFound
		}
		h.logger.Error("failed to delete report definition", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
