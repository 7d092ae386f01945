package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/datalumen/lumen/internal/alert"
	"github.com/datalumen/lumen/internal/domain"
	"github.com/datalumen/lumen/internal/metric"
)

const defaultEventLimit = 50

// AlertHandler manages threshold alert rules.
type AlertHandler struct {
	repo     *alert.Repository
	registry *metric.Registry
	logger   *slog.Logger
}

func NewAlertHandler(repo *alert.Repository, registry *metric.Registry, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

type createAlertRequest struct {
	Name            string  `json:"name"`
	Metric          string  `json:"metric"`
	Operator        string  `json:"operator"`
	Threshold       float64 `json:"threshold"`
	WindowSeconds   int     `json:"window_seconds"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	Severity        string  `json:"severity"`
	Enabled         *bool   `json:"enabled"`
}

// Create handles POST /v1/alerts
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var req createAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation.WithMessage("invalid request body")
	}

	if req.Name == "" {
		return domain.ErrValidation.WithMessage("name is required")
	}
	if !h.registry.Has(req.Metric) {
		return domain.ErrUnknownMetric.WithMessage(fmt.Sprintf("unknown metric %q", req.Metric))
	}
	operator := alert.Operator(req.Operator)
	if !operator.Valid() {
		return domain.ErrValidation.WithMessage("operator must be one of: gt, gte, lt, lte")
	}
	if req.WindowSeconds <= 0 {
		return domain.ErrValidation.WithMessage("window_seconds must be positive")
	}
	if req.CooldownSeconds < 0 {
		return domain.ErrValidation.WithMessage("cooldown_seconds must not be negative")
	}
	severity := alert.Severity(req.Severity)
	if req.Severity == "" {
		severity = alert.SeverityWarning
	}
	if !severity.Valid() {
		return domain.ErrValidation.WithMessage("severity must be one of: info, warning, critical")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := &alert.Rule{
		Name:            req.Name,
		Metric:          req.Metric,
		Operator:        operator,
		Threshold:       req.Threshold,
		WindowSeconds:   req.WindowSeconds,
		CooldownSeconds: req.CooldownSeconds,
		Severity:        severity,
		Enabled:         enabled,
	}

	if err := h.repo.Create(c.Context(), rule); err != nil {
		h.logger.Error("failed to create alert rule", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

// List handles GET /v1/alerts
func (h *AlertHandler) List(c *fiber.Ctx) error {
	rules, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list alert rules", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(fiber.Map{"data": rules})
}

// Get handles GET /v1/alerts/:id
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidation.WithMessage("invalid alert rule id")
	}

	rule, err := h.repo.GetByID(c.Context(), id)
	if errors.Is(err, domain.ErrAlertNotFound) {
		return domain.ErrAlertNotFound
	}
	if err != nil {
		h.logger.Error("failed to get alert rule", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(rule)
}

// Delete handles DELETE /v1/alerts/:id
func (h *AlertHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidation.WithMessage("invalid alert rule id")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return domain.ErrAlertNotFound
		}
		h.logger.Error("failed to delete alert rule", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListEvents handles GET /v1/alerts/:id/events
func (h *AlertHandler) ListEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidation.WithMessage("invalid alert rule id")
	}

	limit := c.QueryInt("limit", defaultEventLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultEventLimit
	}

	// 404 for unknown rules rather than an empty list.
	if _, err := h.repo.GetByID(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return domain.ErrAlertNotFound
		}
		h.logger.Error("failed to get alert rule", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	events, err := h.repo.ListEvents(c.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list alert events", slog.Any("error", err), slog.String("id", id.String()))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(fiber.Map{"data": events})
}
