package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/datalumen/lumen/internal/domain"
	"github.com/datalumen/lumen/internal/metric"
)

const maxBatchSize = 1000

// IngestHandler accepts metric observations over HTTP.
type IngestHandler struct {
	repo     *metric.Repository
	registry *metric.Registry
	logger   *slog.Logger
}

func NewIngestHandler(repo *metric.Repository, registry *metric.Registry, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

type observationRequest struct {
	Name       string                 `json:"name"`
	Value      float64                `json:"value"`
	OccurredAt *time.Time             `json:"occurred_at"`
	Source     string                 `json:"source"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (r *observationRequest) toObservation(registry *metric.Registry) (*metric.Observation, error) {
	if r.Name == "" {
		return nil, domain.ErrValidation.WithMessage("name is required")
	}
	if !registry.Has(r.Name) {
		return nil, domain.ErrUnknownMetric.WithMessage(fmt.Sprintf("unknown metric %q", r.Name))
	}

	occurredAt := time.Now().UTC()
	if r.OccurredAt != nil {
		occurredAt = r.OccurredAt.UTC()
	}

	return &metric.Observation{
		Name:       r.Name,
		Value:      r.Value,
		OccurredAt: occurredAt,
		Source:     r.Source,
		Metadata:   r.Metadata,
	}, nil
}

// Create handles POST /v1/metrics
func (h *IngestHandler) Create(c *fiber.Ctx) error {
	var req observationRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidation.WithMessage("invalid request body")
	}

	obs, err := req.toObservation(h.registry)
	if err != nil {
		return err
	}

	if err := h.repo.Insert(c.Context(), obs); err != nil {
		h.logger.Error("failed to insert observation", slog.Any("error", err), slog.String("metric", obs.Name))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(obs)
}

// CreateBatch handles POST /v1/metrics/batch
func (h *IngestHandler) CreateBatch(c *fiber.Ctx) error {
	var reqs []observationRequest
	if err := c.BodyParser(&reqs); err != nil {
		return domain.ErrValidation.WithMessage("invalid request body, expected a JSON array")
	}
	if len(reqs) == 0 {
		return domain.ErrValidation.WithMessage("batch must not be empty")
	}
	if len(reqs) > maxBatchSize {
		return domain.ErrValidation.WithMessage(fmt.Sprintf("batch exceeds %d observations", maxBatchSize))
	}

	observations := make([]*metric.Observation, 0, len(reqs))
	for i := range reqs {
		obs, err := reqs[i].toObservation(h.registry)
		if err != nil {
			var appErr *domain.AppError
			if errors.As(err, &appErr) {
				return appErr.WithMessage(fmt.Sprintf("observation %d: %s", i, appErr.Message))
			}
			return domain.ErrValidation.WithError(err)
		}
		observations = append(observations, obs)
	}

	if err := h.repo.InsertBatch(c.Context(), observations); err != nil {
		h.logger.Error("failed to insert batch", slog.Any("error", err), slog.Int("size", len(observations)))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"inserted": len(observations)})
}
