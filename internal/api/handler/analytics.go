package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/datalumen/lumen/internal/analytics"
	"github.com/datalumen/lumen/internal/domain"
	"github.com/datalumen/lumen/internal/metric"
)

// AnalyticsHandler exposes the aggregation endpoints that back the dashboard.
type AnalyticsHandler struct {
	service *analytics.Service
	logger  *slog.Logger
}

func NewAnalyticsHandler(service *analytics.Service, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// GetTimeSeries handles GET /v1/analytics/timeseries
func (h *AnalyticsHandler) GetTimeSeries(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return err
	}

	granularity := metric.Granularity(c.Query("granularity", string(metric.GranularityDay)))
	if !granularity.Valid() {
		return domain.ErrValidation.WithMessage("granularity must be one of: hour, day, week, month")
	}

	metrics := splitMetrics(c.Query("metrics"))
	if len(metrics) == 0 {
		return domain.ErrValidation.WithMessage("metrics parameter is required, expected a comma-separated list")
	}

	rows, err := h.service.GetTimeSeries(c.Context(), analytics.TimeSeriesParams{
		StartDate:   start,
		EndDate:     end,
		Granularity: granularity,
		Metrics:     metrics,
		Source:      c.Query("source"),
	})
	if err != nil {
		h.logger.Error("time series query failed", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(fiber.Map{"data": rows})
}

// GetKPIs handles GET /v1/analytics/kpis
func (h *AnalyticsHandler) GetKPIs(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return err
	}

	resp, err := h.service.GetKPIs(c.Context(), start, end)
	if err != nil {
		h.logger.Error("kpi query failed", slog.Any("error", err))
		return domain.ErrDataLayer.WithError(err)
	}

	return c.JSON(resp)
}

func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrValidation.WithMessage("invalid start_date, expected YYYY-MM-DD")
	}

	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrValidation.WithMessage("invalid end_date, expected YYYY-MM-DD")
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, domain.ErrValidation.WithMessage("start_date must be before or equal to end_date")
	}

	return start, end, nil
}

func splitMetrics(raw string) []string {
	parts := strings.Split(raw, ",")
	metrics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			metrics = append(metrics, p)
		}
	}
	return metrics
}
