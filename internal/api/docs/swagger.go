package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ObservationResponse represents a stored metric observation
type ObservationResponse struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string  `json:"name" example:"page_views"`
	Value      float64 `json:"value" example:"42"`
	OccurredAt string  `json:"occurred_at" example:"2025-01-02T10:00:00Z"`
	Source     string  `json:"source" example:"web"`
	CreatedAt  string  `json:"created_at" example:"2025-01-02T10:00:01Z"`
}

// ObservationRequest represents one metric observation to ingest
type ObservationRequest struct {
	Name       string                 `json:"name" example:"page_views"`
	Value      float64                `json:"value" example:"42"`
	OccurredAt string                 `json:"occurred_at,omitempty" example:"2025-01-02T10:00:00Z"`
	Source     string                 `json:"source,omitempty" example:"web"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// BatchInsertResponse reports how many observations a batch stored
type BatchInsertResponse struct {
	Inserted int `json:"inserted" example:"250"`
}

// TimeSeriesResponse wraps the pivoted time series rows
type TimeSeriesResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// TrendPointData is one point of a KPI daily trend
type TrendPointData struct {
	Date  string  `json:"date" example:"2025-01-01"`
	Value float64 `json:"value" example:"120"`
}

// KPIData is one KPI card with period-over-period comparison
type KPIData struct {
	ID            string           `json:"id" example:"page_views"`
	Label         string           `json:"label" example:"Page Views"`
	Value         float64          `json:"value" example:"1250"`
	PreviousValue float64          `json:"previousValue" example:"980"`
	Format        string           `json:"format" example:"number"`
	Trend         []TrendPointData `json:"trend"`
}

// PeriodData describes one comparison window
type PeriodData struct {
	Start string `json:"start" example:"2025-01-08"`
	End   string `json:"end" example:"2025-01-14"`
}

// KPIPeriodData holds the current and previous comparison windows
type KPIPeriodData struct {
	Current  PeriodData `json:"current"`
	Previous PeriodData `json:"previous"`
}

// KPIsResponse is the full KPI engine payload
type KPIsResponse struct {
	KPIs   []KPIData     `json:"kpis"`
	Period KPIPeriodData `json:"period"`
}

// ReportRequest creates a scheduled report definition
type ReportRequest struct {
	Name        string   `json:"name" example:"Weekly traffic summary"`
	Metrics     []string `json:"metrics" example:"page_views,sessions"`
	Granularity string   `json:"granularity" example:"day"`
	Source      string   `json:"source,omitempty" example:"web"`
	Schedule    string   `json:"schedule" example:"weekly"`
}

// ReportResponse represents a stored report definition
type ReportResponse struct {
	ID          string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string   `json:"name" example:"Weekly traffic summary"`
	Metrics     []string `json:"metrics" example:"page_views,sessions"`
	Granularity string   `json:"granularity" example:"day"`
	Source      string   `json:"source,omitempty" example:"web"`
	Schedule    string   `json:"schedule" example:"weekly"`
	LastRunAt   string   `json:"last_run_at,omitempty" example:"2025-01-06T00:01:00Z"`
	CreatedAt   string   `json:"created_at" example:"2025-01-01T12:00:00Z"`
	UpdatedAt   string   `json:"updated_at" example:"2025-01-06T00:01:00Z"`
}

// ReportListResponse wraps report definitions
type ReportListResponse struct {
	Data []ReportResponse `json:"data"`
}

// AlertRuleRequest creates a threshold alert rule
type AlertRuleRequest struct {
	Name            string  `json:"name" example:"traffic spike"`
	Metric          string  `json:"metric" example:"page_views"`
	Operator        string  `json:"operator" example:"gt"`
	Threshold       float64 `json:"threshold" example:"1000"`
	WindowSeconds   int     `json:"window_seconds" example:"300"`
	CooldownSeconds int     `json:"cooldown_seconds" example:"600"`
	Severity        string  `json:"severity" example:"warning"`
	Enabled         bool    `json:"enabled" example:"true"`
}

// AlertRuleResponse represents a stored alert rule
type AlertRuleResponse struct {
	ID              string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name            string  `json:"name" example:"traffic spike"`
	Metric          string  `json:"metric" example:"page_views"`
	Operator        string  `json:"operator" example:"gt"`
	Threshold       float64 `json:"threshold" example:"1000"`
	WindowSeconds   int     `json:"window_seconds" example:"300"`
	CooldownSeconds int     `json:"cooldown_seconds" example:"600"`
	Severity        string  `json:"severity" example:"warning"`
	Enabled         bool    `json:"enabled" example:"true"`
	LastTriggeredAt string  `json:"last_triggered_at,omitempty" example:"2025-01-06T00:01:00Z"`
	CreatedAt       string  `json:"created_at" example:"2025-01-01T12:00:00Z"`
	UpdatedAt       string  `json:"updated_at" example:"2025-01-06T00:01:00Z"`
}

// AlertRuleListResponse wraps alert rules
type AlertRuleListResponse struct {
	Data []AlertRuleResponse `json:"data"`
}

// AlertEventResponse records one firing of an alert rule
type AlertEventResponse struct {
	ID          string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RuleID      string  `json:"rule_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	TriggeredAt string  `json:"triggered_at" example:"2025-01-06T00:01:00Z"`
	Value       float64 `json:"value" example:"1250"`
	Threshold   float64 `json:"threshold" example:"1000"`
	CreatedAt   string  `json:"created_at" example:"2025-01-06T00:01:00Z"`
}

// AlertEventListResponse wraps alert events
type AlertEventListResponse struct {
	Data []AlertEventResponse `json:"data"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_ERROR"`
	Message string `json:"message" example:"Invalid request parameters"`
}

// HealthResponse represents the service health payload
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Lumen Analytics API",
		Version:     "v1.0.0",
		Description: "Business analytics backend: metric ingestion, time series aggregation, KPI comparison and scheduled reports",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Metrics endpoints

		// POST /v1/metrics - Ingest one observation
		endpoint.New(
			endpoint.POST,
			"/metrics",
			endpoint.WithTags("Metrics"),
			endpoint.WithSummary("Ingest a metric observation"),
			endpoint.WithDescription("Stores one observation for a registered metric. occurred_at defaults to now, source defaults to 'default'."),
			endpoint.WithBody(ObservationRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ObservationResponse{}, "201", "Observation stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "name is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNKNOWN_METRIC", Message: "Metric name is not registered"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/metrics/batch - Ingest a batch of observations
		endpoint.New(
			endpoint.POST,
			"/metrics/batch",
			endpoint.WithTags("Metrics"),
			endpoint.WithSummary("Ingest a batch of metric observations"),
			endpoint.WithDescription("Stores up to 1000 observations in one transaction. The whole batch is rejected if any observation is invalid."),
			endpoint.WithBody([]ObservationRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BatchInsertResponse{}, "201", "Batch stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "batch must not be empty"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNKNOWN_METRIC", Message: "Metric name is not registered"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// Analytics endpoints

		// GET /v1/analytics/timeseries - Aggregated time series
		endpoint.New(
			endpoint.GET,
			"/analytics/timeseries",
			endpoint.WithTags("Analytics"),
			endpoint.WithSummary("Query an aggregated time series"),
			endpoint.WithDescription("Returns one row per time bucket with observations, pivoted so every requested metric appears in every row (0 when absent), sorted by date ascending."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("start_date", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Window start (YYYY-MM-DD, inclusive)")),
				parameter.StrParam("end_date", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Window end (YYYY-MM-DD, inclusive)")),
				parameter.StrParam("metrics", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Comma-separated metric names")),
				parameter.StrParam("granularity", parameter.Query, parameter.WithDescription("Bucket size: hour, day, week or month (default: day)")),
				parameter.StrParam("source", parameter.Query, parameter.WithDescription("Restrict to one source (default: all sources)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TimeSeriesResponse{}, "200", "Time series computed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid start_date, expected YYYY-MM-DD"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/analytics/kpis - KPI summary
		endpoint.New(
			endpoint.GET,
			"/analytics/kpis",
			endpoint.WithTags("Analytics"),
			endpoint.WithSummary("Query the KPI summary"),
			endpoint.WithDescription("Returns every registered metric aggregated over the window, compared against the immediately preceding window of equal length, with a zero-filled daily trend."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("start_date", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Window start (YYYY-MM-DD, inclusive)")),
				parameter.StrParam("end_date", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Window end (YYYY-MM-DD, inclusive)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(KPIsResponse{}, "200", "KPIs computed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid start_date, expected YYYY-MM-DD"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// Reports endpoints

		// POST /v1/reports - Create report definition
		endpoint.New(
			endpoint.POST,
			"/reports",
			endpoint.WithTags("Reports"),
			endpoint.WithSummary("Create a scheduled report definition"),
			endpoint.WithDescription("Registers a report the background worker runs once per completed calendar period."),
			endpoint.WithBody(ReportRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReportResponse{}, "201", "Report definition created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "schedule must be one of: daily, weekly, monthly"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNKNOWN_METRIC", Message: "Metric name is not registered"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/reports - List report definitions
		endpoint.New(
			endpoint.GET,
			"/reports",
			endpoint.WithTags("Reports"),
			endpoint.WithSummary("List report definitions"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReportListResponse{}, "200", "Report definitions listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/reports/:id - Get report definition
		endpoint.New(
			endpoint.GET,
			"/reports/{id}",
			endpoint.WithTags("Reports"),
			endpoint.WithSummary("Get a report definition"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Report definition ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReportResponse{}, "200", "Report definition retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid report id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "REPORT_NOT_FOUND", Message: "Report definition not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/reports/:id - Delete report definition
		endpoint.New(
			endpoint.DELETE,
			"/reports/{id}",
			endpoint.WithTags("Reports"),
			endpoint.WithSummary("Delete a report definition"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Report definition ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "204", "Report definition deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid report id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "REPORT_NOT_FOUND", Message: "Report definition not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// Alerts endpoints

		// POST /v1/alerts - Create alert rule
		endpoint.New(
			endpoint.POST,
			"/alerts",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Create a threshold alert rule"),
			endpoint.WithDescription("Registers a rule the alert worker evaluates on each pass. The rule fires when the metric's windowed aggregate crosses the threshold."),
			endpoint.WithBody(AlertRuleRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertRuleResponse{}, "201", "Alert rule created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "operator must be one of: gt, gte, lt, lte"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNKNOWN_METRIC", Message: "Metric name is not registered"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/alerts - List alert rules
		endpoint.New(
			endpoint.GET,
			"/alerts",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("List alert rules"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertRuleListResponse{}, "200", "Alert rules listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/alerts/:id - Get alert rule
		endpoint.New(
			endpoint.GET,
			"/alerts/{id}",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Get an alert rule"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert rule ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertRuleResponse{}, "200", "Alert rule retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid alert rule id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert rule not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/alerts/:id - Delete alert rule
		endpoint.New(
			endpoint.DELETE,
			"/alerts/{id}",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Delete an alert rule"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert rule ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "204", "Alert rule deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid alert rule id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert rule not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/alerts/:id/events - List alert events
		endpoint.New(
			endpoint.GET,
			"/alerts/{id}/events",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("List firings of an alert rule"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert rule ID")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum events to return (default 50, max 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertEventListResponse{}, "200", "Alert events listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_ERROR", Message: "invalid alert rule id"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert rule not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DATA_LAYER_ERROR", Message: "Failed to query metric data"}, "500", "Internal Server Error"),
			}),
		),

		// System endpoints

		// GET /health - Liveness
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is alive"),
			}),
		),

		// GET /ready - Readiness
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Verifies database connectivity."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
