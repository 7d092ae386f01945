package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "Invalid request parameters",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	// ErrDataLayer covers metric store query failures. Cache failures never
	// surface through this type; the result-cache seam swallows them.
	ErrDataLayer = &AppError{
		Code:       "DATA_LAYER_ERROR",
		Message:    "Failed to query metric data",
		StatusCode: 500,
	}

	ErrUnknownMetric = &AppError{
		Code:       "UNKNOWN_METRIC",
		Message:    "Metric name is not registered",
		StatusCode: 422,
	}

	ErrReportNotFound = &AppError{
		Code:       "REPORT_NOT_FOUND",
		Message:    "Report definition not found",
		StatusCode: 404,
	}

	ErrAlertNotFound = &AppError{
		Code:       "ALERT_NOT_FOUND",
		Message:    "Alert rule not found",
		StatusCode: 404,
	}
)
