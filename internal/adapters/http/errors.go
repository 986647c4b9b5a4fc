package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, unknown_relation, parsing_failed, ...
	Message   string `json:"message"` // Human-readable message
	Field     string `json:"field,omitempty"`
	Index     *int   `json:"index,omitempty"` // failing query of a batch
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return writeError(c, APIError{Status: status, Code: code, Message: message})
}

func writeError(c *fiber.Ctx, e APIError) error {
	e.RequestID, _ = c.Locals("requestid").(string)
	return c.Status(e.Status).JSON(e)
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errDomain maps an error returned by the core services onto a response.
// Unknown errors are logged and reported as internal errors without detail.
func errDomain(c *fiber.Ctx, err error) error {
	e := classify(err)
	if e.Status >= 500 {
		LoggerFromCtx(c.UserContext()).Error("request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	var item *usecases.BatchItemError
	if errors.As(err, &item) {
		idx := item.Index
		e.Index = &idx
	}
	return writeError(c, e)
}

func classify(err error) APIError {
	var validation *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnknownRelation):
		return APIError{Status: 422, Code: "unknown_relation", Message: err.Error()}
	case errors.As(err, &validation):
		return APIError{Status: 422, Code: "validation_failed", Message: validation.Error(), Field: validation.Field}
	case errors.Is(err, domain.ErrValidation):
		return APIError{Status: 422, Code: "validation_failed", Message: err.Error()}
	case errors.Is(err, domain.ErrLowConfidence):
		return APIError{Status: 422, Code: "low_confidence", Message: err.Error()}
	case errors.Is(err, domain.ErrParsing):
		return APIError{Status: 502, Code: "parsing_failed", Message: parsingMessage(err)}
	case errors.Is(err, domain.ErrGeometryInput):
		return APIError{Status: 400, Code: "geometry_input", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return APIError{Status: 404, Code: "not_found", Message: err.Error()}
	case errors.Is(err, usecases.ErrBatchUnavailable):
		return APIError{Status: 503, Code: "unavailable", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return APIError{Status: 504, Code: "timeout", Message: "request timed out"}
	default:
		return APIError{Status: 500, Code: "internal_error", Message: "internal error"}
	}
}

// parsingMessage hides the model's raw output and transport detail.
func parsingMessage(err error) string {
	var pe *domain.ParsingError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
