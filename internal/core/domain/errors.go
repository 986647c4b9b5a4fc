package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks. Every typed error below matches ErrGeoQuery
// and its own kind.
var (
	ErrGeoQuery        = errors.New("geoquery processing failed")
	ErrParsing         = errors.New("parsing failed")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownRelation = errors.New("unknown spatial relation")
	ErrLowConfidence   = errors.New("confidence below threshold")
	ErrGeometryInput   = errors.New("invalid geometry input")
	ErrNotFound        = errors.New("not found")
)

// ParsingError means the language model did not produce a usable candidate.
type ParsingError struct {
	Message     string
	RawResponse string
	Cause       error
}

func (e *ParsingError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ParsingError) Unwrap() error { return e.Cause }

func (e *ParsingError) Is(target error) bool {
	return target == ErrParsing || target == ErrGeoQuery
}

// ValidationError means a well-formed candidate broke a business rule.
type ValidationError struct {
	Message string
	Field   string
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s: %s)", e.Message, e.Field, e.Detail)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrGeoQuery
}

// UnknownRelationError is a ValidationError for relation names missing from
// the registry. Known holds every registered name, sorted.
type UnknownRelationError struct {
	Name  string
	Known []string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("Unknown spatial relation: '%s'. Available relations: %s",
		e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownRelationError) Is(target error) bool {
	return target == ErrUnknownRelation || target == ErrValidation || target == ErrGeoQuery
}

// LowConfidenceError is returned in strict mode when the overall confidence
// is under the threshold.
type LowConfidenceError struct {
	Confidence float64
	Threshold  float64
	Reasoning  *string
}

func (e *LowConfidenceError) Error() string {
	msg := fmt.Sprintf("confidence %.2f is below threshold %.2f", e.Confidence, e.Threshold)
	if e.Reasoning != nil && *e.Reasoning != "" {
		msg += ": " + *e.Reasoning
	}
	return msg
}

func (e *LowConfidenceError) Is(target error) bool {
	return target == ErrLowConfidence || target == ErrGeoQuery
}

// GeometryInputError signals a caller contract violation in the spatial
// transformation, such as a buffer relation without a buffer config.
type GeometryInputError struct {
	Message string
}

func (e *GeometryInputError) Error() string { return e.Message }

func (e *GeometryInputError) Is(target error) bool {
	return target == ErrGeometryInput || target == ErrGeoQuery
}
