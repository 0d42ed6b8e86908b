package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/barrierfree/internal/adapters/osrm"
	"github.com/samirrijal/barrierfree/internal/adapters/photon"
	"github.com/samirrijal/barrierfree/internal/adapters/wheelmap"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

// Error codes shared by REST responses and websocket error messages.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeInternal           = "internal_error"
	codeUpstream           = "upstream_error"
	codeUnavailable        = "unavailable"
	codeRateLimited        = "rate_limited"
	codeUnknownMessage     = "unknown_message"
	codeNotInitialized     = "not_initialized"
	codeAlreadyInitialized = "already_initialized"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, codeBadRequest, msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, codeNotFound, msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, codeInternal, msg)
}

// errUpstream returns a 502 error for Wheelmap, OSRM or Photon failures.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, 502, codeUpstream, msg)
}

// errServiceUnavailable returns a 503 error.
func errServiceUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, codeUnavailable, msg)
}

// errFrom maps domain and adapter errors to a response.
func errFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidBounds),
		errors.Is(err, domain.ErrUnknownVehicle),
		errors.Is(err, domain.ErrTooFewWaypoints),
		errors.Is(err, domain.ErrInvalidWaypoints),
		errors.Is(err, domain.ErrInvalidAccessibility):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrOverridesDisabled), errors.Is(err, usecases.ErrSearchDisabled):
		return errServiceUnavailable(c, err.Error())
	case errors.Is(err, osrm.ErrNoRoute):
		return errNotFound(c, err.Error())
	case errors.Is(err, wheelmap.ErrUpstream), errors.Is(err, osrm.ErrUpstream), errors.Is(err, photon.ErrUpstream):
		return errUpstream(c, err.Error())
	}
	return errInternal(c, err.Error())
}
