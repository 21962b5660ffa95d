package webapi

import (
	"errors"

	"github.com/amirasaad/banking/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorResponseJSON returns a response following RFC 9457 Problem Details.
func ErrorResponseJSON(c *fiber.Ctx, status int, title string, detail any) error {
	pd := ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")

	return c.Status(status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAuditLogNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAmountNotPositive),
		errors.Is(err, domain.ErrAmountExceedsLimit),
		errors.Is(err, domain.ErrSameAccountTransfer):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrLockTimeout):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// DomainErrorResponse writes the problem response for a domain error using
// the standard status mapping.
func DomainErrorResponse(c *fiber.Ctx, err error) error {
	return ErrorResponseJSON(c, ErrorToStatusCode(err), "Request failed", err.Error())
}

// BindAndValidate parses the request body and validates it using
// go-playground/validator. On failure it writes the error response and
// returns a non-nil error so the handler can bail out.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error()) //nolint:errcheck
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error()) //nolint:errcheck
		return nil, err
	}
	return &input, nil
}
