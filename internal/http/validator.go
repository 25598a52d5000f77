// FILE: internal/http/validator.go
package http

import (
	"errors"
	"fmt"
	"strings"

	"chesspipe/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// validationMiddleware parses and validates the query string of every
// routed GET into its request type and stores it for the handler
func validationMiddleware(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		return c.Next()
	}

	path := c.Path()
	var query interface{}

	switch {
	case strings.HasSuffix(path, "/games"):
		query = &core.GamesQuery{}
	case strings.HasSuffix(path, "/moves"), strings.HasSuffix(path, "/board.svg"):
		query = &core.MovesQuery{}
	default:
		return c.Next()
	}

	if err := c.QueryParser(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid query",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	if err := validate.Struct(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: describe(err),
		})
	}

	c.Locals("validatedQuery", query)
	return c.Next()
}

// validatedQuery returns the stored query, or a zero value for routes the
// middleware does not cover
func validatedQuery[T any](c *fiber.Ctx) T {
	if q, ok := c.Locals("validatedQuery").(*T); ok && q != nil {
		return *q
	}
	var zero T
	return zero
}

func describe(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	var details strings.Builder
	for _, e := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch e.Tag() {
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		case "min":
			details.WriteString(fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "max":
			details.WriteString(fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		case "gtefield":
			details.WriteString(fmt.Sprintf("%s must not be less than %s", e.Field(), e.Param()))
		case "uuid":
			details.WriteString(fmt.Sprintf("%s must be a UUID", e.Field()))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return details.String()
}
