package web

import (
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// rejection reports a connection the validator refused. Structural problems are
// client errors; business rules are unprocessable and carry the user-facing reason.
func rejection(c fiber.Ctx, rejection *graph.RejectionError) error {
	if rejection.Rule == graph.RuleStructural {
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("invalid_connection").
			WithDetail(rejection.Reason)

		return c.Status(fiber.StatusBadRequest).JSON(problem)
	}

	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("connection_rejected").
		WithDetail(rejection.Reason)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	if r, ok := graph.IsRejection(err); ok {
		return rejection(c, r)
	}

	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsNotFoundError(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		// Log unexpected errors but don't expose details
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
