package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/yanyucloud/flowd/pkg/persistence"
)

// apiError renders an RFC 7807 problem response.
func apiError(c fiber.Ctx, status int, errType, detail string) error {
	problem := problems.NewStatusProblem(status)
	problem.Instance = c.Path()
	problem.Type = errType
	problem.Detail = detail

	return c.Status(status).JSON(problem)
}

func badRequest(c fiber.Ctx, detail string) error {
	return apiError(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return apiError(c, fiber.StatusNotFound, "not_found", detail)
}

// handleEngineError maps errors coming out of the engine facade onto problem
// responses: not-found sentinels become 404s, everything else a 500.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "Workflow not found")
	case persistence.IsExecutionNotFound(err):
		return notFound(c, "Execution not found")
	default:
		return apiError(c, fiber.StatusInternalServerError, "internal_error", err.Error())
	}
}
