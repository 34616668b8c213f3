package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the automation API on router.
func RegisterRoutes(router fiber.Router, handlers *APIHandlers) {
	router.Get("/health", handlers.HealthCheck)
	router.Get("/catalog", handlers.GetCatalog)
	router.Get("/templates", handlers.GetTemplates)

	a := router.Group("/automations")
	a.Get("/", handlers.GetAutomations)
	a.Post("/", handlers.CreateAutomation)
	a.Get("/:id", handlers.GetAutomation)
	a.Put("/:id", handlers.SaveAutomation)
	a.Delete("/:id", handlers.DeleteAutomation)
	a.Post("/:id/activate", handlers.ActivateAutomation)
	a.Post("/:id/deactivate", handlers.DeactivateAutomation)
	a.Post("/:id/template", handlers.ApplyTemplate)

	a.Post("/:id/steps", handlers.AddStep)
	a.Patch("/:id/steps/:stepId", handlers.UpdateStep)
	a.Delete("/:id/steps/:stepId", handlers.RemoveStep)
	a.Get("/:id/steps/:stepId/variables", handlers.GetStepVariables)

	a.Post("/:id/connections", handlers.Connect)
	a.Post("/:id/connections/check", handlers.CheckConnection)
	a.Delete("/:id/connections/:connectionId", handlers.Disconnect)
}
