// Package main provides the automations API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/automations/pkg/eventbus"
	"github.com/dukex/automations/pkg/forms"
	"github.com/dukex/automations/pkg/persistence"
	"github.com/dukex/automations/pkg/services"
	"github.com/dukex/automations/pkg/templates"
	"github.com/dukex/automations/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	forms       forms.Provider
	templates   *templates.Library
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	formProvider forms.Provider,
	library *templates.Library,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		forms:       formProvider,
		templates:   library,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	var publisher eventbus.EventPublisher
	if a.eventBus != nil {
		publisher = a.eventBus
	}

	automationService := services.NewAutomations(a.persistence, a.forms, publisher, a.logger)
	editorService := services.NewEditor(automationService, a.templates)

	handlers := web.NewAPIHandlers(automationService, editorService, a.templates, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automations API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
