// Package web provides HTTP handlers and REST API endpoints for automation management.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/automations/pkg/catalog"
	"github.com/dukex/automations/pkg/graph"
	"github.com/dukex/automations/pkg/models"
	"github.com/dukex/automations/pkg/services"
	"github.com/dukex/automations/pkg/templates"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	automations *services.Automations
	editor      *services.Editor
	templates   *templates.Library
	validator   *validator.Validate
}

func NewAPIHandlers(
	automations *services.Automations,
	editor *services.Editor,
	library *templates.Library,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		automations: automations,
		editor:      editor,
		templates:   library,
		validator:   validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.automations.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Automations API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Automations API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// GetCatalog lists the step kinds with their ports and configuration schemas.
func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(catalog.All())
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(h.templates.List())
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		return badRequest(c, "owner_id query parameter is required")
	}

	automations, err := h.automations.ListByOwner(c.Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total_count": len(automations),
	})
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.TemplateID != "" {
		created, err := h.editor.CreateFromTemplate(c.Context(), req.OwnerID, req.Name, req.TemplateID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(created)
	}

	steps, connections, err := toGraph(req.Nodes, req.Edges)
	if err != nil {
		return handleServiceError(c, err)
	}

	created, err := h.automations.Create(c.Context(), services.CreateRequest{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Steps:       steps,
		Connections: connections,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	automation, err := h.automations.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) SaveAutomation(c fiber.Ctx) error {
	var req SaveAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	steps, connections, err := toGraph(req.Nodes, req.Edges)
	if err != nil {
		return handleServiceError(c, err)
	}

	saved, err := h.automations.Save(c.Context(), c.Params("id"), services.SaveRequest{
		Name:        req.Name,
		Steps:       steps,
		Connections: connections,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	err := h.automations.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateAutomation(c fiber.Ctx) error {
	activated, err := h.automations.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activated)
}

func (h *APIHandlers) DeactivateAutomation(c fiber.Ctx) error {
	deactivated, err := h.automations.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(deactivated)
}

func (h *APIHandlers) ApplyTemplate(c fiber.Ctx) error {
	var req ApplyTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.editor.ApplyTemplate(c.Context(), c.Params("id"), req.TemplateID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	var req AddStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	config, err := decodeData(req.Type, req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	updated, step, err := h.editor.AddStep(c.Context(), c.Params("id"), services.AddStepRequest{
		Kind:     req.Type,
		Position: req.Position,
		Config:   config,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(StepResponse{Automation: updated, Node: step})
}

func (h *APIHandlers) UpdateStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Position == nil && len(req.Data) == 0 {
		return badRequest(c, "position or data is required")
	}

	var config models.StepConfig

	if len(req.Data) > 0 {
		automation, err := h.automations.Get(c.Context(), id)
		if err != nil {
			return handleServiceError(c, err)
		}

		step, ok := graph.FromAutomation(automation).Step(stepID)
		if !ok {
			return handleServiceError(c, graph.ErrStepNotFound)
		}

		config, err = decodeData(step.Kind, req.Data)
		if err != nil {
			return handleServiceError(c, err)
		}
	}

	updated, err := h.editor.UpdateStep(c.Context(), id, stepID, req.Position, config)
	if err != nil {
		return handleServiceError(c, err)
	}

	step, _ := graph.FromAutomation(updated).Step(stepID)

	return c.JSON(StepResponse{Automation: updated, Node: step})
}

func (h *APIHandlers) RemoveStep(c fiber.Ctx) error {
	updated, err := h.editor.RemoveStep(c.Context(), c.Params("id"), c.Params("stepId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	req, err := h.parseConnectRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, conn, err := h.editor.Connect(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ConnectionResponse{Automation: updated, Edge: conn})
}

// CheckConnection answers whether a connection would be accepted. Rejections are
// a normal answer here, not an error status.
func (h *APIHandlers) CheckConnection(c fiber.Ctx) error {
	req, err := h.parseConnectRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.editor.CheckConnection(c.Context(), c.Params("id"), req)
	if err == nil {
		return c.JSON(CheckConnectionResponse{Valid: true})
	}

	if r, ok := graph.IsRejection(err); ok {
		return c.JSON(CheckConnectionResponse{Rule: string(r.Rule), Reason: r.Reason})
	}

	return handleServiceError(c, err)
}

func (h *APIHandlers) Disconnect(c fiber.Ctx) error {
	updated, err := h.editor.Disconnect(c.Context(), c.Params("id"), c.Params("connectionId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetStepVariables(c fiber.Ctx) error {
	variables, err := h.editor.Variables(c.Context(), c.Params("id"), c.Params("stepId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(VariablesResponse{Variables: variables})
}

func (h *APIHandlers) parseConnectRequest(c fiber.Ctx) (services.ConnectRequest, error) {
	var req ConnectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return services.ConnectRequest{}, err
	}

	if err := h.validator.Struct(req); err != nil {
		return services.ConnectRequest{}, err
	}

	return services.ConnectRequest{
		SourceStepID: req.Source,
		TargetStepID: req.Target,
		SourcePort:   req.SourceHandle,
	}, nil
}
