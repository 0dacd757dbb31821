package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-hub/internal/api/dto"
	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/repository"
	"github.com/spec-kit/resource-hub/internal/service"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// ResourcesHandler manages catalog endpoints.
type ResourcesHandler struct {
	service *service.ResourceService
}

// NewResourcesHandler constructs the handler.
func NewResourcesHandler(resourceService *service.ResourceService) *ResourcesHandler {
	return &ResourcesHandler{service: resourceService}
}

// List GET /resources.
func (h *ResourcesHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

// ListAvailable GET /resources/available.
func (h *ResourcesHandler) ListAvailable(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *ResourcesHandler) list(c *fiber.Ctx, onlyAvailable bool) error {
	limit, offset, page := pageParams(c)
	filter := repository.ResourceFilter{
		OnlyAvailable: onlyAvailable,
		Limit:         limit,
		Offset:        offset,
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	if category := c.Query("category"); category != "" {
		cat := domain.ResourceCategory(category)
		filter.Category = &cat
	}
	if status := c.Query("status"); status != "" {
		st := domain.ResourceStatus(status)
		filter.Status = &st
	}

	resources, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, resourceResponse(&resources[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(total, page, limit)})
}

// Get GET /resources/:id.
func (h *ResourcesHandler) Get(c *fiber.Ctx) error {
	resource, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Create POST /resources. Admin only.
func (h *ResourcesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	resource, err := h.service.Create(c.Context(), actor, service.ResourceCreateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Quantity:    req.Quantity,
		CostPerUnit: req.CostPerUnit,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Update PUT /resources/:id. Admin only.
func (h *ResourcesHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	resource, err := h.service.Update(c.Context(), actor, c.Params("id"), service.ResourceUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Quantity:    req.Quantity,
		CostPerUnit: req.CostPerUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resourceResponse(resource)})
}

// Delete DELETE /resources/:id. Admin only.
func (h *ResourcesHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}
