package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-hub/internal/api/dto"
	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/service"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// AllocationsHandler manages holding endpoints.
type AllocationsHandler struct {
	service *service.AllocationService
}

// NewAllocationsHandler constructs the handler.
func NewAllocationsHandler(allocationService *service.AllocationService) *AllocationsHandler {
	return &AllocationsHandler{service: allocationService}
}

// ListAll GET /allocations. Admin only.
func (h *AllocationsHandler) ListAll(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	allocations, err := h.service.ListAll(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": allocationItems(allocations)})
}

// ListMine GET /allocations/mine.
func (h *AllocationsHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	allocations, err := h.service.ListMine(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": allocationItems(allocations)})
}

// Return PUT /allocations/:id/return.
func (h *AllocationsHandler) Return(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	allocation, err := h.service.Return(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": allocationResponse(allocation)})
}

func allocationItems(allocations []domain.Allocation) []dto.AllocationResponse {
	items := make([]dto.AllocationResponse, 0, len(allocations))
	for i := range allocations {
		items = append(items, allocationResponse(&allocations[i]))
	}
	return items
}
