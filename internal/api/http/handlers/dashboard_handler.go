package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/service"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// DashboardHandler serves the aggregate landing page views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Admin GET /dashboard/admin.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	dashboard, err := h.service.Admin(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}

// Customer GET /dashboard/customer.
func (h *DashboardHandler) Customer(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	dashboard, err := h.service.Customer(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}
