package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-hub/internal/api/dto"
	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/service"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// RequestsHandler manages the booking request lifecycle endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs the handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.Create(c.Context(), actor, service.RequestCreateInput{
		ResourceID: req.ResourceID,
		Reason:     req.Reason,
		Priority:   req.Priority,
		NeededBy:   req.NeededBy,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// ListAll GET /requests. Admin only.
func (h *RequestsHandler) ListAll(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter, page := parseRequestListFilter(c)
	requests, total, err := h.service.ListAll(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestItems(requests), "meta": pageMeta(total, page, filter.Limit)})
}

// ListMine GET /requests/mine.
func (h *RequestsHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter, page := parseRequestListFilter(c)
	requests, total, err := h.service.ListMine(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestItems(requests), "meta": pageMeta(total, page, filter.Limit)})
}

// Counts GET /requests/counts.
func (h *RequestsHandler) Counts(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	counts, err := h.service.Counts(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.service.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Approve PUT /requests/:id/approve. Admin only.
func (h *RequestsHandler) Approve(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, allocation, err := h.service.Approve(c.Context(), actor, c.Params("id"), req.AdminNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"request":    requestResponse(request),
		"allocation": allocationResponse(allocation),
	}})
}

// Reject PUT /requests/:id/reject. Admin only.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.Reject(c.Context(), actor, c.Params("id"), req.AdminNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Cancel DELETE /requests/:id.
func (h *RequestsHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.service.Cancel(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

func parseRequestListFilter(c *fiber.Ctx) (service.RequestListFilter, int) {
	limit, offset, page := pageParams(c)
	filter := service.RequestListFilter{Limit: limit, Offset: offset}
	if status := c.Query("status"); status != "" {
		st := domain.RequestStatus(status)
		filter.Status = &st
	}
	return filter, page
}

func requestItems(requests []domain.Request) []dto.RequestResponse {
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return items
}
