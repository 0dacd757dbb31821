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

// AdminHandler covers user administration and the activity log.
type AdminHandler struct {
	users    *service.UserAdminService
	activity *service.ActivityService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(users *service.UserAdminService, activity *service.ActivityService) *AdminHandler {
	return &AdminHandler{users: users, activity: activity}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset, page := pageParams(c)
	filter := repository.UserFilter{Limit: limit, Offset: offset}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		st := domain.UserStatus(status)
		filter.Status = &st
	}

	users, total, err := h.users.List(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(total, page, limit)})
}

// CreateUser POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Create(c.Context(), actor, service.AdminUserCreateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   req.Password,
		Company:    req.Company,
		Phone:      req.Phone,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateUser PUT /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Update(c.Context(), actor, c.Params("id"), service.AdminUserUpdateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Company:    req.Company,
		Phone:      req.Phone,
		Department: req.Department,
		Role:       req.Role,
		Status:     req.Status,
		Password:   req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.users.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// ListActivity GET /admin/activity.
func (h *AdminHandler) ListActivity(c *fiber.Ctx) error {
	limit, offset, page := pageParams(c)
	filter := repository.ActivityFilter{Limit: limit, Offset: offset}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if action := c.Query("action"); action != "" {
		a := domain.ActivityAction(action)
		filter.Action = &a
	}

	entries, total, err := h.activity.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		items = append(items, activityResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(total, page, limit)})
}
