package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-hub/internal/api/dto"
	"github.com/spec-kit/resource-hub/internal/domain"
)

const defaultPageSize = 20

// pageParams reads page and page_size query values, clamped to sane bounds.
func pageParams(c *fiber.Ctx) (limit, offset, page int) {
	page = 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset = (page - 1) * limit
	return limit, offset, page
}

func pageMeta(total, page, pageSize int) dto.PageMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return dto.PageMeta{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Company:    user.Company,
		Phone:      user.Phone,
		Department: user.Department,
		Role:       user.Role,
		Status:     user.Status,
		CreatedAt:  user.CreatedAt,
	}
}

func resourceResponse(resource *domain.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:           resource.ID,
		Name:         resource.Name,
		Description:  resource.Description,
		Category:     resource.Category,
		Status:       resource.Status,
		Quantity:     resource.Quantity,
		AvailableQty: resource.AvailableQty,
		CostPerUnit:  resource.CostPerUnit,
		AssignedTo:   resource.AssignedTo,
		CreatedAt:    resource.CreatedAt,
		UpdatedAt:    resource.UpdatedAt,
	}
}

func requestResponse(request *domain.Request) dto.RequestResponse {
	return dto.RequestResponse{
		ID:               request.ID,
		UserID:           request.UserID,
		ResourceID:       request.ResourceID,
		ResourceName:     request.ResourceName,
		ResourceCategory: request.ResourceCategory,
		UserName:         request.UserName,
		UserEmail:        request.UserEmail,
		Reason:           request.Reason,
		Priority:         request.Priority,
		NeededBy:         request.NeededBy,
		Status:           request.Status,
		AdminNote:        request.AdminNote,
		ReviewedBy:       request.ReviewedBy,
		ReviewerName:     request.ReviewerName,
		CreatedAt:        request.CreatedAt,
		UpdatedAt:        request.UpdatedAt,
	}
}

func allocationResponse(allocation *domain.Allocation) dto.AllocationResponse {
	return dto.AllocationResponse{
		ID:               allocation.ID,
		UserID:           allocation.UserID,
		UserName:         allocation.UserName,
		ResourceID:       allocation.ResourceID,
		ResourceName:     allocation.ResourceName,
		ResourceCategory: allocation.ResourceCategory,
		RequestID:        allocation.RequestID,
		AssignedDate:     allocation.AssignedDate,
		ReturnDue:        allocation.ReturnDue,
		ReturnedDate:     allocation.ReturnedDate,
		Status:           allocation.Status,
	}
}

func activityResponse(activity *domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:         activity.ID,
		UserID:     activity.UserID,
		UserName:   activity.UserName,
		Action:     activity.Action,
		Details:    activity.Details,
		EntityType: activity.EntityType,
		EntityID:   activity.EntityID,
		CreatedAt:  activity.CreatedAt,
	}
}
