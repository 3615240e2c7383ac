// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/linkforge/linkforge/app/dto"
	businessflow "github.com/linkforge/linkforge/business_flow"
	"github.com/linkforge/linkforge/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// LinkPageHandlerInterface defines the contract for link page handlers
type LinkPageHandlerInterface interface {
	CreatePage(c fiber.Ctx) error
	UpdatePage(c fiber.Ctx) error
	DeletePage(c fiber.Ctx) error
	ListPages(c fiber.Ctx) error
	AddButton(c fiber.Ctx) error
	UpdateButton(c fiber.Ctx) error
	DeleteButton(c fiber.Ctx) error
	ReorderButtons(c fiber.Ctx) error
	SetRotatorSlot(c fiber.Ctx) error
}

// LinkPageHandler handles link page related HTTP requests
type LinkPageHandler struct {
	pageFlow  businessflow.LinkPageFlow
	validator *validator.Validate
}

func (h *LinkPageHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LinkPageHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewLinkPageHandler creates a new link page handler
func NewLinkPageHandler(pageFlow businessflow.LinkPageFlow) *LinkPageHandler {
	handler := &LinkPageHandler{
		pageFlow:  pageFlow,
		validator: validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// CreatePage handles draft page creation
// @Summary Create Page
// @Description Create a new draft link page for the authenticated customer
// @Tags Pages
// @Accept json
// @Produce json
// @Param request body dto.CreatePageRequest true "Page creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePageResponse} "Page created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages [post]
func (h *LinkPageHandler) CreatePage(c fiber.Ctx) error {
	var req dto.CreatePageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Call business logic with proper context
	result, err := h.pageFlow.CreateDraft(h.createRequestContext(c, "/api/v1/pages"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsInvalidTemplate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page template", "INVALID_TEMPLATE", nil)
		}
		if businessflow.IsInvalidBackgroundType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid background type", "INVALID_BACKGROUND_TYPE", nil)
		}

		log.Println("Page creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Page creation failed", "PAGE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Page created successfully", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// UpdatePage handles partial updates of an existing page
// @Summary Update Page
// @Description Update the identity, template, or theme fields of an existing page
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param request body dto.UpdatePageRequest true "Page update data"
// @Success 200 {object} dto.APIResponse{data=dto.UpdatePageResponse} "Page updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - page belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid} [put]
func (h *LinkPageHandler) UpdatePage(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}

	var req dto.UpdatePageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = pageUUID

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.UpdatePage(h.createRequestContext(c, "/api/v1/pages/"+pageUUID), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}
		if businessflow.IsInvalidTemplate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page template", "INVALID_TEMPLATE", nil)
		}
		if businessflow.IsInvalidBackgroundType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid background type", "INVALID_BACKGROUND_TYPE", nil)
		}

		log.Println("Page update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Page update failed", "PAGE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Page updated successfully", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// DeletePage handles page deletion
// @Summary Delete Page
// @Description Delete a page owned by the authenticated customer
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeletePageResponse} "Page deleted successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - page belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid} [delete]
func (h *LinkPageHandler) DeletePage(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeletePageRequest{
		UUID:       pageUUID,
		CustomerID: customerID,
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.DeletePage(h.createRequestContext(c, "/api/v1/pages/"+pageUUID), req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}

		log.Println("Page deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Page deletion failed", "PAGE_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Page deleted successfully", fiber.Map{
		"message": result.Message,
	})
}

// ListPages returns the customer's pages partitioned by lifecycle state
// @Summary List Pages
// @Description Retrieve the authenticated customer's pages, drafts and active merged from both stores
// @Tags Pages
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(50)
// @Success 200 {object} dto.APIResponse{data=dto.ListPagesResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages [get]
func (h *LinkPageHandler) ListPages(c fiber.Ctx) error {
	// Parse query params
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit", "50")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ListPagesRequest{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.ListPages(h.createRequestContext(c, "/api/v1/pages"), req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("List pages failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list pages", "LIST_PAGES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pages retrieved successfully", fiber.Map{
		"message": result.Message,
		"drafts":  result.Drafts,
		"active":  result.Active,
	})
}

// AddButton appends a button to a page
// @Summary Add Button
// @Description Append a styled button to a page, styled from the preset of its social type
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param request body dto.AddButtonRequest true "Button data"
// @Success 201 {object} dto.APIResponse{data=dto.AddButtonResponse} "Button added successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - page belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid}/buttons [post]
func (h *LinkPageHandler) AddButton(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}

	var req dto.AddButtonRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PageUUID = pageUUID

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.AddButton(h.createRequestContext(c, "/api/v1/pages/"+pageUUID+"/buttons"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}
		if businessflow.IsInvalidSocialType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid button social type", "INVALID_SOCIAL_TYPE", nil)
		}
		if businessflow.IsButtonTitleRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Button title is required", "BUTTON_TITLE_REQUIRED", nil)
		}
		if businessflow.IsButtonTargetURLRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Button target URL is required", "BUTTON_TARGET_URL_REQUIRED", nil)
		}

		log.Println("Button add failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Button add failed", "BUTTON_ADD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Button added successfully", fiber.Map{
		"message": result.Message,
		"button":  result.Button,
		"page":    result.Page,
	})
}

// UpdateButton applies a partial update to one button
// @Summary Update Button
// @Description Update the fields of a single button on a page. Unknown button IDs are a no-op.
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param button_id path string true "Button UUID"
// @Param request body dto.UpdateButtonRequest true "Button patch"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateButtonResponse} "Button updated"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid}/buttons/{button_id} [put]
func (h *LinkPageHandler) UpdateButton(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}
	buttonID := c.Params("button_id")
	if buttonID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Button ID is required", "MISSING_BUTTON_ID", nil)
	}

	var req dto.UpdateButtonRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PageUUID = pageUUID
	req.ButtonID = buttonID

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.UpdateButton(h.createRequestContext(c, "/api/v1/pages/"+pageUUID+"/buttons/"+buttonID), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}

		log.Println("Button update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Button update failed", "BUTTON_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Button updated", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// DeleteButton removes a button from a page
// @Summary Delete Button
// @Description Remove a single button from a page. Unknown button IDs are a no-op.
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param button_id path string true "Button UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteButtonResponse} "Button deleted"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid}/buttons/{button_id} [delete]
func (h *LinkPageHandler) DeleteButton(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}
	buttonID := c.Params("button_id")
	if buttonID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Button ID is required", "MISSING_BUTTON_ID", nil)
	}

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteButtonRequest{
		PageUUID:   pageUUID,
		ButtonID:   buttonID,
		CustomerID: customerID,
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.DeleteButton(h.createRequestContext(c, "/api/v1/pages/"+pageUUID+"/buttons/"+buttonID), req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}

		log.Println("Button deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Button deletion failed", "BUTTON_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Button deleted", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// ReorderButtons moves a button to a new position
// @Summary Reorder Buttons
// @Description Move the button at position "from" to position "to", shifting the rest
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param request body dto.ReorderButtonsRequest true "Reorder positions"
// @Success 200 {object} dto.APIResponse{data=dto.ReorderButtonsResponse} "Buttons reordered"
// @Failure 400 {object} dto.APIResponse "Validation error or position out of range"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid}/buttons/reorder [post]
func (h *LinkPageHandler) ReorderButtons(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}

	var req dto.ReorderButtonsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PageUUID = pageUUID

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.pageFlow.ReorderButtons(h.createRequestContext(c, "/api/v1/pages/"+pageUUID+"/buttons/reorder"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}
		if businessflow.IsReorderIndexesRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Reorder positions are required", "REORDER_POSITIONS_REQUIRED", nil)
		}
		if businessflow.IsReorderOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Reorder position out of range", "REORDER_OUT_OF_RANGE", nil)
		}

		log.Println("Button reorder failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Button reorder failed", "BUTTON_REORDER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Buttons reordered", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// SetRotatorSlot writes one alternate URL slot of a messenger button
// @Summary Set Rotator Slot
// @Description Write one of the five alternate URL slots of a messenger button's link rotator
// @Tags Pages
// @Accept json
// @Produce json
// @Param uuid path string true "Page UUID"
// @Param button_id path string true "Button UUID"
// @Param slot path int true "Slot index (0-4)"
// @Param request body dto.SetRotatorSlotRequest true "Slot URL"
// @Success 200 {object} dto.APIResponse{data=dto.SetRotatorSlotResponse} "Rotator slot updated"
// @Failure 400 {object} dto.APIResponse "Validation error, slot out of range, or non-messenger button"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pages/{uuid}/buttons/{button_id}/rotator/{slot} [put]
func (h *LinkPageHandler) SetRotatorSlot(c fiber.Ctx) error {
	pageUUID := c.Params("uuid")
	if pageUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page UUID is required", "MISSING_PAGE_UUID", nil)
	}
	buttonID := c.Params("button_id")
	if buttonID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Button ID is required", "MISSING_BUTTON_ID", nil)
	}
	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Slot must be a number", "INVALID_SLOT", nil)
	}

	var req dto.SetRotatorSlotRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PageUUID = pageUUID
	req.ButtonID = buttonID
	req.Slot = slot

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	endpoint := "/api/v1/pages/" + pageUUID + "/buttons/" + buttonID + "/rotator/" + c.Params("slot")
	result, err := h.pageFlow.SetRotatorSlot(h.createRequestContext(c, endpoint), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsPageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Page not found", "PAGE_NOT_FOUND", nil)
		}
		if businessflow.IsPageAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: page belongs to another customer", "PAGE_ACCESS_DENIED", nil)
		}
		if businessflow.IsRotatorSlotOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rotator slot out of range", "ROTATOR_SLOT_OUT_OF_RANGE", nil)
		}
		if businessflow.IsRotatorNotApplicable(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rotator only applies to messenger buttons", "ROTATOR_NOT_APPLICABLE", nil)
		}
		if businessflow.IsRotatorURLRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rotator slot URL is required", "ROTATOR_URL_REQUIRED", nil)
		}

		log.Println("Rotator slot update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rotator slot update failed", "ROTATOR_SLOT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Rotator slot updated", fiber.Map{
		"message": result.Message,
		"page":    result.Page,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *LinkPageHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *LinkPageHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	// Create context with custom timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}

// setupCustomValidations sets up custom validation rules
func (h *LinkPageHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
