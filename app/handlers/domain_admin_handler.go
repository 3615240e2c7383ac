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

// DomainAdminHandlerInterface defines the contract for admin domain handlers
type DomainAdminHandlerInterface interface {
	ListDomainRequests(c fiber.Ctx) error
	TestDNS(c fiber.Ctx) error
	ActivateDomain(c fiber.Ctx) error
	RejectDomain(c fiber.Ctx) error
	ExportDomainRequests(c fiber.Ctx) error
}

// DomainAdminHandler handles admin domain workflow HTTP requests
type DomainAdminHandler struct {
	adminFlow businessflow.DomainAdminFlow
	validator *validator.Validate
}

func (h *DomainAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DomainAdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewDomainAdminHandler creates a new admin domain handler
func NewDomainAdminHandler(adminFlow businessflow.DomainAdminFlow) *DomainAdminHandler {
	handler := &DomainAdminHandler{
		adminFlow: adminFlow,
		validator: validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// ListDomainRequests returns domain requests with optional status filter
// @Summary List Domain Requests
// @Description Retrieve domain reservation requests across all customers with pagination and status filter
// @Tags Admin Domains
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by status (none|pending|active|failed)"
// @Success 200 {object} dto.APIResponse{data=dto.ListDomainRequestsResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/domains [get]
func (h *DomainAdminHandler) ListDomainRequests(c fiber.Ctx) error {
	// Parse query params
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit", "20")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}

	req := &dto.ListDomainRequestsRequest{
		Page:  page,
		Limit: limit,
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	result, err := h.adminFlow.ListRequests(h.createRequestContext(c, "/api/v1/admin/domains"), req)
	if err != nil {
		log.Println("List domain requests failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list domain requests", "LIST_DOMAIN_REQUESTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Domain requests retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// TestDNS runs an advisory DNS probe against a request's domain
// @Summary Test DNS
// @Description Probe the requested domain's DNS records and cache the advisory result on the request
// @Tags Admin Domains
// @Accept json
// @Produce json
// @Param uuid path string true "Domain request UUID"
// @Success 200 {object} dto.APIResponse{data=dto.TestDNSResponse} "Probe completed"
// @Failure 400 {object} dto.APIResponse "Request has no domain to probe"
// @Failure 404 {object} dto.APIResponse "Domain request not found"
// @Failure 502 {object} dto.APIResponse "DNS resolver unavailable"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/domains/{uuid}/test-dns [post]
func (h *DomainAdminHandler) TestDNS(c fiber.Ctx) error {
	requestUUID := c.Params("uuid")
	if requestUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain request UUID is required", "MISSING_REQUEST_UUID", nil)
	}

	req := &dto.TestDNSRequest{UUID: requestUUID}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.TestDNS(h.createRequestContext(c, "/api/v1/admin/domains/"+requestUUID+"/test-dns"), req, metadata)
	if err != nil {
		if businessflow.IsDomainRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Domain request not found", "DOMAIN_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsDNSUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "DNS resolver is unavailable", "DNS_UNAVAILABLE", nil)
		}

		log.Println("DNS test failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "DNS test failed", "DNS_TEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Probe completed", fiber.Map{
		"message":    result.Message,
		"configured": result.Configured,
		"detail":     result.Detail,
		"addresses":  result.Addresses,
	})
}

// ActivateDomain marks a domain request active
// @Summary Activate Domain
// @Description Mark a pending or failed domain request active. Activating an active request is a no-op.
// @Tags Admin Domains
// @Accept json
// @Produce json
// @Param uuid path string true "Domain request UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ActivateDomainResponse} "Domain activated"
// @Failure 404 {object} dto.APIResponse "Domain request not found"
// @Failure 409 {object} dto.APIResponse "Request cannot be activated in its current state"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/domains/{uuid}/activate [post]
func (h *DomainAdminHandler) ActivateDomain(c fiber.Ctx) error {
	requestUUID := c.Params("uuid")
	if requestUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain request UUID is required", "MISSING_REQUEST_UUID", nil)
	}

	req := &dto.ActivateDomainRequest{UUID: requestUUID}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.Activate(h.createRequestContext(c, "/api/v1/admin/domains/"+requestUUID+"/activate"), req, metadata)
	if err != nil {
		if businessflow.IsDomainRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Domain request not found", "DOMAIN_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidDomainTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Request cannot be activated in its current state", "DOMAIN_TRANSITION_INVALID", nil)
		}

		log.Println("Domain activation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Domain activation failed", "DOMAIN_ACTIVATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Domain activated", fiber.Map{
		"message":      result.Message,
		"status":       result.Status,
		"activated_at": result.ActivatedAt,
	})
}

// RejectDomain marks a domain request failed
// @Summary Reject Domain
// @Description Mark a pending or active domain request failed with optional notes. Rejecting a failed request is a no-op.
// @Tags Admin Domains
// @Accept json
// @Produce json
// @Param uuid path string true "Domain request UUID"
// @Param request body dto.RejectDomainRequest true "Optional rejection notes"
// @Success 200 {object} dto.APIResponse{data=dto.RejectDomainResponse} "Domain rejected"
// @Failure 404 {object} dto.APIResponse "Domain request not found"
// @Failure 409 {object} dto.APIResponse "Request cannot be rejected in its current state"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/domains/{uuid}/reject [post]
func (h *DomainAdminHandler) RejectDomain(c fiber.Ctx) error {
	requestUUID := c.Params("uuid")
	if requestUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain request UUID is required", "MISSING_REQUEST_UUID", nil)
	}

	var req dto.RejectDomainRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = requestUUID

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.Reject(h.createRequestContext(c, "/api/v1/admin/domains/"+requestUUID+"/reject"), &req, metadata)
	if err != nil {
		if businessflow.IsDomainRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Domain request not found", "DOMAIN_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidDomainTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Request cannot be rejected in its current state", "DOMAIN_TRANSITION_INVALID", nil)
		}

		log.Println("Domain rejection failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Domain rejection failed", "DOMAIN_REJECTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Domain rejected", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// ExportDomainRequests downloads all domain requests as an XLSX workbook
// @Summary Export Domain Requests
// @Description Download all domain reservation requests as an XLSX workbook, one sheet per status
// @Tags Admin Domains
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "XLSX workbook"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/domains/export [get]
func (h *DomainAdminHandler) ExportDomainRequests(c fiber.Ctx) error {
	filename, data, err := h.adminFlow.ExportRequests(h.createRequestContext(c, "/api/v1/admin/domains/export"))
	if err != nil {
		log.Println("Domain requests export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Export failed", "DOMAIN_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *DomainAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *DomainAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *DomainAdminHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
