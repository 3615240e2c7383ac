// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/linkforge/linkforge/app/dto"
	businessflow "github.com/linkforge/linkforge/business_flow"
	"github.com/linkforge/linkforge/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// DomainHandlerInterface defines the contract for customer-facing domain handlers
type DomainHandlerInterface interface {
	SearchDomain(c fiber.Ctx) error
	ReserveDomain(c fiber.Ctx) error
	ConnectDomain(c fiber.Ctx) error
}

// DomainHandler handles customer-facing domain reservation HTTP requests
type DomainHandler struct {
	domainFlow businessflow.DomainReservationFlow
	validator  *validator.Validate
}

func (h *DomainHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DomainHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewDomainHandler creates a new domain handler
func NewDomainHandler(domainFlow businessflow.DomainReservationFlow) *DomainHandler {
	handler := &DomainHandler{
		domainFlow: domainFlow,
		validator:  validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// SearchDomain checks the availability of a domain candidate
// @Summary Search Domain
// @Description Normalize a domain candidate and check its availability with the registrar
// @Tags Domains
// @Accept json
// @Produce json
// @Param request body dto.SearchDomainRequest true "Domain candidate"
// @Success 200 {object} dto.APIResponse{data=dto.SearchDomainResponse} "Search completed"
// @Failure 400 {object} dto.APIResponse "Validation error or candidate rejected by policy"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/domains/search [post]
func (h *DomainHandler) SearchDomain(c fiber.Ctx) error {
	var req dto.SearchDomainRequest
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

	result, err := h.domainFlow.SearchDomain(h.createRequestContext(c, "/api/v1/domains/search"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsDomainQueryRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain query is required", "DOMAIN_QUERY_REQUIRED", nil)
		}
		if businessflow.IsDomainPolicyViolation(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain candidate rejected", "DOMAIN_POLICY_VIOLATION", err.Error())
		}

		log.Println("Domain search failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Domain search failed", "DOMAIN_SEARCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Search completed", fiber.Map{
		"message":       result.Message,
		"domain":        result.Domain,
		"outcome":       result.Outcome,
		"price_cents":   result.PriceCents,
		"price_display": result.PriceDisplay,
		"currency":      result.Currency,
	})
}

// ReserveDomain submits a buy-new reservation for a page
// @Summary Reserve Domain
// @Description Submit a buy-new domain reservation for a page; the request moves to pending on registrar acceptance
// @Tags Domains
// @Accept json
// @Produce json
// @Param request body dto.ReserveDomainRequest true "Page UUID and domain"
// @Success 200 {object} dto.APIResponse{data=dto.ReserveDomainResponse} "Reservation submitted"
// @Failure 400 {object} dto.APIResponse "Validation error or candidate rejected by policy"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - page belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 409 {object} dto.APIResponse "Domain already requested or reservation rejected"
// @Failure 502 {object} dto.APIResponse "Registrar unavailable"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/domains/reserve [post]
func (h *DomainHandler) ReserveDomain(c fiber.Ctx) error {
	var req dto.ReserveDomainRequest
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

	result, err := h.domainFlow.ReserveDomain(h.createRequestContext(c, "/api/v1/domains/reserve"), &req, metadata)
	if err != nil {
		if resp := h.mapReservationError(c, err); resp != nil {
			return resp
		}

		log.Println("Domain reservation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Domain reservation failed", "DOMAIN_RESERVATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Reservation submitted", fiber.Map{
		"message":      result.Message,
		"request_uuid": result.RequestUUID,
		"domain":       result.Domain,
		"status":       result.Status,
		"requested_at": result.RequestedAt,
	})
}

// ConnectDomain submits a connect-own request for a page
// @Summary Connect Domain
// @Description Register a customer-owned domain against a page; the request moves to pending without a registrar purchase
// @Tags Domains
// @Accept json
// @Produce json
// @Param request body dto.ConnectDomainRequest true "Page UUID and domain"
// @Success 200 {object} dto.APIResponse{data=dto.ConnectDomainResponse} "Connect request submitted"
// @Failure 400 {object} dto.APIResponse "Validation error or domain not normalizable"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - page belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Page not found"
// @Failure 409 {object} dto.APIResponse "Domain already requested"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/domains/connect [post]
func (h *DomainHandler) ConnectDomain(c fiber.Ctx) error {
	var req dto.ConnectDomainRequest
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

	result, err := h.domainFlow.ConnectOwnDomain(h.createRequestContext(c, "/api/v1/domains/connect"), &req, metadata)
	if err != nil {
		if resp := h.mapReservationError(c, err); resp != nil {
			return resp
		}

		log.Println("Domain connect failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Domain connect failed", "DOMAIN_CONNECT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Connect request submitted", fiber.Map{
		"message":      result.Message,
		"request_uuid": result.RequestUUID,
		"domain":       result.Domain,
		"status":       result.Status,
		"requested_at": result.RequestedAt,
	})
}

// mapReservationError translates the reservation business errors shared by
// reserve and connect into HTTP responses. Returns nil for unrecognized errors.
func (h *DomainHandler) mapReservationError(c fiber.Ctx, err error) error {
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
	if businessflow.IsDomainRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain is required", "DOMAIN_REQUIRED", nil)
	}
	if businessflow.IsDomainPolicyViolation(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Domain candidate rejected", "DOMAIN_POLICY_VIOLATION", err.Error())
	}
	if businessflow.IsInvalidDomainTransition(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Domain request cannot be submitted in its current state", "DOMAIN_TRANSITION_INVALID", nil)
	}
	if businessflow.IsDomainAlreadyRequested(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Domain already requested by another page", "DOMAIN_ALREADY_REQUESTED", nil)
	}
	if businessflow.IsReserveRejected(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Reservation rejected by registrar", "DOMAIN_RESERVE_REJECTED", err.Error())
	}
	if businessflow.IsRegistrarUnavailable(err) {
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Registrar is unavailable", "REGISTRAR_UNAVAILABLE", nil)
	}
	return nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *DomainHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *DomainHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *DomainHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
