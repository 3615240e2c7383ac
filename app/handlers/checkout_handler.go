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

// CheckoutHandlerInterface defines the contract for checkout handlers
type CheckoutHandlerInterface interface {
	GetQuote(c fiber.Ctx) error
	Checkout(c fiber.Ctx) error
	PaymentCallback(c fiber.Ctx) error
}

// CheckoutHandler handles checkout-related HTTP requests
type CheckoutHandler struct {
	checkoutFlow businessflow.CheckoutFlow
	validator    *validator.Validate
}

func (h *CheckoutHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CheckoutHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutFlow businessflow.CheckoutFlow) *CheckoutHandler {
	handler := &CheckoutHandler{
		checkoutFlow: checkoutFlow,
		validator:    validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// GetQuote prices a selection of draft pages
// @Summary Get Quote
// @Description Price a selection of draft pages, including rotator surcharges and an optional discount code
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.GetQuoteRequest true "Selected page UUIDs and optional discount code"
// @Success 200 {object} dto.APIResponse{data=dto.GetQuoteResponse} "Quote computed successfully"
// @Failure 400 {object} dto.APIResponse "Validation error, empty selection, or unknown discount code"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/checkout/quote [post]
func (h *CheckoutHandler) GetQuote(c fiber.Ctx) error {
	var req dto.GetQuoteRequest
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

	result, err := h.checkoutFlow.GetQuote(h.createRequestContext(c, "/api/v1/checkout/quote"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsSelectionRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one page must be selected", "SELECTION_REQUIRED", nil)
		}
		if businessflow.IsSelectionNotDraft(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Selection contains a page that is not a present draft", "SELECTION_NOT_DRAFT", nil)
		}
		if businessflow.IsInvalidDiscountCode(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Discount code is not recognized", "INVALID_DISCOUNT_CODE", nil)
		}

		log.Println("Quote failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Quote failed", "QUOTE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Quote computed successfully", fiber.Map{
		"message":         result.Message,
		"items":           result.Items,
		"item_count":      result.ItemCount,
		"subtotal":        result.Subtotal,
		"discount_amount": result.DiscountAmount,
		"total":           result.Total,
		"currency":        result.Currency,
		"discount_code":   result.DiscountCode,
	})
}

// Checkout freezes a selection and starts payment
// @Summary Checkout
// @Description Freeze the priced selection into a payment request and hand off to the payment gateway
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Selected page UUIDs and optional discount code"
// @Success 200 {object} dto.APIResponse{data=dto.CheckoutResponse} "Checkout started"
// @Failure 400 {object} dto.APIResponse "Validation error, empty selection, or unknown discount code"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 502 {object} dto.APIResponse "Payment gateway unavailable"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) Checkout(c fiber.Ctx) error {
	var req dto.CheckoutRequest
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

	result, err := h.checkoutFlow.Checkout(h.createRequestContext(c, "/api/v1/checkout"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsSelectionRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one page must be selected", "SELECTION_REQUIRED", nil)
		}
		if businessflow.IsSelectionNotDraft(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Selection contains a page that is not a present draft", "SELECTION_NOT_DRAFT", nil)
		}
		if businessflow.IsInvalidDiscountCode(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Discount code is not recognized", "INVALID_DISCOUNT_CODE", nil)
		}
		if businessflow.IsPaymentGatewayUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Payment gateway is unavailable", "PAYMENT_GATEWAY_UNAVAILABLE", nil)
		}

		log.Println("Checkout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Checkout failed", "CHECKOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Checkout started", fiber.Map{
		"message":        result.Message,
		"payment_uuid":   result.PaymentUUID,
		"paid":           result.Paid,
		"redirect_token": result.RedirectToken,
		"redirect_url":   result.RedirectURL,
		"total":          result.Total,
		"currency":       result.Currency,
	})
}

// PaymentCallback processes the gateway's settlement notification
// @Summary Payment Callback
// @Description Process the payment gateway's settlement notification and promote the paid drafts
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.PaymentCallbackRequest true "Gateway callback payload"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentCallbackResponse} "Callback processed"
// @Failure 400 {object} dto.APIResponse "Missing token or status"
// @Failure 404 {object} dto.APIResponse "Payment request not found"
// @Failure 409 {object} dto.APIResponse "Payment request already processed"
// @Failure 410 {object} dto.APIResponse "Payment request expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/checkout/callback [post]
func (h *CheckoutHandler) PaymentCallback(c fiber.Ctx) error {
	var req dto.PaymentCallbackRequest
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

	result, err := h.checkoutFlow.ConfirmPayment(h.createRequestContext(c, "/api/v1/checkout/callback"), &req, metadata)
	if err != nil {
		if businessflow.IsPaymentRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payment request not found", "PAYMENT_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsPaymentAlreadyProcessed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payment request already processed", "PAYMENT_ALREADY_PROCESSED", nil)
		}
		if businessflow.IsPaymentRequestExpired(err) {
			return h.ErrorResponse(c, fiber.StatusGone, "Payment request expired", "PAYMENT_EXPIRED", nil)
		}
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}

		log.Println("Payment callback failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payment callback failed", "PAYMENT_CALLBACK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Callback processed", fiber.Map{
		"message":        result.Message,
		"payment_status": result.PaymentStatus,
		"promoted_pages": result.PromotedPages,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CheckoutHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *CheckoutHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
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
func (h *CheckoutHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
