// Package businessflow contains the core business logic and use cases for checkout workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/app/services"
	"github.com/linkforge/linkforge/config"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/pricing"
	"github.com/linkforge/linkforge/repository"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// PaymentRequestTTL is how long a gateway handoff stays settleable
const PaymentRequestTTL = 30 * time.Minute

// CheckoutFlow handles quoting, payment handoff, and draft promotion
type CheckoutFlow interface {
	GetQuote(ctx context.Context, req *dto.GetQuoteRequest, metadata *ClientMetadata) (*dto.GetQuoteResponse, error)
	Checkout(ctx context.Context, req *dto.CheckoutRequest, metadata *ClientMetadata) (*dto.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, req *dto.PaymentCallbackRequest, metadata *ClientMetadata) (*dto.PaymentCallbackResponse, error)
}

// CheckoutFlowImpl implements the checkout business flow
type CheckoutFlowImpl struct {
	linkPageRepo  repository.LinkPageRepository
	customerRepo  repository.CustomerRepository
	paymentRepo   repository.PaymentRequestRepository
	auditRepo     repository.AuditLogRepository
	draftCache    repository.DraftCache
	paymentSvc    services.PaymentService
	pricingConfig config.PricingConfig
	paymentConfig config.PaymentConfig
	db            *gorm.DB
}

// NewCheckoutFlow creates a new checkout flow instance
func NewCheckoutFlow(
	linkPageRepo repository.LinkPageRepository,
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRequestRepository,
	auditRepo repository.AuditLogRepository,
	draftCache repository.DraftCache,
	paymentSvc services.PaymentService,
	pricingConfig config.PricingConfig,
	paymentConfig config.PaymentConfig,
	db *gorm.DB,
) CheckoutFlow {
	return &CheckoutFlowImpl{
		linkPageRepo:  linkPageRepo,
		customerRepo:  customerRepo,
		paymentRepo:   paymentRepo,
		auditRepo:     auditRepo,
		draftCache:    draftCache,
		paymentSvc:    paymentSvc,
		pricingConfig: pricingConfig,
		paymentConfig: paymentConfig,
		db:            db,
	}
}

// GetQuote prices a selection of draft pages. A submitted discount code
// that is not in the configured list is rejected here; the pricing
// engine itself never sees invalid codes.
func (s *CheckoutFlowImpl) GetQuote(ctx context.Context, req *dto.GetQuoteRequest, metadata *ClientMetadata) (*dto.GetQuoteResponse, error) {
	if _, err := getCustomer(ctx, s.customerRepo, req.CustomerID); err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	selections, pages, err := s.resolveSelections(ctx, req.CustomerID, req.PageUUIDs)
	if err != nil {
		return nil, NewBusinessError("QUOTE_FAILED", "Quote failed", err)
	}

	discount, err := s.resolveDiscount(req.DiscountCode)
	if err != nil {
		return nil, NewBusinessError("QUOTE_FAILED", "Quote failed", err)
	}

	quote := pricing.ComputeQuote(selections, discount)

	resp := &dto.GetQuoteResponse{
		Message:        "Quote computed successfully",
		Items:          make([]dto.QuoteItemDTO, 0, len(pages)),
		ItemCount:      quote.ItemCount,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		Total:          quote.Total,
		Currency:       s.pricingConfig.Currency,
	}
	for i, page := range pages {
		item := dto.QuoteItemDTO{
			PageUUID:   page.UUID.String(),
			BasePrice:  selections[i].BasePrice,
			HasRotator: selections[i].HasSurcharge,
		}
		if selections[i].HasSurcharge {
			item.Surcharge = selections[i].Surcharge
		}
		resp.Items = append(resp.Items, item)
	}
	if discount != nil {
		resp.DiscountCode = utils.ToPtr(discount.Code)
	}

	return resp, nil
}

// Checkout freezes a quote into a payment request and hands it to the
// gateway. Customers with a stored payment method settle synchronously;
// everyone else gets a redirect token.
func (s *CheckoutFlowImpl) Checkout(ctx context.Context, req *dto.CheckoutRequest, metadata *ClientMetadata) (*dto.CheckoutResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	selections, pages, err := s.resolveSelections(ctx, req.CustomerID, req.PageUUIDs)
	if err != nil {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Checkout failed", err)
	}

	discount, err := s.resolveDiscount(req.DiscountCode)
	if err != nil {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Checkout failed", err)
	}

	quote := pricing.ComputeQuote(selections, discount)

	selection := make(models.SelectionUUIDs, 0, len(pages))
	selectionStrs := make([]string, 0, len(pages))
	for _, page := range pages {
		selection = append(selection, page.UUID)
		selectionStrs = append(selectionStrs, page.UUID.String())
	}

	paymentRequest := &models.PaymentRequest{
		UUID:           uuid.New(),
		CustomerID:     customer.ID,
		Selection:      selection,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		Total:          quote.Total,
		Currency:       s.pricingConfig.Currency,
		Status:         models.PaymentRequestStatusCreated,
		ExpiresAt:      utils.ToPtr(utils.UTCNow().Add(PaymentRequestTTL)),
	}
	if discount != nil {
		paymentRequest.DiscountCode = utils.ToPtr(discount.Code)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.paymentRepo.Save(txCtx, paymentRequest)
	})
	if err != nil {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Checkout failed", err)
	}

	submit := services.SubmitPaymentRequest{
		InvoiceID:    paymentRequest.UUID.String(),
		Selection:    selectionStrs,
		Amount:       quote.Total,
		Currency:     s.pricingConfig.Currency,
		CustomerRef:  customer.UUID.String(),
		StoredMethod: utils.IsTrue(customer.HasStoredPaymentMethod),
		CallbackURL:  s.paymentConfig.CallbackURL,
	}
	if discount != nil {
		submit.DiscountCode = discount.Code
	}

	result, err := s.paymentSvc.Submit(ctx, submit)
	if err != nil {
		errMsg := fmt.Sprintf("Checkout gateway handoff failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &customer, models.AuditActionCheckoutFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PAYMENT_GATEWAY_FAILED", "Payment gateway handoff failed", err)
	}

	msg := fmt.Sprintf("Checkout initiated: %s, %d pages, total %d %s",
		paymentRequest.UUID, len(selection), quote.Total, s.pricingConfig.Currency)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCheckoutInitiated, msg, true, nil, metadata)

	resp := &dto.CheckoutResponse{
		Message:     "Checkout initiated successfully",
		PaymentUUID: paymentRequest.UUID.String(),
		Total:       quote.Total,
		Currency:    s.pricingConfig.Currency,
	}

	if result.Paid {
		// Stored payment method settled synchronously; promote in place.
		if _, err := s.settle(ctx, paymentRequest, result.Reference, &customer, metadata); err != nil {
			return nil, err
		}
		resp.Message = "Payment completed successfully"
		resp.Paid = true
		return resp, nil
	}

	paymentRequest.GatewayToken = result.RedirectToken
	paymentRequest.Status = models.PaymentRequestStatusPending
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.paymentRepo.Update(txCtx, *paymentRequest)
	})
	if err != nil {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Checkout failed", err)
	}

	resp.RedirectToken = result.RedirectToken
	resp.RedirectURL = result.RedirectURL
	return resp, nil
}

// ConfirmPayment processes the gateway's settlement callback. A "paid"
// callback promotes every quoted draft atomically; a failed one marks
// the payment request failed. Repeated callbacks for a settled request
// are rejected without side effects.
func (s *CheckoutFlowImpl) ConfirmPayment(ctx context.Context, req *dto.PaymentCallbackRequest, metadata *ClientMetadata) (*dto.PaymentCallbackResponse, error) {
	if req.Token == nil || *req.Token == "" {
		return nil, NewBusinessError("CALLBACK_VALIDATION_FAILED", "Callback validation failed", ErrCallbackTokenRequired)
	}
	if req.Status == nil || *req.Status == "" {
		return nil, NewBusinessError("CALLBACK_VALIDATION_FAILED", "Callback validation failed", ErrCallbackStatusRequired)
	}

	paymentRequest, err := s.paymentRepo.ByGatewayToken(ctx, *req.Token)
	if err != nil {
		return nil, NewBusinessError("PAYMENT_LOOKUP_FAILED", "Failed to lookup payment request", err)
	}
	if paymentRequest == nil {
		return nil, NewBusinessError("PAYMENT_LOOKUP_FAILED", "Failed to lookup payment request", ErrPaymentRequestNotFound)
	}

	if paymentRequest.IsFinal() {
		return nil, NewBusinessError("PAYMENT_ALREADY_PROCESSED", "Payment request already processed", ErrPaymentAlreadyProcessed)
	}
	if paymentRequest.IsExpired() {
		paymentRequest.Status = models.PaymentRequestStatusExpired
		paymentRequest.StatusReason = "expired before gateway confirmation"
		_ = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			return s.paymentRepo.Update(txCtx, *paymentRequest)
		})
		return nil, NewBusinessError("PAYMENT_EXPIRED", "Payment request expired", ErrPaymentRequestExpired)
	}

	customer, err := getCustomer(ctx, s.customerRepo, paymentRequest.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	callback := services.PaymentCallback{Token: *req.Token, Status: *req.Status}
	if req.Reference != nil {
		callback.Reference = *req.Reference
	}

	if !callback.Paid() {
		paymentRequest.Status = models.PaymentRequestStatusFailed
		paymentRequest.StatusReason = fmt.Sprintf("gateway reported status %q", callback.Status)
		paymentRequest.GatewayReference = callback.Reference
		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			return s.paymentRepo.Update(txCtx, *paymentRequest)
		})
		if err != nil {
			return nil, NewBusinessError("PAYMENT_UPDATE_FAILED", "Payment update failed", err)
		}

		return &dto.PaymentCallbackResponse{
			Message:       "Payment not settled",
			PaymentStatus: string(models.PaymentRequestStatusFailed),
		}, nil
	}

	promoted, err := s.settle(ctx, paymentRequest, callback.Reference, &customer, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.PaymentCallbackResponse{
		Message:       "Payment confirmed, pages promoted",
		PaymentStatus: string(models.PaymentRequestStatusCompleted),
		PromotedPages: promoted,
	}, nil
}

// settle promotes the quoted drafts and marks the payment request
// completed, all inside one transaction. Every quoted UUID must still be
// a present draft; a single missing one aborts the whole promotion.
func (s *CheckoutFlowImpl) settle(ctx context.Context, paymentRequest *models.PaymentRequest, reference string, customer *models.Customer, metadata *ClientMetadata) ([]string, error) {
	var promotedPages []*models.LinkPage

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		for _, pageUUID := range paymentRequest.Selection {
			page, err := s.linkPageRepo.ByUUID(txCtx, pageUUID.String())
			if err != nil {
				return err
			}
			if page == nil || !page.IsDraft() {
				return fmt.Errorf("%w: %s", ErrSelectionNotDraft, pageUUID)
			}

			slug, err := s.assignSlug(txCtx, page)
			if err != nil {
				return err
			}
			page.State = models.LifecycleStateActive
			page.Slug = &slug

			if err := s.linkPageRepo.Update(txCtx, *page); err != nil {
				return err
			}
			promotedPages = append(promotedPages, page)
		}

		paymentRequest.Status = models.PaymentRequestStatusCompleted
		paymentRequest.GatewayReference = reference
		return s.paymentRepo.Update(txCtx, *paymentRequest)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Promotion failed for payment %s: %s", paymentRequest.UUID, err.Error())
		_ = s.createAuditLog(ctx, customer, models.AuditActionPromotionFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PROMOTION_FAILED", "Draft promotion failed", err)
	}

	// Evict the promoted drafts from the cache tier after commit.
	promoted := make([]string, 0, len(promotedPages))
	for _, page := range promotedPages {
		if err := s.draftCache.Delete(ctx, page.CustomerID, page.UUID); err != nil {
			log.Printf("draft cache eviction failed for page %s: %v", page.UUID, err)
		}
		promoted = append(promoted, page.UUID.String())
	}

	msg := fmt.Sprintf("Payment %s confirmed, %d pages promoted", paymentRequest.UUID, len(promoted))
	_ = s.createAuditLog(ctx, customer, models.AuditActionPaymentConfirmed, msg, true, nil, metadata)
	_ = s.createAuditLog(ctx, customer, models.AuditActionPagesPromoted, strings.Join(promoted, ", "), true, nil, metadata)

	return promoted, nil
}

// resolveSelections loads every requested page and builds the pricing
// selection. Each page must be an owned, present draft.
func (s *CheckoutFlowImpl) resolveSelections(ctx context.Context, customerID uint, pageUUIDs []string) ([]pricing.Selection, []*models.LinkPage, error) {
	if len(pageUUIDs) == 0 {
		return nil, nil, ErrSelectionRequired
	}

	seen := make(map[uuid.UUID]bool, len(pageUUIDs))
	selections := make([]pricing.Selection, 0, len(pageUUIDs))
	pages := make([]*models.LinkPage, 0, len(pageUUIDs))

	for _, raw := range pageUUIDs {
		parsed, err := utils.ParseUUID(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrSelectionNotDraft, raw)
		}
		if seen[parsed] {
			continue
		}
		seen[parsed] = true

		page, err := s.linkPageRepo.ByUUID(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		if page == nil {
			page, err = s.draftCache.Get(ctx, customerID, parsed)
			if err != nil {
				return nil, nil, err
			}
		}
		if page == nil || page.CustomerID != customerID || !page.IsDraft() {
			return nil, nil, fmt.Errorf("%w: %s", ErrSelectionNotDraft, raw)
		}

		sel := pricing.Selection{
			PageUUID:     utils.ToPtr(page.UUID),
			BasePrice:    s.pricingConfig.BasePriceCents,
			HasSurcharge: page.HasEnabledRotator(),
			Surcharge:    s.pricingConfig.RotatorSurchargeCents,
		}
		selections = append(selections, sel)
		pages = append(pages, page)
	}

	return selections, pages, nil
}

// resolveDiscount validates a submitted code against the configured
// closed list. Nil in, nil out; an unknown code is a business error.
func (s *CheckoutFlowImpl) resolveDiscount(submitted *string) (*pricing.DiscountCode, error) {
	if submitted == nil || *submitted == "" {
		return nil, nil
	}

	codes := make([]pricing.DiscountCode, 0, len(s.pricingConfig.DiscountCodes))
	for _, dc := range s.pricingConfig.DiscountCodes {
		codes = append(codes, pricing.DiscountCode{
			Code:       pricing.NormalizeCode(dc.Code),
			PercentOff: dc.PercentOff,
		})
	}

	resolved := pricing.ResolveCode(codes, *submitted)
	if resolved == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDiscountCode, *submitted)
	}
	return resolved, nil
}

// assignSlug derives a unique slug from the page's display name,
// falling back to UUID-suffixed candidates on collision.
func (s *CheckoutFlowImpl) assignSlug(ctx context.Context, page *models.LinkPage) (string, error) {
	base := slugify(page.DisplayName)
	if base == "" {
		base = "page"
	}

	candidate := base
	for attempt := 0; ; attempt++ {
		exists, err := s.linkPageRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
		candidate = fmt.Sprintf("%s-%s", base, suffix)
		if attempt >= 5 {
			return "", fmt.Errorf("could not find a free slug for page %s", page.UUID)
		}
	}
}

// slugify lowercases and strips a display name down to [a-z0-9-]
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *CheckoutFlowImpl) createAuditLog(ctx context.Context, customer *models.Customer, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var customerID *uint
	if customer != nil {
		customerID = &customer.ID
	}

	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
