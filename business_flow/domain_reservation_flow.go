// Package businessflow contains the core business logic and use cases for domain reservation workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/app/services"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	"github.com/linkforge/linkforge/utils"
	"golang.org/x/net/idna"
	"gorm.io/gorm"
)

// SearchOutcomeConnectionError is reported when the registrar could not
// be reached or answered with garbage. The caller is expected to retry
// manually.
const SearchOutcomeConnectionError = "connection_error"

// DomainReservationFlow handles the customer-facing side of the domain
// reservation workflow
type DomainReservationFlow interface {
	SearchDomain(ctx context.Context, req *dto.SearchDomainRequest, metadata *ClientMetadata) (*dto.SearchDomainResponse, error)
	ReserveDomain(ctx context.Context, req *dto.ReserveDomainRequest, metadata *ClientMetadata) (*dto.ReserveDomainResponse, error)
	ConnectOwnDomain(ctx context.Context, req *dto.ConnectDomainRequest, metadata *ClientMetadata) (*dto.ConnectDomainResponse, error)
}

// DomainReservationFlowImpl implements the domain reservation business flow
type DomainReservationFlowImpl struct {
	domainRepo   repository.DomainRequestRepository
	linkPageRepo repository.LinkPageRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	registrar    services.RegistrarService
	db           *gorm.DB
}

// NewDomainReservationFlow creates a new domain reservation flow instance
func NewDomainReservationFlow(
	domainRepo repository.DomainRequestRepository,
	linkPageRepo repository.LinkPageRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	registrar services.RegistrarService,
	db *gorm.DB,
) DomainReservationFlow {
	return &DomainReservationFlowImpl{
		domainRepo:   domainRepo,
		linkPageRepo: linkPageRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		registrar:    registrar,
		db:           db,
	}
}

// SearchDomain normalizes a candidate, enforces the candidate policy
// locally, and asks the registrar about availability. Policy violations
// never reach the registrar. The normalized candidate is echoed back so
// the caller sees exactly what was searched.
func (s *DomainReservationFlowImpl) SearchDomain(ctx context.Context, req *dto.SearchDomainRequest, metadata *ClientMetadata) (*dto.SearchDomainResponse, error) {
	if _, err := getCustomer(ctx, s.customerRepo, req.CustomerID); err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		return nil, NewBusinessError("DOMAIN_VALIDATION_FAILED", "Domain validation failed", ErrDomainQueryRequired)
	}

	normalized, err := NormalizeDomainCandidate(*req.Query)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_POLICY_VIOLATION", "Domain candidate rejected", err)
	}

	result, err := s.registrar.Search(ctx, normalized)
	if err != nil {
		if errors.Is(err, services.ErrRegistrarUnavailable) {
			return &dto.SearchDomainResponse{
				Message: "Registrar unreachable, try again",
				Domain:  normalized,
				Outcome: SearchOutcomeConnectionError,
			}, nil
		}
		return nil, NewBusinessError("DOMAIN_SEARCH_FAILED", "Domain search failed", err)
	}

	resp := &dto.SearchDomainResponse{
		Message: "Domain search completed",
		Domain:  normalized,
		Outcome: string(result.Outcome),
	}
	if result.PriceCents > 0 {
		resp.PriceCents = result.PriceCents
		resp.PriceDisplay = FormatPriceCents(result.PriceCents)
		resp.Currency = result.Currency
	}

	return resp, nil
}

// ReserveDomain submits a reservation for a page after an available
// search outcome. The request only moves to pending once the registrar
// accepts; a rejection or transport failure leaves it untouched.
func (s *DomainReservationFlowImpl) ReserveDomain(ctx context.Context, req *dto.ReserveDomainRequest, metadata *ClientMetadata) (*dto.ReserveDomainResponse, error) {
	customer, page, domain, err := s.validateSubmission(ctx, req.CustomerID, req.PageUUID, req.Domain, true)
	if err != nil {
		return nil, err
	}

	request, err := s.loadOrNewRequest(ctx, page)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_LOOKUP_FAILED", "Failed to lookup domain request", err)
	}

	nextStatus, err := models.TransitionDomainStatus(request.Status, models.DomainEventReserve)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_TRANSITION_FAILED", "Domain request cannot be reserved", err)
	}

	if err := s.ensureDomainUnclaimed(ctx, domain, page.ID); err != nil {
		return nil, NewBusinessError("DOMAIN_ALREADY_REQUESTED", "Domain already requested", err)
	}

	err = s.registrar.Reserve(ctx, services.ReserveRequest{
		LinkID:          page.UUID.String(),
		Domain:          domain,
		ReservationType: string(models.ReservationTypeBuyNew),
	})
	if err != nil {
		var rejected *services.ReserveRejectedError
		if errors.As(err, &rejected) {
			// Server-side conflict: surface the registrar's message
			// verbatim, state untouched.
			errMsg := rejected.Message
			_ = s.createAuditLog(ctx, &customer, models.AuditActionDomainReserveFailed, errMsg, false, &errMsg, metadata)

			return nil, NewBusinessError("DOMAIN_RESERVE_REJECTED", rejected.Message, err)
		}
		return nil, NewBusinessError("REGISTRAR_UNAVAILABLE", "Registrar unreachable, try again", err)
	}

	now := utils.UTCNow()
	request.Status = nextStatus
	request.RequestedDomain = &domain
	request.ReservationType = models.ReservationTypeBuyNew
	request.RequestedAt = &now

	if err := s.persistRequest(ctx, request); err != nil {
		return nil, NewBusinessError("DOMAIN_RESERVE_FAILED", "Domain reservation failed", err)
	}

	msg := fmt.Sprintf("Domain %s reserved for page %s", domain, page.UUID)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionDomainReserved, msg, true, nil, metadata)

	return &dto.ReserveDomainResponse{
		Message:     "Domain reserved, pending activation",
		RequestUUID: request.UUID.String(),
		Domain:      domain,
		Status:      string(request.Status),
		RequestedAt: now.Format(time.RFC3339),
	}, nil
}

// ConnectOwnDomain records a customer-owned domain for a page. No
// availability search is involved; ownership is presumed and verified
// later by the admin's DNS probe.
func (s *DomainReservationFlowImpl) ConnectOwnDomain(ctx context.Context, req *dto.ConnectDomainRequest, metadata *ClientMetadata) (*dto.ConnectDomainResponse, error) {
	customer, page, domain, err := s.validateSubmission(ctx, req.CustomerID, req.PageUUID, req.Domain, false)
	if err != nil {
		return nil, err
	}

	request, err := s.loadOrNewRequest(ctx, page)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_LOOKUP_FAILED", "Failed to lookup domain request", err)
	}

	nextStatus, err := models.TransitionDomainStatus(request.Status, models.DomainEventConnectOwn)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_TRANSITION_FAILED", "Domain request cannot be connected", err)
	}

	if err := s.ensureDomainUnclaimed(ctx, domain, page.ID); err != nil {
		return nil, NewBusinessError("DOMAIN_ALREADY_REQUESTED", "Domain already requested", err)
	}

	now := utils.UTCNow()
	request.Status = nextStatus
	request.RequestedDomain = &domain
	request.ReservationType = models.ReservationTypeConnectOwn
	request.RequestedAt = &now

	if err := s.persistRequest(ctx, request); err != nil {
		return nil, NewBusinessError("DOMAIN_CONNECT_FAILED", "Domain connect failed", err)
	}

	msg := fmt.Sprintf("Own domain %s connected to page %s", domain, page.UUID)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionDomainConnected, msg, true, nil, metadata)

	return &dto.ConnectDomainResponse{
		Message:     "Domain connected, pending activation",
		RequestUUID: request.UUID.String(),
		Domain:      domain,
		Status:      string(request.Status),
		RequestedAt: now.Format(time.RFC3339),
	}, nil
}

// validateSubmission resolves the customer, the owned page, and the
// normalized domain shared by both submission paths. The full candidate
// policy only applies to buy-new submissions.
func (s *DomainReservationFlowImpl) validateSubmission(ctx context.Context, customerID uint, pageUUID, domain *string, buyNew bool) (models.Customer, *models.LinkPage, string, error) {
	customer, err := getCustomer(ctx, s.customerRepo, customerID)
	if err != nil {
		return models.Customer{}, nil, "", NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if pageUUID == nil || *pageUUID == "" {
		return models.Customer{}, nil, "", NewBusinessError("DOMAIN_VALIDATION_FAILED", "Domain validation failed", ErrPageUUIDRequired)
	}
	if domain == nil || strings.TrimSpace(*domain) == "" {
		return models.Customer{}, nil, "", NewBusinessError("DOMAIN_VALIDATION_FAILED", "Domain validation failed", ErrDomainRequired)
	}

	page, err := s.linkPageRepo.ByUUID(ctx, *pageUUID)
	if err != nil {
		return models.Customer{}, nil, "", NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}
	if page == nil {
		return models.Customer{}, nil, "", NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", ErrPageNotFound)
	}
	if page.CustomerID != customerID {
		return models.Customer{}, nil, "", NewBusinessError("PAGE_ACCESS_DENIED", "Page access denied", ErrPageAccessDenied)
	}

	var normalized string
	if buyNew {
		normalized, err = NormalizeDomainCandidate(*domain)
	} else {
		normalized, err = NormalizeOwnedDomain(*domain)
	}
	if err != nil {
		return models.Customer{}, nil, "", NewBusinessError("DOMAIN_POLICY_VIOLATION", "Domain candidate rejected", err)
	}

	return customer, page, normalized, nil
}

// loadOrNewRequest returns the page's domain request, creating a fresh
// none-status record when the page has never had one.
func (s *DomainReservationFlowImpl) loadOrNewRequest(ctx context.Context, page *models.LinkPage) (*models.DomainRequest, error) {
	request, err := s.domainRepo.ByLinkPageID(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		request = &models.DomainRequest{
			UUID:       uuid.New(),
			LinkPageID: page.ID,
			Status:     models.DomainStatusNone,
		}
	}
	return request, nil
}

// ensureDomainUnclaimed rejects a domain already requested by a
// different page
func (s *DomainReservationFlowImpl) ensureDomainUnclaimed(ctx context.Context, domain string, pageID uint) error {
	existing, err := s.domainRepo.ByDomain(ctx, domain)
	if err != nil {
		return err
	}
	if existing != nil && existing.LinkPageID != pageID {
		return fmt.Errorf("%w: %s", ErrDomainAlreadyRequested, domain)
	}
	return nil
}

func (s *DomainReservationFlowImpl) persistRequest(ctx context.Context, request *models.DomainRequest) error {
	return repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if request.ID == 0 {
			return s.domainRepo.Save(txCtx, request)
		}
		return s.domainRepo.Update(txCtx, *request)
	})
}

// NormalizeDomainCandidate canonicalizes a buy-new candidate and
// enforces the candidate policy: .com only, no digits, at least five
// characters after normalization. A dotless candidate gets .com
// appended, so "coffee" searches as "coffee.com".
func NormalizeDomainCandidate(raw string) (string, error) {
	normalized, err := canonicalizeDomain(raw)
	if err != nil {
		return "", err
	}

	if !strings.Contains(normalized, ".") {
		normalized += utils.DomainTLD
	}
	if !strings.HasSuffix(normalized, utils.DomainTLD) {
		return "", fmt.Errorf("%w: %s", ErrDomainWrongTLD, normalized)
	}
	label := strings.TrimSuffix(normalized, utils.DomainTLD)
	if strings.ContainsFunc(label, unicode.IsDigit) {
		return "", fmt.Errorf("%w: %s", ErrDomainContainsDigits, normalized)
	}
	if len(normalized) < utils.DomainMinLength {
		return "", fmt.Errorf("%w: %s", ErrDomainTooShort, normalized)
	}

	return normalized, nil
}

// NormalizeOwnedDomain canonicalizes a connect-own submission. The
// buy-new policy does not apply; the customer may own any TLD.
func NormalizeOwnedDomain(raw string) (string, error) {
	normalized, err := canonicalizeDomain(raw)
	if err != nil {
		return "", err
	}
	if !strings.Contains(normalized, ".") {
		return "", fmt.Errorf("%w: %s", ErrDomainNotNormalizable, normalized)
	}
	return normalized, nil
}

// canonicalizeDomain trims, lowercases, strips scheme and www. prefixes,
// and punycodes the result
func canonicalizeDomain(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/#?"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", ErrDomainNotNormalizable
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDomainNotNormalizable, s)
	}
	return strings.ToLower(ascii), nil
}

// FormatPriceCents renders minor units as a dollar display string,
// e.g. 1200 -> "$12.00"
func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func (s *DomainReservationFlowImpl) createAuditLog(ctx context.Context, customer *models.Customer, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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
