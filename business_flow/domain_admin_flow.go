// Package businessflow contains the core business logic and use cases for domain administration workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/app/services"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	"github.com/linkforge/linkforge/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// DomainAdminFlow handles the back-office side of the domain
// reservation workflow
type DomainAdminFlow interface {
	TestDNS(ctx context.Context, req *dto.TestDNSRequest, metadata *ClientMetadata) (*dto.TestDNSResponse, error)
	Activate(ctx context.Context, req *dto.ActivateDomainRequest, metadata *ClientMetadata) (*dto.ActivateDomainResponse, error)
	Reject(ctx context.Context, req *dto.RejectDomainRequest, metadata *ClientMetadata) (*dto.RejectDomainResponse, error)
	ListRequests(ctx context.Context, req *dto.ListDomainRequestsRequest) (*dto.ListDomainRequestsResponse, error)
	ExportRequests(ctx context.Context) (string, []byte, error)
}

// DomainAdminFlowImpl implements the domain administration business flow
type DomainAdminFlowImpl struct {
	domainRepo repository.DomainRequestRepository
	auditRepo  repository.AuditLogRepository
	dnsService services.DNSService
	db         *gorm.DB
}

// NewDomainAdminFlow creates a new domain administration flow instance
func NewDomainAdminFlow(
	domainRepo repository.DomainRequestRepository,
	auditRepo repository.AuditLogRepository,
	dnsService services.DNSService,
	db *gorm.DB,
) DomainAdminFlow {
	return &DomainAdminFlowImpl{
		domainRepo: domainRepo,
		auditRepo:  auditRepo,
		dnsService: dnsService,
		db:         db,
	}
}

// TestDNS runs an advisory DNS probe against the request's domain and
// caches the result. The request status is never touched; a resolver
// failure keeps the previously cached probe.
func (s *DomainAdminFlowImpl) TestDNS(ctx context.Context, req *dto.TestDNSRequest, metadata *ClientMetadata) (*dto.TestDNSResponse, error) {
	request, err := s.loadRequest(ctx, req.UUID)
	if err != nil {
		return nil, err
	}
	if request.RequestedDomain == nil || *request.RequestedDomain == "" {
		return nil, NewBusinessError("DNS_TEST_FAILED", "DNS test failed", ErrDomainProbeTargetRequired)
	}

	result, err := s.dnsService.Probe(ctx, *request.RequestedDomain)
	if err != nil {
		if errors.Is(err, services.ErrDNSUnavailable) {
			return nil, NewBusinessError("DNS_UNAVAILABLE", "DNS resolver unreachable, try again", err)
		}
		return nil, NewBusinessError("DNS_TEST_FAILED", "DNS test failed", err)
	}

	now := utils.UTCNow()
	request.DNSProbe = models.DNSProbe{
		Configured: result.Configured,
		Message:    result.Message,
		Addresses:  result.Addresses,
		CheckedAt:  &now,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.domainRepo.Update(txCtx, *request)
	})
	if err != nil {
		return nil, NewBusinessError("DNS_TEST_FAILED", "DNS test failed", err)
	}

	msg := fmt.Sprintf("DNS tested for %s: configured=%t", *request.RequestedDomain, result.Configured)
	_ = s.createAuditLog(ctx, models.AuditActionDomainDNSTested, msg, true, nil, metadata)

	return &dto.TestDNSResponse{
		Message:    "DNS probe completed",
		Configured: result.Configured,
		Detail:     result.Message,
		Addresses:  result.Addresses,
	}, nil
}

// Activate moves a pending or previously failed request to active and
// stamps the activation time. Activating an already active request is a
// no-op that reports success.
func (s *DomainAdminFlowImpl) Activate(ctx context.Context, req *dto.ActivateDomainRequest, metadata *ClientMetadata) (*dto.ActivateDomainResponse, error) {
	request, err := s.loadRequest(ctx, req.UUID)
	if err != nil {
		return nil, err
	}

	alreadyActive := request.Status == models.DomainStatusActive

	nextStatus, err := models.TransitionDomainStatus(request.Status, models.DomainEventActivate)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_TRANSITION_FAILED", "Domain request cannot be activated", err)
	}

	if !alreadyActive {
		now := utils.UTCNow()
		request.Status = nextStatus
		request.ActivatedAt = &now

		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			return s.domainRepo.Update(txCtx, *request)
		})
		if err != nil {
			return nil, NewBusinessError("DOMAIN_ACTIVATION_FAILED", "Domain activation failed", err)
		}

		msg := fmt.Sprintf("Domain request %s activated", request.UUID)
		_ = s.createAuditLog(ctx, models.AuditActionDomainActivated, msg, true, nil, metadata)
	}

	resp := &dto.ActivateDomainResponse{
		Message: "Domain request activated",
		Status:  string(request.Status),
	}
	if alreadyActive {
		resp.Message = "Domain request already active"
	}
	if request.ActivatedAt != nil {
		activated := request.ActivatedAt.Format(time.RFC3339)
		resp.ActivatedAt = &activated
	}

	return resp, nil
}

// Reject moves a pending or active request to failed and stores the
// admin's notes. Rejecting an already failed request is a no-op.
// Revoking an active domain drops the page back to its platform slug.
func (s *DomainAdminFlowImpl) Reject(ctx context.Context, req *dto.RejectDomainRequest, metadata *ClientMetadata) (*dto.RejectDomainResponse, error) {
	request, err := s.loadRequest(ctx, req.UUID)
	if err != nil {
		return nil, err
	}

	alreadyFailed := request.Status == models.DomainStatusFailed

	nextStatus, err := models.TransitionDomainStatus(request.Status, models.DomainEventReject)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_TRANSITION_FAILED", "Domain request cannot be rejected", err)
	}

	if !alreadyFailed {
		request.Status = nextStatus
		request.ActivatedAt = nil
		if req.Notes != nil && *req.Notes != "" {
			request.Notes = req.Notes
		}

		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			return s.domainRepo.Update(txCtx, *request)
		})
		if err != nil {
			return nil, NewBusinessError("DOMAIN_REJECTION_FAILED", "Domain rejection failed", err)
		}

		msg := fmt.Sprintf("Domain request %s rejected", request.UUID)
		_ = s.createAuditLog(ctx, models.AuditActionDomainRejected, msg, true, nil, metadata)
	}

	resp := &dto.RejectDomainResponse{
		Message: "Domain request rejected",
		Status:  string(request.Status),
	}
	if alreadyFailed {
		resp.Message = "Domain request already rejected"
	}

	return resp, nil
}

// ListRequests returns a paginated admin view of domain requests,
// optionally filtered by status
func (s *DomainAdminFlowImpl) ListRequests(ctx context.Context, req *dto.ListDomainRequestsRequest) (*dto.ListDomainRequestsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	filter := models.DomainRequestFilter{}
	if req.Status != nil && *req.Status != "" {
		status := models.DomainRequestStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("DOMAIN_LIST_FAILED", "Failed to list domain requests",
				fmt.Errorf("unknown status %q", *req.Status))
		}
		filter.Status = &status
	}

	requests, err := s.domainRepo.ByFilter(ctx, filter, "created_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_LIST_FAILED", "Failed to list domain requests", err)
	}
	total, err := s.domainRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_LIST_FAILED", "Failed to list domain requests", err)
	}

	resp := &dto.ListDomainRequestsResponse{
		Message: "Domain requests retrieved successfully",
		Items:   make([]dto.DomainRequestDTO, 0, len(requests)),
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}
	for _, request := range requests {
		resp.Items = append(resp.Items, ToDomainRequestDTO(request))
	}

	return resp, nil
}

// ExportRequests builds an XLSX workbook of all domain requests, one
// sheet per status, for the back office
func (s *DomainAdminFlowImpl) ExportRequests(ctx context.Context) (string, []byte, error) {
	statuses := []models.DomainRequestStatus{
		models.DomainStatusPending,
		models.DomainStatusActive,
		models.DomainStatusFailed,
		models.DomainStatusNone,
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	for i, status := range statuses {
		name := sanitizeSheetName(string(status))
		if i == 0 {
			xl.SetSheetName(xl.GetSheetName(0), name)
		} else {
			_, _ = xl.NewSheet(name)
		}

		header := []string{"uuid", "page_uuid", "customer_id", "domain", "reservation_type", "status", "requested_at", "activated_at", "dns_configured", "notes", "created_at"}
		_ = xl.SetSheetRow(name, "A1", &header)

		requests, err := s.domainRepo.ListByStatus(ctx, status, 0, 0)
		if err != nil {
			return "", nil, NewBusinessError("DOMAIN_EXPORT_FAILED", "Failed to export domain requests", err)
		}

		for ri, r := range requests {
			domain := ""
			if r.RequestedDomain != nil {
				domain = *r.RequestedDomain
			}
			pageUUID := ""
			customerID := ""
			if r.LinkPage != nil {
				pageUUID = r.LinkPage.UUID.String()
				customerID = fmt.Sprintf("%d", r.LinkPage.CustomerID)
			}
			requestedAt := ""
			if r.RequestedAt != nil {
				requestedAt = r.RequestedAt.UTC().Format(time.RFC3339)
			}
			activatedAt := ""
			if r.ActivatedAt != nil {
				activatedAt = r.ActivatedAt.UTC().Format(time.RFC3339)
			}
			notes := ""
			if r.Notes != nil {
				notes = *r.Notes
			}
			record := []string{
				r.UUID.String(),
				pageUUID,
				customerID,
				domain,
				string(r.ReservationType),
				string(r.Status),
				requestedAt,
				activatedAt,
				fmt.Sprintf("%t", r.DNSProbe.Configured),
				notes,
				r.CreatedAt.UTC().Format(time.RFC3339),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("domain_requests_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

func (s *DomainAdminFlowImpl) loadRequest(ctx context.Context, requestUUID string) (*models.DomainRequest, error) {
	if requestUUID == "" {
		return nil, NewBusinessError("DOMAIN_VALIDATION_FAILED", "Domain validation failed", ErrDomainRequestUUIDRequired)
	}
	request, err := s.domainRepo.ByUUID(ctx, requestUUID)
	if err != nil {
		return nil, NewBusinessError("DOMAIN_LOOKUP_FAILED", "Failed to lookup domain request", err)
	}
	if request == nil {
		return nil, NewBusinessError("DOMAIN_LOOKUP_FAILED", "Failed to lookup domain request", ErrDomainRequestNotFound)
	}
	return request, nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		return "Sheet"
	}
	return safe
}

func (s *DomainAdminFlowImpl) createAuditLog(ctx context.Context, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
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
