// Package businessflow contains the core business logic and use cases for link page workflows
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// LinkPageFlow handles the link page and button collection business logic
type LinkPageFlow interface {
	CreateDraft(ctx context.Context, req *dto.CreatePageRequest, metadata *ClientMetadata) (*dto.CreatePageResponse, error)
	UpdatePage(ctx context.Context, req *dto.UpdatePageRequest, metadata *ClientMetadata) (*dto.UpdatePageResponse, error)
	DeletePage(ctx context.Context, req *dto.DeletePageRequest, metadata *ClientMetadata) (*dto.DeletePageResponse, error)
	ListPages(ctx context.Context, req *dto.ListPagesRequest, metadata *ClientMetadata) (*dto.ListPagesResponse, error)
	AddButton(ctx context.Context, req *dto.AddButtonRequest, metadata *ClientMetadata) (*dto.AddButtonResponse, error)
	UpdateButton(ctx context.Context, req *dto.UpdateButtonRequest, metadata *ClientMetadata) (*dto.UpdateButtonResponse, error)
	DeleteButton(ctx context.Context, req *dto.DeleteButtonRequest, metadata *ClientMetadata) (*dto.DeleteButtonResponse, error)
	ReorderButtons(ctx context.Context, req *dto.ReorderButtonsRequest, metadata *ClientMetadata) (*dto.ReorderButtonsResponse, error)
	SetRotatorSlot(ctx context.Context, req *dto.SetRotatorSlotRequest, metadata *ClientMetadata) (*dto.SetRotatorSlotResponse, error)
}

// LinkPageFlowImpl implements the link page business flow
type LinkPageFlowImpl struct {
	linkPageRepo repository.LinkPageRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	draftCache   repository.DraftCache
	db           *gorm.DB
}

// NewLinkPageFlow creates a new link page flow instance
func NewLinkPageFlow(
	linkPageRepo repository.LinkPageRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	draftCache repository.DraftCache,
	db *gorm.DB,
) LinkPageFlow {
	return &LinkPageFlowImpl{
		linkPageRepo: linkPageRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		draftCache:   draftCache,
		db:           db,
	}
}

// CreateDraft creates a new draft page for the customer. The draft is
// persisted to the authoritative tier and written through to the draft
// cache before returning.
func (s *LinkPageFlowImpl) CreateDraft(ctx context.Context, req *dto.CreatePageRequest, metadata *ClientMetadata) (*dto.CreatePageResponse, error) {
	if req.DisplayName == nil || *req.DisplayName == "" {
		return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", ErrPageDisplayNameRequired)
	}

	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page := &models.LinkPage{
		UUID:        uuid.New(),
		CustomerID:  customer.ID,
		State:       models.LifecycleStateDraft,
		DisplayName: *req.DisplayName,
		Template:    models.PageTemplateClassic,
		Theme: models.PageTheme{
			OverlayOpacity: 100,
			BackgroundType: models.BackgroundTypeSolid,
		},
		Buttons: models.ButtonList{},
	}
	if req.ProfileName != nil {
		page.ProfileName = *req.ProfileName
	}
	if req.FolderTag != nil {
		page.FolderTag = req.FolderTag
	}
	if req.Template != nil {
		template := models.PageTemplate(*req.Template)
		if !template.Valid() {
			return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", ErrInvalidTemplate)
		}
		page.Template = template
	}
	if req.Theme != nil {
		if err := applyTheme(&page.Theme, req.Theme); err != nil {
			return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", err)
		}
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.linkPageRepo.Save(txCtx, page)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Page creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &customer, models.AuditActionPageCreationFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PAGE_CREATION_FAILED", "Page creation failed", err)
	}

	s.writeThrough(ctx, page)

	msg := fmt.Sprintf("Page created: %s", page.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionPageCreated, msg, true, nil, metadata)

	return &dto.CreatePageResponse{
		Message: "Page created successfully",
		Page:    ToPageResponse(page),
	}, nil
}

// UpdatePage applies the provided fields to an existing page
func (s *LinkPageFlowImpl) UpdatePage(ctx context.Context, req *dto.UpdatePageRequest, metadata *ClientMetadata) (*dto.UpdatePageResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, err := s.loadOwnedPage(ctx, req.CustomerID, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}

	if req.DisplayName != nil {
		if *req.DisplayName == "" {
			return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", ErrPageDisplayNameRequired)
		}
		page.DisplayName = *req.DisplayName
	}
	if req.ProfileName != nil {
		page.ProfileName = *req.ProfileName
	}
	if req.ProfileImageRef != nil {
		page.ProfileImageRef = req.ProfileImageRef
	}
	if req.FolderTag != nil {
		page.FolderTag = req.FolderTag
	}
	if req.Template != nil {
		template := models.PageTemplate(*req.Template)
		if !template.Valid() {
			return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", ErrInvalidTemplate)
		}
		page.Template = template
	}
	if req.Theme != nil {
		if err := applyTheme(&page.Theme, req.Theme); err != nil {
			return nil, NewBusinessError("PAGE_VALIDATION_FAILED", "Page validation failed", err)
		}
	}

	if err := s.persistPage(ctx, page); err != nil {
		return nil, NewBusinessError("PAGE_UPDATE_FAILED", "Page update failed", err)
	}

	msg := fmt.Sprintf("Page updated: %s", page.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionPageUpdated, msg, true, nil, metadata)

	return &dto.UpdatePageResponse{
		Message: "Page updated successfully",
		Page:    ToPageResponse(page),
	}, nil
}

// DeletePage removes a page unconditionally, in any lifecycle state.
// Any domain request hanging off the page is removed with it.
func (s *LinkPageFlowImpl) DeletePage(ctx context.Context, req *dto.DeletePageRequest, metadata *ClientMetadata) (*dto.DeletePageResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, err := s.loadOwnedPage(ctx, req.CustomerID, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}

	if page.ID != 0 {
		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			return s.linkPageRepo.Delete(txCtx, page.ID)
		})
		if err != nil {
			return nil, NewBusinessError("PAGE_DELETION_FAILED", "Page deletion failed", err)
		}
	}
	if err := s.draftCache.Delete(ctx, page.CustomerID, page.UUID); err != nil {
		log.Printf("draft cache delete failed for page %s: %v", page.UUID, err)
	}

	msg := fmt.Sprintf("Page deleted: %s", page.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionPageDeleted, msg, true, nil, metadata)

	return &dto.DeletePageResponse{Message: "Page deleted successfully"}, nil
}

// ListPages returns the customer's pages merged across both tiers and
// partitioned by lifecycle state. On duplicate UUIDs the authoritative
// tier wins.
func (s *LinkPageFlowImpl) ListPages(ctx context.Context, req *dto.ListPagesRequest, metadata *ClientMetadata) (*dto.ListPagesResponse, error) {
	if _, err := getCustomer(ctx, s.customerRepo, req.CustomerID); err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	remote, err := s.linkPageRepo.ByCustomerID(ctx, req.CustomerID, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("PAGE_LIST_FAILED", "Failed to list pages", err)
	}

	cached, err := s.draftCache.List(ctx, req.CustomerID)
	if err != nil {
		log.Printf("draft cache list failed for customer %d: %v", req.CustomerID, err)
		cached = nil
	}

	merged := mergePages(remote, cached)
	drafts, actives := models.PartitionByLifecycle(merged)

	resp := &dto.ListPagesResponse{
		Message: "Pages retrieved successfully",
		Drafts:  make([]dto.PageResponse, 0, len(drafts)),
		Active:  make([]dto.PageResponse, 0, len(actives)),
	}
	for _, p := range drafts {
		resp.Drafts = append(resp.Drafts, ToPageResponse(p))
	}
	for _, p := range actives {
		resp.Active = append(resp.Active, ToPageResponse(p))
	}

	return resp, nil
}

// AddButton appends a preset-derived button to the page's collection
func (s *LinkPageFlowImpl) AddButton(ctx context.Context, req *dto.AddButtonRequest, metadata *ClientMetadata) (*dto.AddButtonResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, err := s.loadOwnedPage(ctx, req.CustomerID, req.PageUUID)
	if err != nil {
		return nil, NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}

	socialType := models.SocialTypeCustom
	if req.SocialType != nil {
		socialType = models.SocialType(*req.SocialType)
		if !socialType.Valid() {
			return nil, NewBusinessError("BUTTON_VALIDATION_FAILED", "Button validation failed", ErrInvalidSocialType)
		}
	}

	buttonID := page.AddButton(models.DefaultButtonPresets[socialType])

	patch := models.ButtonPatch{
		Title:        req.Title,
		TargetURL:    req.TargetURL,
		FillColor:    req.FillColor,
		TextColor:    req.TextColor,
		FontFamily:   req.FontFamily,
		CornerRadius: req.CornerRadius,
		Opacity:      req.Opacity,
		BorderWidth:  req.BorderWidth,
	}
	page.UpdateButton(buttonID, patch)

	if err := s.persistPage(ctx, page); err != nil {
		return nil, NewBusinessError("BUTTON_ADD_FAILED", "Button add failed", err)
	}

	msg := fmt.Sprintf("Button %s added to page %s", buttonID, page.UUID)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionButtonAdded, msg, true, nil, metadata)

	var added dto.ButtonDTO
	for _, b := range page.Buttons {
		if b.ID == buttonID {
			added = ToButtonDTO(b)
			break
		}
	}

	return &dto.AddButtonResponse{
		Message: "Button added successfully",
		Button:  added,
		Page:    ToPageResponse(page),
	}, nil
}

// UpdateButton merges a partial update into one button. An unknown
// button id is a silent no-op.
func (s *LinkPageFlowImpl) UpdateButton(ctx context.Context, req *dto.UpdateButtonRequest, metadata *ClientMetadata) (*dto.UpdateButtonResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, buttonID, err := s.loadOwnedPageWithButton(ctx, req.CustomerID, req.PageUUID, req.ButtonID)
	if err != nil {
		return nil, err
	}

	patch := models.ButtonPatch{
		Title:        req.Title,
		TargetURL:    req.TargetURL,
		FillColor:    req.FillColor,
		TextColor:    req.TextColor,
		FontFamily:   req.FontFamily,
		CornerRadius: req.CornerRadius,
		Opacity:      req.Opacity,
		BorderWidth:  req.BorderWidth,
		IsActive:     req.IsActive,
		RotatorOn:    req.RotatorOn,
	}

	touched := page.UpdateButton(buttonID, patch)
	if touched {
		if err := s.persistPage(ctx, page); err != nil {
			return nil, NewBusinessError("BUTTON_UPDATE_FAILED", "Button update failed", err)
		}
		msg := fmt.Sprintf("Button %s updated on page %s", buttonID, page.UUID)
		_ = s.createAuditLog(ctx, &customer, models.AuditActionButtonUpdated, msg, true, nil, metadata)
	}

	message := "Button updated successfully"
	if !touched {
		message = "Button not present, nothing to update"
	}

	return &dto.UpdateButtonResponse{
		Message: message,
		Page:    ToPageResponse(page),
	}, nil
}

// DeleteButton removes one button. An unknown button id is a silent no-op.
func (s *LinkPageFlowImpl) DeleteButton(ctx context.Context, req *dto.DeleteButtonRequest, metadata *ClientMetadata) (*dto.DeleteButtonResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, buttonID, err := s.loadOwnedPageWithButton(ctx, req.CustomerID, req.PageUUID, req.ButtonID)
	if err != nil {
		return nil, err
	}

	removed := page.DeleteButton(buttonID)
	if removed {
		if err := s.persistPage(ctx, page); err != nil {
			return nil, NewBusinessError("BUTTON_DELETION_FAILED", "Button deletion failed", err)
		}
		msg := fmt.Sprintf("Button %s deleted from page %s", buttonID, page.UUID)
		_ = s.createAuditLog(ctx, &customer, models.AuditActionButtonDeleted, msg, true, nil, metadata)
	}

	message := "Button deleted successfully"
	if !removed {
		message = "Button not present, nothing to delete"
	}

	return &dto.DeleteButtonResponse{
		Message: message,
		Page:    ToPageResponse(page),
	}, nil
}

// ReorderButtons moves the button at From to position To, shifting the
// buttons in between. Out-of-range positions are errors.
func (s *LinkPageFlowImpl) ReorderButtons(ctx context.Context, req *dto.ReorderButtonsRequest, metadata *ClientMetadata) (*dto.ReorderButtonsResponse, error) {
	if req.From == nil || req.To == nil {
		return nil, NewBusinessError("BUTTON_VALIDATION_FAILED", "Button validation failed", ErrReorderIndexesRequired)
	}

	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, err := s.loadOwnedPage(ctx, req.CustomerID, req.PageUUID)
	if err != nil {
		return nil, NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}

	if err := page.Reorder(*req.From, *req.To); err != nil {
		return nil, NewBusinessError("BUTTON_REORDER_FAILED", "Button reorder failed", err)
	}

	if err := s.persistPage(ctx, page); err != nil {
		return nil, NewBusinessError("BUTTON_REORDER_FAILED", "Button reorder failed", err)
	}

	msg := fmt.Sprintf("Buttons reordered on page %s: %d -> %d", page.UUID, *req.From, *req.To)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionButtonsReordered, msg, true, nil, metadata)

	return &dto.ReorderButtonsResponse{
		Message: "Buttons reordered successfully",
		Page:    ToPageResponse(page),
	}, nil
}

// SetRotatorSlot writes one alternate URL slot on a messenger button's
// rotator. An empty URL clears the slot.
func (s *LinkPageFlowImpl) SetRotatorSlot(ctx context.Context, req *dto.SetRotatorSlotRequest, metadata *ClientMetadata) (*dto.SetRotatorSlotResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	page, buttonID, err := s.loadOwnedPageWithButton(ctx, req.CustomerID, req.PageUUID, req.ButtonID)
	if err != nil {
		return nil, err
	}

	url := ""
	if req.URL != nil {
		url = *req.URL
	}

	if err := page.SetRotatorSlot(buttonID, req.Slot, url); err != nil {
		return nil, NewBusinessError("ROTATOR_SLOT_FAILED", "Rotator slot update failed", err)
	}

	if err := s.persistPage(ctx, page); err != nil {
		return nil, NewBusinessError("ROTATOR_SLOT_FAILED", "Rotator slot update failed", err)
	}

	msg := fmt.Sprintf("Rotator slot %d set on button %s of page %s", req.Slot, buttonID, page.UUID)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionButtonUpdated, msg, true, nil, metadata)

	return &dto.SetRotatorSlotResponse{
		Message: "Rotator slot updated successfully",
		Page:    ToPageResponse(page),
	}, nil
}

// loadOwnedPage resolves a page by UUID, checking the authoritative tier
// first and falling back to the draft cache for offline-only drafts.
func (s *LinkPageFlowImpl) loadOwnedPage(ctx context.Context, customerID uint, pageUUID string) (*models.LinkPage, error) {
	if pageUUID == "" {
		return nil, ErrPageUUIDRequired
	}
	parsed, err := utils.ParseUUID(pageUUID)
	if err != nil {
		return nil, ErrPageNotFound
	}

	page, err := s.linkPageRepo.ByUUID(ctx, pageUUID)
	if err != nil {
		return nil, err
	}
	if page != nil {
		if page.CustomerID != customerID {
			return nil, ErrPageAccessDenied
		}
		return page, nil
	}

	page, err = s.draftCache.Get(ctx, customerID, parsed)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	return page, nil
}

func (s *LinkPageFlowImpl) loadOwnedPageWithButton(ctx context.Context, customerID uint, pageUUID, buttonID string) (*models.LinkPage, uuid.UUID, error) {
	if buttonID == "" {
		return nil, uuid.Nil, NewBusinessError("BUTTON_VALIDATION_FAILED", "Button validation failed", ErrButtonIDRequired)
	}
	parsedButton, err := utils.ParseUUID(buttonID)
	if err != nil {
		return nil, uuid.Nil, NewBusinessError("BUTTON_VALIDATION_FAILED", "Button validation failed", err)
	}

	page, err := s.loadOwnedPage(ctx, customerID, pageUUID)
	if err != nil {
		return nil, uuid.Nil, NewBusinessError("PAGE_LOOKUP_FAILED", "Failed to lookup page", err)
	}

	return page, parsedButton, nil
}

// persistPage writes a mutated page to the authoritative tier and then
// through to the draft cache. Pages that only exist in the cache (drafts
// created while the authoritative tier was unreachable) are inserted.
func (s *LinkPageFlowImpl) persistPage(ctx context.Context, page *models.LinkPage) error {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if page.ID == 0 {
			return s.linkPageRepo.Save(txCtx, page)
		}
		return s.linkPageRepo.Update(txCtx, *page)
	})
	if err != nil {
		return err
	}

	s.writeThrough(ctx, page)
	return nil
}

// writeThrough keeps the draft cache in sync: drafts are snapshotted,
// non-drafts are evicted.
func (s *LinkPageFlowImpl) writeThrough(ctx context.Context, page *models.LinkPage) {
	var err error
	if page.IsDraft() {
		err = s.draftCache.Put(ctx, page)
	} else {
		err = s.draftCache.Delete(ctx, page.CustomerID, page.UUID)
	}
	if err != nil {
		log.Printf("draft cache write-through failed for page %s: %v", page.UUID, err)
	}
}

// mergePages de-duplicates the two tiers by UUID with remote precedence
func mergePages(remote, cached []*models.LinkPage) []*models.LinkPage {
	seen := make(map[uuid.UUID]bool, len(remote))
	merged := make([]*models.LinkPage, 0, len(remote)+len(cached))
	for _, p := range remote {
		seen[p.UUID] = true
		merged = append(merged, p)
	}
	for _, p := range cached {
		if seen[p.UUID] {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func applyTheme(theme *models.PageTheme, patch *dto.ThemeDTO) error {
	if patch.BorderColor != nil {
		theme.BorderColor = *patch.BorderColor
	}
	if patch.OverlayOpacity != nil {
		opacity := *patch.OverlayOpacity
		if opacity < 0 {
			opacity = 0
		}
		if opacity > 100 {
			opacity = 100
		}
		theme.OverlayOpacity = opacity
	}
	if patch.BackgroundType != nil {
		bt := models.BackgroundType(*patch.BackgroundType)
		if bt != models.BackgroundTypeSolid && bt != models.BackgroundTypeGradient {
			return ErrInvalidBackgroundType
		}
		theme.BackgroundType = bt
	}
	if patch.BackgroundFrom != nil {
		theme.BackgroundFrom = *patch.BackgroundFrom
	}
	if patch.BackgroundTo != nil {
		theme.BackgroundTo = *patch.BackgroundTo
	}
	return nil
}

func (s *LinkPageFlowImpl) createAuditLog(ctx context.Context, customer *models.Customer, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

	// Extract request ID from context if available
	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	if err := s.auditRepo.Save(ctx, audit); err != nil {
		return err
	}

	return nil
}
