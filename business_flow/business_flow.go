// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	"github.com/linkforge/linkforge/utils"
)

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// getCustomer loads an active customer by ID
func getCustomer(ctx context.Context, repo repository.CustomerRepository, customerID uint) (models.Customer, error) {
	customer, err := repo.ByID(ctx, customerID)
	if err != nil {
		return models.Customer{}, err
	}
	if customer == nil {
		return models.Customer{}, ErrCustomerNotFound
	}
	if !utils.IsTrue(customer.IsActive) {
		return models.Customer{}, ErrAccountInactive
	}
	return *customer, nil
}

// ToButtonDTO converts a button model to its API view
func ToButtonDTO(b models.ButtonLink) dto.ButtonDTO {
	alternates := make([]string, models.RotatorSlots)
	copy(alternates, b.Rotator.AlternateURLs[:])

	return dto.ButtonDTO{
		ID:           b.ID.String(),
		SocialType:   string(b.SocialType),
		Title:        b.Title,
		TargetURL:    b.TargetURL,
		FillColor:    b.FillColor,
		TextColor:    b.TextColor,
		FontFamily:   b.FontFamily,
		CornerRadius: b.CornerRadius,
		Opacity:      b.Opacity,
		BorderWidth:  b.BorderWidth,
		IsActive:     b.IsActive,
		Rotator: dto.RotatorDTO{
			Enabled:       b.Rotator.Enabled,
			AlternateURLs: alternates,
		},
	}
}

// ToThemeDTO converts a page theme to its API view
func ToThemeDTO(t models.PageTheme) dto.ThemeDTO {
	theme := dto.ThemeDTO{}
	if t.BorderColor != "" {
		theme.BorderColor = &t.BorderColor
	}
	overlay := t.OverlayOpacity
	theme.OverlayOpacity = &overlay
	if t.BackgroundType != "" {
		bt := string(t.BackgroundType)
		theme.BackgroundType = &bt
	}
	if t.BackgroundFrom != "" {
		theme.BackgroundFrom = &t.BackgroundFrom
	}
	if t.BackgroundTo != "" {
		theme.BackgroundTo = &t.BackgroundTo
	}
	return theme
}

// ToPageResponse converts a link page model to its API view
func ToPageResponse(page *models.LinkPage) dto.PageResponse {
	buttons := make([]dto.ButtonDTO, 0, len(page.Buttons))
	for _, b := range page.Buttons {
		buttons = append(buttons, ToButtonDTO(b))
	}

	resp := dto.PageResponse{
		UUID:            page.UUID.String(),
		State:           string(page.State),
		DisplayName:     page.DisplayName,
		ProfileName:     page.ProfileName,
		ProfileImageRef: page.ProfileImageRef,
		FolderTag:       page.FolderTag,
		Template:        string(page.Template),
		Theme:           ToThemeDTO(page.Theme),
		Buttons:         buttons,
		Slug:            page.Slug,
		CreatedAt:       page.CreatedAt.Format(time.RFC3339),
	}
	if page.UpdatedAt != nil {
		updated := page.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	if page.DomainRequest != nil {
		resp.Domain = page.DomainRequest.RequestedDomain
		status := string(page.DomainRequest.Status)
		resp.DomainStatus = &status
	}
	return resp
}

// ToDomainRequestDTO converts a domain request model to its admin API view
func ToDomainRequestDTO(request *models.DomainRequest) dto.DomainRequestDTO {
	item := dto.DomainRequestDTO{
		UUID:            request.UUID.String(),
		Domain:          request.RequestedDomain,
		ReservationType: string(request.ReservationType),
		Status:          string(request.Status),
		Notes:           request.Notes,
		CreatedAt:       request.CreatedAt.Format(time.RFC3339),
	}
	if request.LinkPage != nil {
		item.PageUUID = request.LinkPage.UUID.String()
		item.CustomerID = request.LinkPage.CustomerID
	}
	if request.RequestedAt != nil {
		requested := request.RequestedAt.Format(time.RFC3339)
		item.RequestedAt = &requested
	}
	if request.ActivatedAt != nil {
		activated := request.ActivatedAt.Format(time.RFC3339)
		item.ActivatedAt = &activated
	}
	if request.DNSProbe.CheckedAt != nil {
		checked := request.DNSProbe.CheckedAt.Format(time.RFC3339)
		item.DNSProbe = &dto.DNSProbeDTO{
			Configured: request.DNSProbe.Configured,
			Message:    request.DNSProbe.Message,
			Addresses:  request.DNSProbe.Addresses,
			CheckedAt:  &checked,
		}
	}
	return item
}
