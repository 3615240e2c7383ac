// Package dto contains request and response structures for the API layer
package dto

// RotatorDTO mirrors the rotator state of a messenger button. The
// alternate list always carries exactly five slots.
type RotatorDTO struct {
	Enabled       bool     `json:"enabled"`
	AlternateURLs []string `json:"alternate_urls"`
}

// ButtonDTO is the API view of one button on a link page
type ButtonDTO struct {
	ID           string     `json:"id"`
	SocialType   string     `json:"social_type"`
	Title        string     `json:"title"`
	TargetURL    string     `json:"target_url"`
	FillColor    string     `json:"fill_color"`
	TextColor    string     `json:"text_color"`
	FontFamily   string     `json:"font_family"`
	CornerRadius int        `json:"corner_radius"`
	Opacity      int        `json:"opacity"`
	BorderWidth  int        `json:"border_width"`
	IsActive     bool       `json:"is_active"`
	Rotator      RotatorDTO `json:"rotator"`
}

// ThemeDTO is the API view of a page theme
type ThemeDTO struct {
	BorderColor    *string `json:"border_color,omitempty"`
	OverlayOpacity *int    `json:"overlay_opacity,omitempty"`
	BackgroundType *string `json:"background_type,omitempty"`
	BackgroundFrom *string `json:"background_from,omitempty"`
	BackgroundTo   *string `json:"background_to,omitempty"`
}

// PageResponse is the API view of one link page
type PageResponse struct {
	UUID            string      `json:"uuid"`
	State           string      `json:"state"`
	DisplayName     string      `json:"display_name"`
	ProfileName     string      `json:"profile_name,omitempty"`
	ProfileImageRef *string     `json:"profile_image_ref,omitempty"`
	FolderTag       *string     `json:"folder_tag,omitempty"`
	Template        string      `json:"template"`
	Theme           ThemeDTO    `json:"theme"`
	Buttons         []ButtonDTO `json:"buttons"`
	Slug            *string     `json:"slug,omitempty"`
	Domain          *string     `json:"domain,omitempty"`
	DomainStatus    *string     `json:"domain_status,omitempty"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       *string     `json:"updated_at,omitempty"`
}

// CreatePageRequest represents the request to create a new draft page
type CreatePageRequest struct {
	CustomerID  uint      `json:"-"`
	DisplayName *string   `json:"display_name,omitempty"`
	ProfileName *string   `json:"profile_name,omitempty"`
	Template    *string   `json:"template,omitempty"`
	Theme       *ThemeDTO `json:"theme,omitempty"`
	FolderTag   *string   `json:"folder_tag,omitempty"`
}

// CreatePageResponse represents the response to create a new draft page
type CreatePageResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}

// UpdatePageRequest represents the request to update an existing page.
// Only the provided fields are changed.
type UpdatePageRequest struct {
	UUID            string    `json:"-"`
	CustomerID      uint      `json:"-"`
	DisplayName     *string   `json:"display_name,omitempty"`
	ProfileName     *string   `json:"profile_name,omitempty"`
	ProfileImageRef *string   `json:"profile_image_ref,omitempty"`
	Template        *string   `json:"template,omitempty"`
	Theme           *ThemeDTO `json:"theme,omitempty"`
	FolderTag       *string   `json:"folder_tag,omitempty"`
}

// UpdatePageResponse represents the response to update an existing page
type UpdatePageResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}

// DeletePageRequest represents the request to delete a page
type DeletePageRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// DeletePageResponse represents the response to delete a page
type DeletePageResponse struct {
	Message string `json:"message"`
}

// ListPagesRequest represents the request to list a customer's pages
type ListPagesRequest struct {
	CustomerID uint `json:"-"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
}

// ListPagesResponse represents the merged page listing, partitioned by
// lifecycle state
type ListPagesResponse struct {
	Message string         `json:"message"`
	Drafts  []PageResponse `json:"drafts"`
	Active  []PageResponse `json:"active"`
}

// AddButtonRequest represents the request to append a button to a page
type AddButtonRequest struct {
	PageUUID     string  `json:"-"`
	CustomerID   uint    `json:"-"`
	SocialType   *string `json:"social_type,omitempty"`
	Title        *string `json:"title,omitempty"`
	TargetURL    *string `json:"target_url,omitempty"`
	FillColor    *string `json:"fill_color,omitempty"`
	TextColor    *string `json:"text_color,omitempty"`
	FontFamily   *string `json:"font_family,omitempty"`
	CornerRadius *int    `json:"corner_radius,omitempty"`
	Opacity      *int    `json:"opacity,omitempty"`
	BorderWidth  *int    `json:"border_width,omitempty"`
}

// AddButtonResponse represents the response to append a button
type AddButtonResponse struct {
	Message string       `json:"message"`
	Button  ButtonDTO    `json:"button"`
	Page    PageResponse `json:"page"`
}

// UpdateButtonRequest represents a partial update of a single button
type UpdateButtonRequest struct {
	PageUUID     string  `json:"-"`
	ButtonID     string  `json:"-"`
	CustomerID   uint    `json:"-"`
	Title        *string `json:"title,omitempty"`
	TargetURL    *string `json:"target_url,omitempty"`
	FillColor    *string `json:"fill_color,omitempty"`
	TextColor    *string `json:"text_color,omitempty"`
	FontFamily   *string `json:"font_family,omitempty"`
	CornerRadius *int    `json:"corner_radius,omitempty"`
	Opacity      *int    `json:"opacity,omitempty"`
	BorderWidth  *int    `json:"border_width,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
	RotatorOn    *bool   `json:"rotator_on,omitempty"`
}

// UpdateButtonResponse represents the response to a button update
type UpdateButtonResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}

// DeleteButtonRequest represents the request to remove a button
type DeleteButtonRequest struct {
	PageUUID   string `json:"-"`
	ButtonID   string `json:"-"`
	CustomerID uint   `json:"-"`
}

// DeleteButtonResponse represents the response to remove a button
type DeleteButtonResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}

// ReorderButtonsRequest moves the button at From to position To
type ReorderButtonsRequest struct {
	PageUUID   string `json:"-"`
	CustomerID uint   `json:"-"`
	From       *int   `json:"from,omitempty"`
	To         *int   `json:"to,omitempty"`
}

// ReorderButtonsResponse represents the response to a reorder
type ReorderButtonsResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}

// SetRotatorSlotRequest writes one alternate URL slot of a messenger
// button's rotator
type SetRotatorSlotRequest struct {
	PageUUID   string  `json:"-"`
	ButtonID   string  `json:"-"`
	Slot       int     `json:"-"`
	CustomerID uint    `json:"-"`
	URL        *string `json:"url,omitempty"`
}

// SetRotatorSlotResponse represents the response to a rotator slot write
type SetRotatorSlotResponse struct {
	Message string       `json:"message"`
	Page    PageResponse `json:"page"`
}
