// Package models contains domain entities and business models for the link page platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// LifecycleState represents the lifecycle state of a link page
type LifecycleState string

const (
	LifecycleStateDraft  LifecycleState = "draft"
	LifecycleStateActive LifecycleState = "active"
)

// String returns the string representation of the state
func (s LifecycleState) String() string {
	return string(s)
}

// Valid checks if the state is valid
func (s LifecycleState) Valid() bool {
	switch s {
	case LifecycleStateDraft, LifecycleStateActive:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for LifecycleState
func (s *LifecycleState) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = LifecycleState(v)
	case []byte:
		*s = LifecycleState(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LifecycleState", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for LifecycleState
func (s LifecycleState) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LifecycleState: %s", s)
	}
	return string(s), nil
}

// PageTemplate represents one of the fixed layout variants
type PageTemplate string

const (
	PageTemplateClassic  PageTemplate = "classic"
	PageTemplateCentered PageTemplate = "centered"
	PageTemplateSplit    PageTemplate = "split"
	PageTemplateCards    PageTemplate = "cards"
)

// Valid checks if the template is valid
func (t PageTemplate) Valid() bool {
	switch t {
	case PageTemplateClassic, PageTemplateCentered, PageTemplateSplit, PageTemplateCards:
		return true
	default:
		return false
	}
}

// BackgroundType distinguishes a solid background from a two-color gradient
type BackgroundType string

const (
	BackgroundTypeSolid    BackgroundType = "solid"
	BackgroundTypeGradient BackgroundType = "gradient"
)

// PageTheme represents the visual theme of a link page, stored as JSONB
type PageTheme struct {
	BorderColor    string         `json:"border_color,omitempty"`
	OverlayOpacity int            `json:"overlay_opacity"` // 0-100
	BackgroundType BackgroundType `json:"background_type,omitempty"`
	BackgroundFrom string         `json:"background_from,omitempty"`
	BackgroundTo   string         `json:"background_to,omitempty"` // only for gradient
}

// Value implements the driver.Valuer interface for PageTheme
func (t PageTheme) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for PageTheme.
// Records written before gradients existed carry no background type;
// they read back as solid.
func (t *PageTheme) Scan(value any) error {
	if value == nil {
		*t = PageTheme{BackgroundType: BackgroundTypeSolid}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PageTheme", value)
	}

	if err := json.Unmarshal(bytes, t); err != nil {
		return err
	}
	if t.BackgroundType == "" {
		t.BackgroundType = BackgroundTypeSolid
	}
	return nil
}

// Collection invariant errors. These are programmer errors and fail loudly,
// unlike the permissive unknown-id policy on UpdateButton/DeleteButton.
var (
	ErrReorderIndexOutOfRange = errors.New("reorder index out of range")
	ErrRotatorSlotOutOfRange  = errors.New("rotator slot out of range")
	ErrRotatorNotApplicable   = errors.New("rotator only applies to messenger buttons")
)

// LinkPage represents a creator's link-in-bio page
type LinkPage struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_link_pages_uuid" json:"uuid"`
	CustomerID uint           `gorm:"not null;index:idx_link_pages_customer_id" json:"customer_id"`
	State      LifecycleState `gorm:"type:varchar(16);not null;default:'draft';index:idx_link_pages_state" json:"state"`

	DisplayName     string  `gorm:"size:255;not null" json:"display_name"`
	ProfileName     string  `gorm:"size:255" json:"profile_name"`
	ProfileImageRef *string `gorm:"size:512" json:"profile_image_ref,omitempty"`
	FolderTag       *string `gorm:"size:64;index:idx_link_pages_folder_tag" json:"folder_tag,omitempty"`

	Template PageTemplate `gorm:"type:varchar(16);not null;default:'classic'" json:"template"`
	Theme    PageTheme    `gorm:"type:jsonb;not null" json:"theme"`
	Buttons  ButtonList   `gorm:"type:jsonb;not null" json:"buttons"`

	// Assigned on activation, unique system-wide once set
	Slug *string `gorm:"size:128;uniqueIndex:uk_link_pages_slug" json:"slug,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_link_pages_created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"index:idx_link_pages_updated_at" json:"updated_at,omitempty"`

	// Relations
	Customer      *Customer      `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	DomainRequest *DomainRequest `gorm:"foreignKey:LinkPageID;references:ID" json:"domain_request,omitempty"`
}

// TableName returns the table name for the model
func (LinkPage) TableName() string {
	return "link_pages"
}

// BeforeCreate is called before creating a new record
func (p *LinkPage) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.State == "" {
		p.State = LifecycleStateDraft
	}
	if p.Template == "" {
		p.Template = PageTemplateClassic
	}
	if p.Theme.BackgroundType == "" {
		p.Theme.BackgroundType = BackgroundTypeSolid
	}
	if p.Buttons == nil {
		p.Buttons = ButtonList{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *LinkPage) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

// IsDraft reports whether the page has not been paid for yet
func (p *LinkPage) IsDraft() bool {
	return p.State == LifecycleStateDraft
}

// CanTransitionTo checks if the page can transition to the given state.
// Promotion is one-directional: active pages are never demoted.
func (p *LinkPage) CanTransitionTo(newState LifecycleState) bool {
	switch p.State {
	case LifecycleStateDraft:
		return newState == LifecycleStateActive
	default:
		return false
	}
}

// HasEnabledRotator reports whether any button on the page carries an
// enabled rotator. Used by pricing to decide the surcharge.
func (p *LinkPage) HasEnabledRotator() bool {
	for i := range p.Buttons {
		if p.Buttons[i].HasEnabledRotator() {
			return true
		}
	}
	return false
}

// AddButton appends a new button with preset-derived defaults and
// returns its id. Always succeeds while the page exists.
func (p *LinkPage) AddButton(preset ButtonPreset) uuid.UUID {
	btn := ButtonLink{
		ID:         uuid.New(),
		SocialType: preset.SocialType,
		Title:      preset.Title,
		FillColor:  preset.FillColor,
		TextColor:  preset.TextColor,
		Opacity:    100,
		IsActive:   true,
	}
	p.Buttons = append(p.Buttons, btn)
	return btn.ID
}

// UpdateButton merges a partial update into the addressed button.
// An unknown id is a deliberate no-op matching the editor UX; the
// returned bool reports whether a button was touched.
func (p *LinkPage) UpdateButton(id uuid.UUID, patch ButtonPatch) bool {
	btn := p.findButton(id)
	if btn == nil {
		return false
	}

	if patch.Title != nil {
		btn.Title = *patch.Title
	}
	if patch.TargetURL != nil {
		btn.TargetURL = *patch.TargetURL
	}
	if patch.FillColor != nil {
		btn.FillColor = *patch.FillColor
	}
	if patch.TextColor != nil {
		btn.TextColor = *patch.TextColor
	}
	if patch.FontFamily != nil {
		btn.FontFamily = *patch.FontFamily
	}
	if patch.CornerRadius != nil {
		btn.CornerRadius = *patch.CornerRadius
	}
	if patch.Opacity != nil {
		btn.Opacity = *patch.Opacity
	}
	if patch.BorderWidth != nil {
		btn.BorderWidth = *patch.BorderWidth
	}
	if patch.IsActive != nil {
		btn.IsActive = *patch.IsActive
	}
	if patch.RotatorOn != nil {
		btn.Rotator.Enabled = *patch.RotatorOn
	}

	return true
}

// DeleteButton removes the addressed button. An unknown id is a no-op.
// The editor's "currently selected" pointer is owned by the caller and
// must be cleared there.
func (p *LinkPage) DeleteButton(id uuid.UUID) bool {
	for i := range p.Buttons {
		if p.Buttons[i].ID == id {
			p.Buttons = append(p.Buttons[:i], p.Buttons[i+1:]...)
			return true
		}
	}
	return false
}

// Reorder moves the button at from to position to. This is an
// extract-then-reinsert, not a swap: every element between the two
// positions shifts by one. Out-of-range indexes are rejected.
func (p *LinkPage) Reorder(from, to int) error {
	n := len(p.Buttons)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: from=%d to=%d len=%d", ErrReorderIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	moved := p.Buttons[from]
	p.Buttons = append(p.Buttons[:from], p.Buttons[from+1:]...)
	p.Buttons = append(p.Buttons[:to], append(ButtonList{moved}, p.Buttons[to:]...)...)
	return nil
}

// SetRotatorSlot writes one alternate-URL slot in place. URL syntax is
// not validated here. The slot index must be within 0..RotatorSlots-1.
func (p *LinkPage) SetRotatorSlot(buttonID uuid.UUID, slot int, url string) error {
	if slot < 0 || slot >= RotatorSlots {
		return fmt.Errorf("%w: slot=%d", ErrRotatorSlotOutOfRange, slot)
	}
	btn := p.findButton(buttonID)
	if btn == nil {
		return nil // permissive, mirrors UpdateButton
	}
	if btn.SocialType != SocialTypeMessenger {
		return ErrRotatorNotApplicable
	}
	btn.Rotator.AlternateURLs[slot] = url
	return nil
}

func (p *LinkPage) findButton(id uuid.UUID) *ButtonLink {
	for i := range p.Buttons {
		if p.Buttons[i].ID == id {
			return &p.Buttons[i]
		}
	}
	return nil
}

// PartitionByLifecycle splits pages into drafts and actives, preserving
// order. Pure projection, no side effect.
func PartitionByLifecycle(pages []*LinkPage) (drafts, actives []*LinkPage) {
	for _, p := range pages {
		if p.IsDraft() {
			drafts = append(drafts, p)
		} else {
			actives = append(actives, p)
		}
	}
	return drafts, actives
}

// LinkPageFilter represents filter criteria for link page queries
type LinkPageFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	CustomerID    *uint           `json:"customer_id,omitempty"`
	State         *LifecycleState `json:"state,omitempty"`
	FolderTag     *string         `json:"folder_tag,omitempty"`
	Slug          *string         `json:"slug,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}
