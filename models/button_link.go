// Package models contains domain entities and business models for the link page platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SocialType represents the kind of destination a button links to
type SocialType string

const (
	SocialTypeMessenger SocialType = "messenger"
	SocialTypePhoto     SocialType = "photo"
	SocialTypeVideo     SocialType = "video"
	SocialTypeCustom    SocialType = "custom"
)

// String returns the string representation of the social type
func (s SocialType) String() string {
	return string(s)
}

// Valid checks if the social type is valid
func (s SocialType) Valid() bool {
	switch s {
	case SocialTypeMessenger, SocialTypePhoto, SocialTypeVideo, SocialTypeCustom:
		return true
	default:
		return false
	}
}

// RotatorSlots is the fixed number of alternate URL slots on a rotator.
// Enabling or disabling the rotator never resizes the slot array.
const RotatorSlots = 5

// Rotator cycles a messenger button through up to five alternate
// destination URLs. An empty string marks an unset slot.
type Rotator struct {
	Enabled       bool                 `json:"enabled"`
	AlternateURLs [RotatorSlots]string `json:"alternate_urls"`
}

// ButtonLink represents one actionable button on a link page
type ButtonLink struct {
	ID         uuid.UUID  `json:"id"`
	SocialType SocialType `json:"social_type"`
	Title      string     `json:"title"`
	TargetURL  string     `json:"target_url"`

	// Style attributes
	FillColor    string `json:"fill_color"`
	TextColor    string `json:"text_color"`
	FontFamily   string `json:"font_family"`
	CornerRadius int    `json:"corner_radius"`
	Opacity      int    `json:"opacity"` // 0-100
	BorderWidth  int    `json:"border_width"`

	// Visibility flag, independent of the page lifecycle
	IsActive bool `json:"is_active"`

	// Only meaningful for messenger buttons
	Rotator Rotator `json:"rotator"`
}

// HasEnabledRotator reports whether this button carries an enabled rotator
func (b *ButtonLink) HasEnabledRotator() bool {
	return b.SocialType == SocialTypeMessenger && b.Rotator.Enabled
}

// ButtonPreset carries the type-derived defaults applied when a new
// button is appended to a page.
type ButtonPreset struct {
	SocialType SocialType
	Title      string
	FillColor  string
	TextColor  string
}

// DefaultButtonPresets maps each social type to its editor defaults
var DefaultButtonPresets = map[SocialType]ButtonPreset{
	SocialTypeMessenger: {SocialType: SocialTypeMessenger, Title: "Message me", FillColor: "#25D366", TextColor: "#FFFFFF"},
	SocialTypePhoto:     {SocialType: SocialTypePhoto, Title: "My photos", FillColor: "#E1306C", TextColor: "#FFFFFF"},
	SocialTypeVideo:     {SocialType: SocialTypeVideo, Title: "My videos", FillColor: "#FF0000", TextColor: "#FFFFFF"},
	SocialTypeCustom:    {SocialType: SocialTypeCustom, Title: "My link", FillColor: "#000000", TextColor: "#FFFFFF"},
}

// ButtonPatch is a partial update merged into an existing button.
// Nil fields are left untouched.
type ButtonPatch struct {
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

// ButtonList is the ordered button collection owned by a link page,
// stored as a JSONB column. Order is the render order shown to visitors.
type ButtonList []ButtonLink

// Value implements the driver.Valuer interface for ButtonList
func (l ButtonList) Value() (driver.Value, error) {
	if l == nil {
		l = ButtonList{}
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for ButtonList
func (l *ButtonList) Scan(value any) error {
	if value == nil {
		*l = ButtonList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ButtonList", value)
	}

	return json.Unmarshal(bytes, l)
}
