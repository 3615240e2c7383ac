package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// PaymentRequestStatus represents the status of a payment request
type PaymentRequestStatus string

const (
	PaymentRequestStatusCreated   PaymentRequestStatus = "created"   // Quote accepted, waiting for gateway handoff
	PaymentRequestStatusPending   PaymentRequestStatus = "pending"   // User redirected to the gateway, payment in progress
	PaymentRequestStatusCompleted PaymentRequestStatus = "completed" // Paid; the quoted drafts were promoted
	PaymentRequestStatusFailed    PaymentRequestStatus = "failed"    // Gateway reported not paid
	PaymentRequestStatusExpired   PaymentRequestStatus = "expired"   // Payment request expired before confirmation
)

// SelectionUUIDs is the set of draft page UUIDs a payment request covers,
// stored as JSONB. Promotion must cover exactly this set.
type SelectionUUIDs []uuid.UUID

// Value implements the driver.Valuer interface for SelectionUUIDs
func (s SelectionUUIDs) Value() (driver.Value, error) {
	if s == nil {
		s = SelectionUUIDs{}
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for SelectionUUIDs
func (s *SelectionUUIDs) Scan(value any) error {
	if value == nil {
		*s = SelectionUUIDs{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SelectionUUIDs", value)
	}

	return json.Unmarshal(bytes, s)
}

// PaymentRequest represents a checkout handed to the payment gateway
type PaymentRequest struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`

	CustomerID uint `gorm:"not null;index" json:"customer_id"`

	// The quoted selection and amounts, frozen at checkout time
	Selection      SelectionUUIDs `gorm:"type:jsonb;not null" json:"selection"`
	Subtotal       int64          `gorm:"not null" json:"subtotal"` // minor units
	DiscountAmount int64          `gorm:"not null" json:"discount_amount"`
	Total          int64          `gorm:"not null" json:"total"`
	Currency       string         `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	DiscountCode   *string        `gorm:"size:64" json:"discount_code,omitempty"`

	// Gateway response data
	GatewayToken     string `gorm:"type:varchar(255);index" json:"gateway_token"`
	GatewayReference string `gorm:"type:varchar(255);index" json:"gateway_reference"`

	Status       PaymentRequestStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	StatusReason string               `gorm:"type:text" json:"status_reason"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`

	// Relations
	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// BeforeCreate ensures the UUID is set
func (pr *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if pr.UUID == uuid.Nil {
		pr.UUID = uuid.New()
	}
	return nil
}

// IsFinal returns true if the payment request is in a final state
func (pr *PaymentRequest) IsFinal() bool {
	return pr.Status == PaymentRequestStatusCompleted ||
		pr.Status == PaymentRequestStatusFailed ||
		pr.Status == PaymentRequestStatusExpired
}

// IsExpired returns true if the payment request has expired
func (pr *PaymentRequest) IsExpired() bool {
	if pr.ExpiresAt == nil {
		return false
	}
	return utils.UTCNow().After(*pr.ExpiresAt)
}

// CanBeProcessed returns true if a gateway callback may still settle
// this request
func (pr *PaymentRequest) CanBeProcessed() bool {
	return !pr.IsFinal() && !pr.IsExpired()
}

// PaymentRequestFilter represents filter criteria for payment request queries
type PaymentRequestFilter struct {
	ID            *uint                 `json:"id,omitempty"`
	UUID          *uuid.UUID            `json:"uuid,omitempty"`
	CustomerID    *uint                 `json:"customer_id,omitempty"`
	Status        *PaymentRequestStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time            `json:"created_after,omitempty"`
	CreatedBefore *time.Time            `json:"created_before,omitempty"`
}
