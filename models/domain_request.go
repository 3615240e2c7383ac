// Package models contains domain entities and business models for the link page platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DomainRequestStatus represents the status of a domain reservation request
type DomainRequestStatus string

const (
	DomainStatusNone    DomainRequestStatus = "none"
	DomainStatusPending DomainRequestStatus = "pending"
	DomainStatusActive  DomainRequestStatus = "active"
	DomainStatusFailed  DomainRequestStatus = "failed"
)

// String returns the string representation of the status
func (s DomainRequestStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s DomainRequestStatus) Valid() bool {
	switch s {
	case DomainStatusNone, DomainStatusPending, DomainStatusActive, DomainStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for DomainRequestStatus
func (s *DomainRequestStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = DomainRequestStatus(v)
	case []byte:
		*s = DomainRequestStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DomainRequestStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for DomainRequestStatus
func (s DomainRequestStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid DomainRequestStatus: %s", s)
	}
	return string(s), nil
}

// ReservationType distinguishes buying a fresh domain from attaching an
// already-owned one
type ReservationType string

const (
	ReservationTypeBuyNew     ReservationType = "buy_new"
	ReservationTypeConnectOwn ReservationType = "connect_own"
)

// Valid checks if the reservation type is valid
func (t ReservationType) Valid() bool {
	switch t {
	case ReservationTypeBuyNew, ReservationTypeConnectOwn:
		return true
	default:
		return false
	}
}

// DomainEvent is an actor action driving the reservation state machine
type DomainEvent string

const (
	DomainEventReserve    DomainEvent = "reserve"     // user, after an available search outcome
	DomainEventConnectOwn DomainEvent = "connect_own" // user, presumed-owned domain
	DomainEventActivate   DomainEvent = "activate"    // admin
	DomainEventReject     DomainEvent = "reject"      // admin
)

// ErrInvalidDomainTransition is returned by TransitionDomainStatus when
// the event is not permitted in the current status.
var ErrInvalidDomainTransition = errors.New("invalid domain request transition")

// TransitionDomainStatus is the pure transition function of the domain
// reservation state machine. Redundant admin actions (activate on active,
// reject on failed) are idempotent no-ops, not errors, because the admin
// UI allows repeated clicks under network latency.
func TransitionDomainStatus(current DomainRequestStatus, event DomainEvent) (DomainRequestStatus, error) {
	switch event {
	case DomainEventReserve, DomainEventConnectOwn:
		if current == DomainStatusNone || current == DomainStatusFailed {
			return DomainStatusPending, nil
		}
	case DomainEventActivate:
		if current == DomainStatusActive {
			return DomainStatusActive, nil
		}
		if current == DomainStatusPending || current == DomainStatusFailed {
			return DomainStatusActive, nil
		}
	case DomainEventReject:
		if current == DomainStatusFailed {
			return DomainStatusFailed, nil
		}
		if current == DomainStatusPending || current == DomainStatusActive {
			return DomainStatusFailed, nil
		}
	}
	return current, fmt.Errorf("%w: %s on %s", ErrInvalidDomainTransition, event, current)
}

// DNSProbe is the last-known result of an external DNS check. It is
// advisory display data cached for the admin, never a gate enforced by
// the state machine.
type DNSProbe struct {
	Configured bool       `json:"configured"`
	Message    string     `json:"message"`
	Addresses  []string   `json:"addresses,omitempty"`
	CheckedAt  *time.Time `json:"checked_at,omitempty"`
}

// Value implements the driver.Valuer interface for DNSProbe
func (p DNSProbe) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for DNSProbe
func (p *DNSProbe) Scan(value any) error {
	if value == nil {
		*p = DNSProbe{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DNSProbe", value)
	}

	return json.Unmarshal(bytes, p)
}

// DomainRequest represents the domain binding workflow attached to a
// link page (at most one per page)
type DomainRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_domain_requests_uuid" json:"uuid"`
	LinkPageID uint      `gorm:"not null;uniqueIndex:uk_domain_requests_link_page_id" json:"link_page_id"`

	RequestedDomain *string             `gorm:"size:255;index:idx_domain_requests_domain" json:"requested_domain,omitempty"`
	ReservationType ReservationType     `gorm:"type:varchar(16);not null;default:'buy_new'" json:"reservation_type"`
	Status          DomainRequestStatus `gorm:"type:varchar(16);not null;default:'none';index:idx_domain_requests_status" json:"status"`

	RequestedAt *time.Time `json:"requested_at,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`

	DNSProbe DNSProbe `gorm:"type:jsonb" json:"dns_probe"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	LinkPage *LinkPage `gorm:"foreignKey:LinkPageID;references:ID" json:"link_page,omitempty"`
}

// TableName returns the table name for the model
func (DomainRequest) TableName() string {
	return "domain_requests"
}

// BeforeCreate is called before creating a new record
func (r *DomainRequest) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = DomainStatusNone
	}
	if r.ReservationType == "" {
		r.ReservationType = ReservationTypeBuyNew
	}
	return nil
}

// CanTransitionTo checks if the request can move to the given status
func (r *DomainRequest) CanTransitionTo(newStatus DomainRequestStatus) bool {
	switch r.Status {
	case DomainStatusNone, DomainStatusFailed:
		return newStatus == DomainStatusPending
	case DomainStatusPending:
		return newStatus == DomainStatusActive || newStatus == DomainStatusFailed
	case DomainStatusActive:
		return newStatus == DomainStatusFailed
	default:
		return false
	}
}

// DomainRequestFilter represents filter criteria for domain request queries
type DomainRequestFilter struct {
	ID              *uint                `json:"id,omitempty"`
	UUID            *uuid.UUID           `json:"uuid,omitempty"`
	LinkPageID      *uint                `json:"link_page_id,omitempty"`
	Status          *DomainRequestStatus `json:"status,omitempty"`
	ReservationType *ReservationType     `json:"reservation_type,omitempty"`
	RequestedDomain *string              `json:"requested_domain,omitempty"`
	RequestedAfter  *time.Time           `json:"requested_after,omitempty"`
	RequestedBefore *time.Time           `json:"requested_before,omitempty"`
}
