// Package models contains domain entities and business models for the link page platform
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerID   *uint           `gorm:"index:idx_audit_customer_id" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionPageCreated         = "page_created"
	AuditActionPageUpdated         = "page_updated"
	AuditActionPageDeleted         = "page_deleted"
	AuditActionPageCreationFailed  = "page_creation_failed"
	AuditActionButtonAdded         = "button_added"
	AuditActionButtonUpdated       = "button_updated"
	AuditActionButtonDeleted       = "button_deleted"
	AuditActionButtonsReordered    = "buttons_reordered"
	AuditActionCheckoutInitiated   = "checkout_initiated"
	AuditActionCheckoutFailed      = "checkout_failed"
	AuditActionPaymentConfirmed    = "payment_confirmed"
	AuditActionPagesPromoted       = "pages_promoted"
	AuditActionPromotionFailed     = "promotion_failed"
	AuditActionDomainReserved      = "domain_reserved"
	AuditActionDomainReserveFailed = "domain_reserve_failed"
	AuditActionDomainConnected     = "domain_connected"
	AuditActionDomainDNSTested     = "domain_dns_tested"
	AuditActionDomainActivated     = "domain_activated"
	AuditActionDomainRejected      = "domain_rejected"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CustomerID    *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
