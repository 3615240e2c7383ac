// Package models contains domain entities and business models for the link page platform
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`

	FirstName string `gorm:"size:255;not null" json:"first_name"`
	LastName  string `gorm:"size:255;not null" json:"last_name"`

	Email        string `gorm:"size:255;not null;uniqueIndex:idx_customers_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// A stored payment method allows synchronous checkout without a gateway redirect
	HasStoredPaymentMethod *bool `gorm:"default:false" json:"has_stored_payment_method"`

	IsActive *bool `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`
	IsAdmin  *bool `gorm:"default:false" json:"is_admin"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_customers_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	LinkPages []LinkPage `gorm:"foreignKey:CustomerID" json:"link_pages,omitempty"`
	AuditLogs []AuditLog `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate is called before creating a new record
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	IsActive      *bool
	IsAdmin       *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
