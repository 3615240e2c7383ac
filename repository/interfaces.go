// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
}

// LinkPageRepository defines operations for the authoritative link page tier
type LinkPageRepository interface {
	Repository[models.LinkPage, models.LinkPageFilter]
	ByUUID(ctx context.Context, uuid string) (*models.LinkPage, error)
	ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.LinkPage, error)
	ByState(ctx context.Context, customerID uint, state models.LifecycleState) ([]*models.LinkPage, error)
	Update(ctx context.Context, page models.LinkPage) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// DomainRequestRepository defines operations for domain reservation requests
type DomainRequestRepository interface {
	Repository[models.DomainRequest, models.DomainRequestFilter]
	ByUUID(ctx context.Context, uuid string) (*models.DomainRequest, error)
	ByLinkPageID(ctx context.Context, linkPageID uint) (*models.DomainRequest, error)
	ByDomain(ctx context.Context, domain string) (*models.DomainRequest, error)
	Update(ctx context.Context, request models.DomainRequest) error
	ListByStatus(ctx context.Context, status models.DomainRequestStatus, limit, offset int) ([]*models.DomainRequest, error)
}

// PaymentRequestRepository defines operations for payment requests
type PaymentRequestRepository interface {
	Repository[models.PaymentRequest, models.PaymentRequestFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PaymentRequest, error)
	ByGatewayToken(ctx context.Context, token string) (*models.PaymentRequest, error)
	Update(ctx context.Context, request models.PaymentRequest) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}

// DraftCache is the local/offline tier holding draft page snapshots for
// pages not yet paid for. Every mutation is written through before the
// owning operation returns.
type DraftCache interface {
	Put(ctx context.Context, page *models.LinkPage) error
	Get(ctx context.Context, customerID uint, pageUUID uuid.UUID) (*models.LinkPage, error)
	List(ctx context.Context, customerID uint) ([]*models.LinkPage, error)
	Delete(ctx context.Context, customerID uint, pageUUID uuid.UUID) error
}
