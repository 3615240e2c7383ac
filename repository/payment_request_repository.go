package repository

import (
	"context"
	"errors"

	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// PaymentRequestRepositoryImpl implements the PaymentRequestRepository interface
type PaymentRequestRepositoryImpl struct {
	*BaseRepository[models.PaymentRequest, models.PaymentRequestFilter]
}

// NewPaymentRequestRepository creates a new payment request repository
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &PaymentRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PaymentRequest, models.PaymentRequestFilter](db),
	}
}

// ByUUID retrieves a payment request by UUID
func (r *PaymentRequestRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PaymentRequest, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PaymentRequestFilter{UUID: &parsedUUID}
	requests, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(requests) == 0 {
		return nil, nil
	}

	return requests[0], nil
}

// ByGatewayToken retrieves a payment request by its gateway token
func (r *PaymentRequestRepositoryImpl) ByGatewayToken(ctx context.Context, token string) (*models.PaymentRequest, error) {
	db := r.getDB(ctx)

	var request models.PaymentRequest
	err := db.Where("gateway_token = ?", token).Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &request, nil
}

// Update updates a payment request
func (r *PaymentRequestRepositoryImpl) Update(ctx context.Context, request models.PaymentRequest) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	request.UpdatedAt = utils.UTCNow()

	err = db.Save(&request).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves payment requests based on filter criteria
func (r *PaymentRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.PaymentRequestFilter, orderBy string, limit, offset int) ([]*models.PaymentRequest, error) {
	db := r.getDB(ctx)

	var requests []*models.PaymentRequest
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&requests).Error
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Count returns the number of payment requests matching the filter
func (r *PaymentRequestRepositoryImpl) Count(ctx context.Context, filter models.PaymentRequestFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var request models.PaymentRequest
	query := r.applyFilter(db.Model(&request), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any payment request matching the filter exists
func (r *PaymentRequestRepositoryImpl) Exists(ctx context.Context, filter models.PaymentRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PaymentRequestRepositoryImpl) applyFilter(db *gorm.DB, filter models.PaymentRequestFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
