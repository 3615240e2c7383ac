package repository

import (
	"context"
	"errors"

	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// DomainRequestRepositoryImpl implements the DomainRequestRepository interface
type DomainRequestRepositoryImpl struct {
	*BaseRepository[models.DomainRequest, models.DomainRequestFilter]
}

// NewDomainRequestRepository creates a new domain request repository
func NewDomainRequestRepository(db *gorm.DB) DomainRequestRepository {
	return &DomainRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DomainRequest, models.DomainRequestFilter](db),
	}
}

// ByUUID retrieves a domain request by UUID
func (r *DomainRequestRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.DomainRequest, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.DomainRequestFilter{UUID: &parsedUUID}
	requests, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(requests) == 0 {
		return nil, nil
	}

	return requests[0], nil
}

// ByLinkPageID retrieves the domain request attached to a page (at most one)
func (r *DomainRequestRepositoryImpl) ByLinkPageID(ctx context.Context, linkPageID uint) (*models.DomainRequest, error) {
	db := r.getDB(ctx)

	var request models.DomainRequest
	err := db.Where("link_page_id = ?", linkPageID).Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &request, nil
}

// ByDomain retrieves the request holding the given domain, if any
func (r *DomainRequestRepositoryImpl) ByDomain(ctx context.Context, domain string) (*models.DomainRequest, error) {
	filter := models.DomainRequestFilter{RequestedDomain: &domain}
	requests, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(requests) == 0 {
		return nil, nil
	}

	return requests[0], nil
}

// Update updates a domain request
func (r *DomainRequestRepositoryImpl) Update(ctx context.Context, request models.DomainRequest) error {
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

	now := utils.UTCNow()
	request.UpdatedAt = &now

	err = db.Save(&request).Error
	if err != nil {
		return err
	}

	return nil
}

// ListByStatus retrieves domain requests in the given status with pagination
func (r *DomainRequestRepositoryImpl) ListByStatus(ctx context.Context, status models.DomainRequestStatus, limit, offset int) ([]*models.DomainRequest, error) {
	filter := models.DomainRequestFilter{Status: &status}
	return r.ByFilter(ctx, filter, "requested_at DESC", limit, offset)
}

// ByFilter retrieves domain requests based on filter criteria
func (r *DomainRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.DomainRequestFilter, orderBy string, limit, offset int) ([]*models.DomainRequest, error) {
	db := r.getDB(ctx)

	var requests []*models.DomainRequest
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

	query = query.Preload("LinkPage")

	err := query.Find(&requests).Error
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Count returns the number of domain requests matching the filter
func (r *DomainRequestRepositoryImpl) Count(ctx context.Context, filter models.DomainRequestFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var request models.DomainRequest
	query := r.applyFilter(db.Model(&request), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any domain request matching the filter exists
func (r *DomainRequestRepositoryImpl) Exists(ctx context.Context, filter models.DomainRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *DomainRequestRepositoryImpl) applyFilter(db *gorm.DB, filter models.DomainRequestFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.LinkPageID != nil {
		db = db.Where("link_page_id = ?", *filter.LinkPageID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ReservationType != nil {
		db = db.Where("reservation_type = ?", *filter.ReservationType)
	}
	if filter.RequestedDomain != nil {
		db = db.Where("requested_domain = ?", *filter.RequestedDomain)
	}
	if filter.RequestedAfter != nil {
		db = db.Where("requested_at >= ?", *filter.RequestedAfter)
	}
	if filter.RequestedBefore != nil {
		db = db.Where("requested_at <= ?", *filter.RequestedBefore)
	}
	return db
}
