package repository

import (
	"context"
	"errors"

	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
	"gorm.io/gorm"
)

// LinkPageRepositoryImpl implements the LinkPageRepository interface
type LinkPageRepositoryImpl struct {
	*BaseRepository[models.LinkPage, models.LinkPageFilter]
}

// NewLinkPageRepository creates a new link page repository
func NewLinkPageRepository(db *gorm.DB) LinkPageRepository {
	return &LinkPageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LinkPage, models.LinkPageFilter](db),
	}
}

// ByID retrieves a link page by ID
func (r *LinkPageRepositoryImpl) ByID(ctx context.Context, id uint) (*models.LinkPage, error) {
	db := r.getDB(ctx)

	var page models.LinkPage
	err := db.Preload("DomainRequest").Last(&page, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &page, nil
}

// ByUUID retrieves a link page by UUID
func (r *LinkPageRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.LinkPage, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.LinkPageFilter{UUID: &parsedUUID}
	pages, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return nil, nil
	}

	return pages[0], nil
}

// ByCustomerID retrieves link pages by customer ID with pagination
func (r *LinkPageRepositoryImpl) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.LinkPage, error) {
	filter := models.LinkPageFilter{CustomerID: &customerID}
	return r.ByFilter(ctx, filter, "created_at ASC", limit, offset)
}

// ByState retrieves a customer's pages in the given lifecycle state
func (r *LinkPageRepositoryImpl) ByState(ctx context.Context, customerID uint, state models.LifecycleState) ([]*models.LinkPage, error) {
	filter := models.LinkPageFilter{CustomerID: &customerID, State: &state}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// Update updates a link page
func (r *LinkPageRepositoryImpl) Update(ctx context.Context, page models.LinkPage) error {
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
	page.UpdatedAt = &now

	err = db.Save(&page).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a link page unconditionally. No soft-delete, no
// recovery; confirmation is the caller's responsibility.
func (r *LinkPageRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	// The domain request is owned by the page and goes with it
	err = db.Where("link_page_id = ?", id).Delete(&models.DomainRequest{}).Error
	if err != nil {
		return err
	}

	err = db.Delete(&models.LinkPage{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// SlugExists checks whether a slug is already taken system-wide
func (r *LinkPageRepositoryImpl) SlugExists(ctx context.Context, slug string) (bool, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.LinkPage{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ByFilter retrieves link pages based on filter criteria
func (r *LinkPageRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkPageFilter, orderBy string, limit, offset int) ([]*models.LinkPage, error) {
	db := r.getDB(ctx)

	var pages []*models.LinkPage
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

	query = query.Preload("DomainRequest")

	err := query.Find(&pages).Error
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// Count returns the number of link pages matching the filter
func (r *LinkPageRepositoryImpl) Count(ctx context.Context, filter models.LinkPageFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var page models.LinkPage
	query := r.applyFilter(db.Model(&page), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any link page matching the filter exists
func (r *LinkPageRepositoryImpl) Exists(ctx context.Context, filter models.LinkPageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *LinkPageRepositoryImpl) applyFilter(db *gorm.DB, filter models.LinkPageFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.State != nil {
		db = db.Where("state = ?", *filter.State)
	}
	if filter.FolderTag != nil {
		db = db.Where("folder_tag = ?", *filter.FolderTag)
	}
	if filter.Slug != nil {
		db = db.Where("slug = ?", *filter.Slug)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
