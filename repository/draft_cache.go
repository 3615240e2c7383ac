package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
	"github.com/redis/go-redis/v9"
)

// RedisDraftCache is the local/offline tier: JSON snapshots of Draft
// pages not yet paid for, keyed per customer. Active pages never live
// here; on promotion the entry is deleted and the authoritative tier
// takes over.
type RedisDraftCache struct {
	rc *redis.Client
}

// NewRedisDraftCache creates a new redis-backed draft cache
func NewRedisDraftCache(rc *redis.Client) DraftCache {
	return &RedisDraftCache{rc: rc}
}

func draftKey(customerID uint, pageUUID uuid.UUID) string {
	return fmt.Sprintf("%s:%d:%s", utils.DraftPageKeyPrefix, customerID, pageUUID)
}

func draftPattern(customerID uint) string {
	return fmt.Sprintf("%s:%d:*", utils.DraftPageKeyPrefix, customerID)
}

// Put writes through one draft page snapshot
func (c *RedisDraftCache) Put(ctx context.Context, page *models.LinkPage) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal draft page: %w", err)
	}

	err = c.rc.Set(ctx, draftKey(page.CustomerID, page.UUID), payload, utils.DraftPageTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache draft page: %w", err)
	}

	return nil
}

// Get reads one draft page snapshot; nil when absent
func (c *RedisDraftCache) Get(ctx context.Context, customerID uint, pageUUID uuid.UUID) (*models.LinkPage, error) {
	payload, err := c.rc.Get(ctx, draftKey(customerID, pageUUID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read draft page: %w", err)
	}

	return decodeDraftPage(payload)
}

// List reads all draft snapshots of one customer
func (c *RedisDraftCache) List(ctx context.Context, customerID uint) ([]*models.LinkPage, error) {
	var pages []*models.LinkPage

	iter := c.rc.Scan(ctx, 0, draftPattern(customerID), 100).Iterator()
	for iter.Next(ctx) {
		payload, err := c.rc.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("failed to read draft page: %w", err)
		}

		page, err := decodeDraftPage(payload)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan draft pages: %w", err)
	}

	return pages, nil
}

// Delete removes one draft snapshot; absent keys are not an error
func (c *RedisDraftCache) Delete(ctx context.Context, customerID uint, pageUUID uuid.UUID) error {
	err := c.rc.Del(ctx, draftKey(customerID, pageUUID)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete draft page: %w", err)
	}
	return nil
}

// decodeDraftPage unmarshals a snapshot with additive migration: records
// written before gradients existed carry no background type and read
// back as solid.
func decodeDraftPage(payload []byte) (*models.LinkPage, error) {
	var page models.LinkPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft page: %w", err)
	}
	if page.Theme.BackgroundType == "" {
		page.Theme.BackgroundType = models.BackgroundTypeSolid
	}
	if page.Buttons == nil {
		page.Buttons = models.ButtonList{}
	}
	return &page, nil
}
