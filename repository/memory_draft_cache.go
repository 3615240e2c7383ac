package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
)

// MemoryDraftCache is an in-process DraftCache used by tests and by
// deployments running without redis. Snapshots go through the same JSON
// encoding as the redis tier so both read back identically.
type MemoryDraftCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryDraftCache creates a new in-memory draft cache
func NewMemoryDraftCache() *MemoryDraftCache {
	return &MemoryDraftCache{
		entries: make(map[string][]byte),
	}
}

// Put writes through one draft page snapshot
func (c *MemoryDraftCache) Put(ctx context.Context, page *models.LinkPage) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal draft page: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[draftKey(page.CustomerID, page.UUID)] = payload
	return nil
}

// Get reads one draft page snapshot; nil when absent
func (c *MemoryDraftCache) Get(ctx context.Context, customerID uint, pageUUID uuid.UUID) (*models.LinkPage, error) {
	c.mu.RLock()
	payload, ok := c.entries[draftKey(customerID, pageUUID)]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeDraftPage(payload)
}

// List reads all draft snapshots of one customer
func (c *MemoryDraftCache) List(ctx context.Context, customerID uint) ([]*models.LinkPage, error) {
	prefix := fmt.Sprintf("%s:%d:", utils.DraftPageKeyPrefix, customerID)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var pages []*models.LinkPage
	for key, payload := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		page, err := decodeDraftPage(payload)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Delete removes one draft snapshot; absent keys are not an error
func (c *MemoryDraftCache) Delete(ctx context.Context, customerID uint, pageUUID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, draftKey(customerID, pageUUID))
	return nil
}
