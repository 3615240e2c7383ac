// Package services provides external service integrations and technical concerns like registrar, DNS, payments and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linkforge/linkforge/config"
)

// Registrar error constants
var (
	// ErrRegistrarUnavailable marks a transport failure: the caller must
	// leave local state untouched and offer manual retry.
	ErrRegistrarUnavailable = errors.New("registrar service unavailable")
)

// ReserveRejectedError is a server-reported conflict (e.g. the domain was
// reserved between search and reserve). The message is surfaced verbatim.
type ReserveRejectedError struct {
	Message string
}

func (e *ReserveRejectedError) Error() string {
	return e.Message
}

// SearchOutcome classifies an availability search result
type SearchOutcome string

const (
	SearchOutcomeAvailable       SearchOutcome = "available"
	SearchOutcomeTaken           SearchOutcome = "taken"             // registered on the public internet
	SearchOutcomeReservedByOther SearchOutcome = "reserved_by_other" // held by another user of this platform
)

// SearchResult is the classified outcome of one availability search
type SearchResult struct {
	Domain     string
	Outcome    SearchOutcome
	PriceCents int64 // reference price in cents, 0 when unknown
	Currency   string
}

// ReserveRequest is a reservation submission for a link page
type ReserveRequest struct {
	LinkID          string `json:"link_id"`
	Domain          string `json:"domain"`
	ReservationType string `json:"reservation_type"`
}

// RegistrarService is the external availability-search and reservation collaborator
type RegistrarService interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Reserve(ctx context.Context, req ReserveRequest) error
}

// RegistrarClient implements RegistrarService over HTTP
type RegistrarClient struct {
	config *config.RegistrarConfig
	client *http.Client
}

// NewRegistrarClient creates a new registrar client instance
func NewRegistrarClient(cfg *config.RegistrarConfig) RegistrarService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RegistrarClient{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type registrarSearchRequest struct {
	Query string `json:"query"`
}

type registrarSearchEntry struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reserved  bool   `json:"reserved"`
	Price     *int64 `json:"price,omitempty"` // registrar minor units
	Currency  string `json:"currency,omitempty"`
}

type registrarSearchResponse struct {
	Success bool                   `json:"success"`
	Result  []registrarSearchEntry `json:"result"`
}

// Search queries domain availability. Any transport failure or
// unexpected response shape maps to ErrRegistrarUnavailable; an empty or
// unsuccessful response is treated as taken.
func (c *RegistrarClient) Search(ctx context.Context, query string) (*SearchResult, error) {
	payload, err := json.Marshal(registrarSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/domains/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRegistrarUnavailable, resp.StatusCode)
	}

	var out registrarSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
	}

	// Unsuccessful or empty result means the name is not available to us
	if !out.Success || len(out.Result) == 0 {
		return &SearchResult{Domain: query, Outcome: SearchOutcomeTaken}, nil
	}

	entry := out.Result[0]
	result := &SearchResult{Domain: entry.Name, Currency: entry.Currency}
	switch {
	case entry.Reserved:
		result.Outcome = SearchOutcomeReservedByOther
	case entry.Available:
		result.Outcome = SearchOutcomeAvailable
		if entry.Price != nil {
			result.PriceCents = *entry.Price / c.config.PriceScale
		}
	default:
		result.Outcome = SearchOutcomeTaken
	}

	return result, nil
}

type registrarErrorResponse struct {
	Error string `json:"error"`
}

// Reserve submits a reservation. A non-2xx response with an error body is
// a server-reported conflict returned as *ReserveRejectedError; transport
// failures map to ErrRegistrarUnavailable.
func (c *RegistrarClient) Reserve(ctx context.Context, reserveReq ReserveRequest) error {
	payload, err := json.Marshal(reserveReq)
	if err != nil {
		return fmt.Errorf("failed to marshal reserve request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/domains/reserve"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create reserve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var out registrarErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Error == "" {
		return fmt.Errorf("%w: status %d", ErrRegistrarUnavailable, resp.StatusCode)
	}

	return &ReserveRejectedError{Message: out.Error}
}
