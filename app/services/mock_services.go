package services

import (
	"context"
	"fmt"
)

// MockRegistrarService implements RegistrarService for testing
type MockRegistrarService struct {
	SearchResults map[string]*SearchResult
	SearchErr     error
	ReserveErr    error
	Reserved      []ReserveRequest
}

// NewMockRegistrarService creates a new mock registrar service
func NewMockRegistrarService() *MockRegistrarService {
	return &MockRegistrarService{
		SearchResults: make(map[string]*SearchResult),
		Reserved:      make([]ReserveRequest, 0),
	}
}

// Search returns the configured result for the query, defaulting to an
// available outcome with a reference price
func (m *MockRegistrarService) Search(ctx context.Context, query string) (*SearchResult, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if result, ok := m.SearchResults[query]; ok {
		return result, nil
	}
	return &SearchResult{
		Domain:     query,
		Outcome:    SearchOutcomeAvailable,
		PriceCents: 1200,
		Currency:   "USD",
	}, nil
}

// Reserve records the submission and returns the configured error
func (m *MockRegistrarService) Reserve(ctx context.Context, req ReserveRequest) error {
	if m.ReserveErr != nil {
		return m.ReserveErr
	}
	m.Reserved = append(m.Reserved, req)
	return nil
}

// MockDNSService implements DNSService for testing
type MockDNSService struct {
	Result *DNSProbeResult
	Err    error
}

// NewMockDNSService creates a new mock DNS service reporting a
// configured domain
func NewMockDNSService() *MockDNSService {
	return &MockDNSService{
		Result: &DNSProbeResult{
			Configured: true,
			Message:    "domain points at platform ingress",
			Addresses:  []string{"203.0.113.10"},
		},
	}
}

// Probe returns the configured probe result
func (m *MockDNSService) Probe(ctx context.Context, domain string) (*DNSProbeResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockPaymentService implements PaymentService for testing
type MockPaymentService struct {
	Submitted []SubmitPaymentRequest
	SubmitErr error
	// ForceResult overrides the default resolution when set
	ForceResult *SubmitPaymentResult
	tokenSeq    int
}

// NewMockPaymentService creates a new mock payment service
func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{
		Submitted: make([]SubmitPaymentRequest, 0),
	}
}

// Submit records the handoff. Stored-method requests settle
// synchronously; everything else gets a deterministic redirect token.
func (m *MockPaymentService) Submit(ctx context.Context, req SubmitPaymentRequest) (*SubmitPaymentResult, error) {
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	m.Submitted = append(m.Submitted, req)

	if m.ForceResult != nil {
		return m.ForceResult, nil
	}

	if req.StoredMethod {
		return &SubmitPaymentResult{
			Paid:      true,
			Reference: fmt.Sprintf("mock-ref-%s", req.InvoiceID),
		}, nil
	}

	m.tokenSeq++
	token := fmt.Sprintf("mock-token-%d", m.tokenSeq)
	return &SubmitPaymentResult{
		RedirectToken: token,
		RedirectURL:   "https://gateway.example.com/pay/" + token,
	}, nil
}

// LastToken returns the most recently issued redirect token
func (m *MockPaymentService) LastToken() string {
	return fmt.Sprintf("mock-token-%d", m.tokenSeq)
}
