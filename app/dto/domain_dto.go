package dto

// SearchDomainRequest represents an availability search for a domain candidate
type SearchDomainRequest struct {
	CustomerID uint    `json:"-"`
	Query      *string `json:"query,omitempty"`
}

// SearchDomainResponse echoes the normalized candidate and its classified
// outcome. PriceDisplay is the formatted reference price, e.g. "$12.00".
type SearchDomainResponse struct {
	Message      string `json:"message"`
	Domain       string `json:"domain"`
	Outcome      string `json:"outcome"`
	PriceCents   int64  `json:"price_cents,omitempty"`
	PriceDisplay string `json:"price_display,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// ReserveDomainRequest represents a reservation submission for a page
type ReserveDomainRequest struct {
	CustomerID uint    `json:"-"`
	PageUUID   *string `json:"page_uuid,omitempty"`
	Domain     *string `json:"domain,omitempty"`
}

// ReserveDomainResponse represents the response to a reservation submission
type ReserveDomainResponse struct {
	Message     string `json:"message"`
	RequestUUID string `json:"request_uuid"`
	Domain      string `json:"domain"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
}

// ConnectDomainRequest represents connecting a customer-owned domain
type ConnectDomainRequest struct {
	CustomerID uint    `json:"-"`
	PageUUID   *string `json:"page_uuid,omitempty"`
	Domain     *string `json:"domain,omitempty"`
}

// ConnectDomainResponse represents the response to a connect submission
type ConnectDomainResponse struct {
	Message     string `json:"message"`
	RequestUUID string `json:"request_uuid"`
	Domain      string `json:"domain"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
}

// DNSProbeDTO is the cached advisory DNS check result
type DNSProbeDTO struct {
	Configured bool     `json:"configured"`
	Message    string   `json:"message,omitempty"`
	Addresses  []string `json:"addresses,omitempty"`
	CheckedAt  *string  `json:"checked_at,omitempty"`
}

// DomainRequestDTO is the admin view of one domain reservation request
type DomainRequestDTO struct {
	UUID            string       `json:"uuid"`
	PageUUID        string       `json:"page_uuid"`
	CustomerID      uint         `json:"customer_id"`
	Domain          *string      `json:"domain,omitempty"`
	ReservationType string       `json:"reservation_type"`
	Status          string       `json:"status"`
	RequestedAt     *string      `json:"requested_at,omitempty"`
	ActivatedAt     *string      `json:"activated_at,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	DNSProbe        *DNSProbeDTO `json:"dns_probe,omitempty"`
	CreatedAt       string       `json:"created_at"`
}

// ListDomainRequestsRequest represents the admin listing request
type ListDomainRequestsRequest struct {
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// ListDomainRequestsResponse represents a paginated admin listing
type ListDomainRequestsResponse struct {
	Message    string             `json:"message"`
	Items      []DomainRequestDTO `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// TestDNSRequest represents an admin-triggered DNS probe
type TestDNSRequest struct {
	UUID string `json:"-"`
}

// TestDNSResponse represents the advisory probe outcome
type TestDNSResponse struct {
	Message    string   `json:"message"`
	Configured bool     `json:"configured"`
	Detail     string   `json:"detail,omitempty"`
	Addresses  []string `json:"addresses,omitempty"`
}

// ActivateDomainRequest represents an admin activation
type ActivateDomainRequest struct {
	UUID string `json:"-"`
}

// ActivateDomainResponse represents the response to an activation
type ActivateDomainResponse struct {
	Message     string  `json:"message"`
	Status      string  `json:"status"`
	ActivatedAt *string `json:"activated_at,omitempty"`
}

// RejectDomainRequest represents an admin rejection with optional notes
type RejectDomainRequest struct {
	UUID  string  `json:"-"`
	Notes *string `json:"notes,omitempty"`
}

// RejectDomainResponse represents the response to a rejection
type RejectDomainResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
