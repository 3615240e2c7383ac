package dto

// QuoteItemDTO is the priced breakdown of one selected page
type QuoteItemDTO struct {
	PageUUID   string `json:"page_uuid"`
	BasePrice  int64  `json:"base_price"`
	Surcharge  int64  `json:"surcharge"`
	HasRotator bool   `json:"has_rotator"`
}

// GetQuoteRequest represents the request to price a selection of draft pages
type GetQuoteRequest struct {
	CustomerID   uint     `json:"-"`
	PageUUIDs    []string `json:"page_uuids,omitempty"`
	DiscountCode *string  `json:"discount_code,omitempty"`
}

// GetQuoteResponse represents the computed quote. All amounts are in
// minor units (cents).
type GetQuoteResponse struct {
	Message        string         `json:"message"`
	Items          []QuoteItemDTO `json:"items"`
	ItemCount      int            `json:"item_count"`
	Subtotal       int64          `json:"subtotal"`
	DiscountAmount int64          `json:"discount_amount"`
	Total          int64          `json:"total"`
	Currency       string         `json:"currency"`
	DiscountCode   *string        `json:"discount_code,omitempty"`
}

// CheckoutRequest represents the request to start payment for a selection
type CheckoutRequest struct {
	CustomerID   uint     `json:"-"`
	PageUUIDs    []string `json:"page_uuids,omitempty"`
	DiscountCode *string  `json:"discount_code,omitempty"`
}

// CheckoutResponse represents the payment handoff. Paid means the
// customer's stored payment method settled synchronously; otherwise the
// redirect token and URL continue the external payment flow.
type CheckoutResponse struct {
	Message       string `json:"message"`
	PaymentUUID   string `json:"payment_uuid"`
	Paid          bool   `json:"paid"`
	RedirectToken string `json:"redirect_token,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
}

// PaymentCallbackRequest represents the gateway's settlement notification
type PaymentCallbackRequest struct {
	Token     *string `json:"token,omitempty"`
	Status    *string `json:"status,omitempty"`
	Reference *string `json:"reference,omitempty"`
}

// PaymentCallbackResponse represents the outcome of processing a callback
type PaymentCallbackResponse struct {
	Message       string   `json:"message"`
	PaymentStatus string   `json:"payment_status"`
	PromotedPages []string `json:"promoted_pages,omitempty"`
}
