// Package pricing implements the quote computation for publishing link
// pages. It is a pure engine: total over its input domain, no failure
// mode. Discount-code resolution happens one layer up, in the checkout
// flow, against the closed configured code list.
package pricing

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// DiscountCode is one entry of the closed, externally-sourced code list.
// Codes are matched case-insensitively and stored upper-case.
type DiscountCode struct {
	Code       string `json:"code"`
	PercentOff int    `json:"percent_off"` // 1-100
}

// NormalizeCode upper-cases and trims a submitted code string
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode matches a submitted string against the closed code list,
// case-insensitively. Unmatched returns nil; the caller surfaces the
// invalid-code state without involving the engine.
func ResolveCode(codes []DiscountCode, submitted string) *DiscountCode {
	normalized := NormalizeCode(submitted)
	if normalized == "" {
		return nil
	}
	for i := range codes {
		if NormalizeCode(codes[i].Code) == normalized {
			return &codes[i]
		}
	}
	return nil
}

// Selection is one priced item. A nil PageUUID means the item is not
// selected for purchase: it contributes nothing to the subtotal and is
// not counted.
type Selection struct {
	PageUUID     *uuid.UUID
	BasePrice    int64 // minor units
	HasSurcharge bool  // e.g. an enabled link rotator
	Surcharge    int64 // minor units, applied when HasSurcharge
}

// Quote is the computed subtotal/discount/total for a selection, prior
// to payment confirmation. All amounts are in minor units.
type Quote struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	Total          int64 `json:"total"`
	ItemCount      int   `json:"item_count"`
}

// ComputeQuote turns a selection and an optional discount into a quote.
//
// Invariants: Total = Subtotal - DiscountAmount, Total >= 0 (percentOff
// never exceeds 100), and with no discount Total == Subtotal.
func ComputeQuote(selections []Selection, discount *DiscountCode) Quote {
	var q Quote
	for _, sel := range selections {
		if sel.PageUUID == nil {
			continue
		}
		unit := sel.BasePrice
		if sel.HasSurcharge {
			unit += sel.Surcharge
		}
		q.Subtotal += unit
		q.ItemCount++
	}

	if discount != nil {
		q.DiscountAmount = int64(math.Round(float64(q.Subtotal) * float64(discount.PercentOff) / 100))
	}

	q.Total = q.Subtotal - q.DiscountAmount
	return q
}
