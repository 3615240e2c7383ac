package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// Request-scoped context keys for observability
const (
	RequestIDKey  = "X-Request-ID"
	UserAgentKey  = "User-Agent"
	IPAddressKey  = "IP-Address"
	EndpointKey   = "Endpoint"
	TimeoutKey    = "Timeout"
	CancelFuncKey = "Cancel-Func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Pricing constants (amounts in minor units, i.e. cents)
const (
	USDCurrency = "USD"

	// PageBasePriceCents is the base price to publish one link page ($60.00)
	PageBasePriceCents int64 = 6000

	// RotatorSurchargeCents is the surcharge for a page carrying an enabled
	// link rotator ($30.00)
	RotatorSurchargeCents int64 = 3000
)

// Domain candidate policy constants
const (
	// DomainTLD is the only top-level domain accepted for reservations
	DomainTLD = ".com"

	// DomainMinLength is the minimum length of a normalized candidate
	DomainMinLength = 5
)

// Draft cache constants
const (
	// DraftPageKeyPrefix is the redis key prefix for cached draft pages
	DraftPageKeyPrefix = "draft_page"

	// DraftPageTTL is how long an unpaid draft snapshot is retained
	DraftPageTTL = 90 * 24 * time.Hour
)

// RegistrarPriceScale converts registrar minor units to cents.
// The registrar reports prices at 1e6 scale (12000000 = $12.00).
const RegistrarPriceScale int64 = 10000
