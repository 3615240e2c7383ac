// Package businessflow contains the core business logic and use cases for link page workflows
package businessflow

import (
	"errors"
	"fmt"

	"github.com/linkforge/linkforge/app/services"
	"github.com/linkforge/linkforge/models"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAccountInactive  = errors.New("account is inactive")

	// Page-related errors
	ErrPageNotFound            = errors.New("page not found")
	ErrPageAccessDenied        = errors.New("page access denied")
	ErrPageDisplayNameRequired = errors.New("page display name is required")
	ErrPageUUIDRequired        = errors.New("page UUID is required")
	ErrPageNotDraft            = errors.New("page is not a draft")
	ErrInvalidTemplate         = errors.New("invalid page template")
	ErrInvalidBackgroundType   = errors.New("invalid background type")

	// Button-related errors
	ErrButtonTitleRequired     = errors.New("button title is required")
	ErrButtonTargetURLRequired = errors.New("button target URL is required")
	ErrButtonIDRequired        = errors.New("button ID is required")
	ErrInvalidSocialType       = errors.New("invalid button social type")
	ErrReorderIndexesRequired  = errors.New("reorder positions are required")
	ErrRotatorURLRequired      = errors.New("rotator slot URL is required")

	// Checkout-related errors
	ErrSelectionRequired       = errors.New("at least one page must be selected")
	ErrSelectionNotDraft       = errors.New("selection contains a page that is not a present draft")
	ErrInvalidDiscountCode     = errors.New("discount code is not recognized")
	ErrCallbackTokenRequired   = errors.New("callback token is required")
	ErrCallbackStatusRequired  = errors.New("callback status is required")
	ErrPaymentRequestNotFound  = errors.New("payment request not found")
	ErrPaymentAlreadyProcessed = errors.New("payment request already processed")
	ErrPaymentRequestExpired   = errors.New("payment request expired")

	// Domain-related errors
	ErrDomainQueryRequired        = errors.New("domain query is required")
	ErrDomainWrongTLD             = errors.New("only .com domains are supported")
	ErrDomainContainsDigits       = errors.New("domain must not contain digits")
	ErrDomainTooShort             = errors.New("domain is too short")
	ErrDomainNotNormalizable      = errors.New("domain cannot be normalized")
	ErrDomainRequired             = errors.New("domain is required")
	ErrDomainRequestNotFound      = errors.New("domain request not found")
	ErrDomainAlreadyRequested     = errors.New("domain already requested by another page")
	ErrDomainRequestUUIDRequired  = errors.New("domain request UUID is required")
	ErrDomainProbeTargetRequired  = errors.New("domain request has no domain to probe")
	ErrDomainRequestNotActionable = errors.New("domain request is not in an actionable state")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsPageNotFound(err error) bool {
	return errors.Is(err, ErrPageNotFound)
}

func IsPageAccessDenied(err error) bool {
	return errors.Is(err, ErrPageAccessDenied)
}

func IsPageNotDraft(err error) bool {
	return errors.Is(err, ErrPageNotDraft)
}

func IsSelectionNotDraft(err error) bool {
	return errors.Is(err, ErrSelectionNotDraft)
}

func IsInvalidDiscountCode(err error) bool {
	return errors.Is(err, ErrInvalidDiscountCode)
}

func IsPaymentRequestNotFound(err error) bool {
	return errors.Is(err, ErrPaymentRequestNotFound)
}

func IsPaymentAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrPaymentAlreadyProcessed)
}

func IsDomainPolicyViolation(err error) bool {
	return errors.Is(err, ErrDomainWrongTLD) ||
		errors.Is(err, ErrDomainContainsDigits) ||
		errors.Is(err, ErrDomainTooShort) ||
		errors.Is(err, ErrDomainNotNormalizable)
}

func IsDomainRequestNotFound(err error) bool {
	return errors.Is(err, ErrDomainRequestNotFound)
}

func IsDomainAlreadyRequested(err error) bool {
	return errors.Is(err, ErrDomainAlreadyRequested)
}

func IsSelectionRequired(err error) bool {
	return errors.Is(err, ErrSelectionRequired)
}

func IsPaymentRequestExpired(err error) bool {
	return errors.Is(err, ErrPaymentRequestExpired)
}

func IsInvalidTemplate(err error) bool {
	return errors.Is(err, ErrInvalidTemplate)
}

func IsInvalidBackgroundType(err error) bool {
	return errors.Is(err, ErrInvalidBackgroundType)
}

func IsButtonTitleRequired(err error) bool {
	return errors.Is(err, ErrButtonTitleRequired)
}

func IsButtonTargetURLRequired(err error) bool {
	return errors.Is(err, ErrButtonTargetURLRequired)
}

func IsInvalidSocialType(err error) bool {
	return errors.Is(err, ErrInvalidSocialType)
}

func IsReorderIndexesRequired(err error) bool {
	return errors.Is(err, ErrReorderIndexesRequired)
}

func IsRotatorURLRequired(err error) bool {
	return errors.Is(err, ErrRotatorURLRequired)
}

func IsDomainQueryRequired(err error) bool {
	return errors.Is(err, ErrDomainQueryRequired)
}

func IsDomainRequired(err error) bool {
	return errors.Is(err, ErrDomainRequired)
}

func IsDomainRequestNotActionable(err error) bool {
	return errors.Is(err, ErrDomainRequestNotActionable)
}

func IsReorderOutOfRange(err error) bool {
	return errors.Is(err, models.ErrReorderIndexOutOfRange)
}

func IsRotatorSlotOutOfRange(err error) bool {
	return errors.Is(err, models.ErrRotatorSlotOutOfRange)
}

func IsRotatorNotApplicable(err error) bool {
	return errors.Is(err, models.ErrRotatorNotApplicable)
}

func IsInvalidDomainTransition(err error) bool {
	return errors.Is(err, models.ErrInvalidDomainTransition)
}

func IsRegistrarUnavailable(err error) bool {
	return errors.Is(err, services.ErrRegistrarUnavailable)
}

func IsReserveRejected(err error) bool {
	var rejected *services.ReserveRejectedError
	return errors.As(err, &rejected)
}

func IsDNSUnavailable(err error) bool {
	return errors.Is(err, services.ErrDNSUnavailable)
}

func IsPaymentGatewayUnavailable(err error) bool {
	return errors.Is(err, services.ErrPaymentGatewayUnavailable)
}
