// Package testing provides test utilities and database setup for testing the link page platform
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates an active test customer with a unique email
func (tf *TestFixtures) CreateTestCustomer() (*models.Customer, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// create random number containing exactly 9 digits
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	customer := &models.Customer{
		FirstName:              "John",
		LastName:               "Doe",
		Email:                  fmt.Sprintf("john.doe.%s@example.com", randomDigits),
		PasswordHash:           string(hashedPassword),
		IsActive:               utils.ToPtr(true),
		IsAdmin:                utils.ToPtr(false),
		HasStoredPaymentMethod: utils.ToPtr(false),
	}

	err = tf.DB.DB.Create(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestCustomerWithStoredPayment creates a customer whose checkout
// settles synchronously against a stored payment method
func (tf *TestFixtures) CreateTestCustomerWithStoredPayment() (*models.Customer, error) {
	customer, err := tf.CreateTestCustomer()
	if err != nil {
		return nil, err
	}

	customer.HasStoredPaymentMethod = utils.ToPtr(true)
	err = tf.DB.DB.Save(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update test customer: %w", err)
	}

	return customer, nil
}

// CreateTestAdmin creates an active admin customer
func (tf *TestFixtures) CreateTestAdmin() (*models.Customer, error) {
	customer, err := tf.CreateTestCustomer()
	if err != nil {
		return nil, err
	}

	customer.IsAdmin = utils.ToPtr(true)
	err = tf.DB.DB.Save(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update test customer: %w", err)
	}

	return customer, nil
}

// CreateTestDraftPage creates a draft link page with two buttons
func (tf *TestFixtures) CreateTestDraftPage(customerID uint) (*models.LinkPage, error) {
	page := &models.LinkPage{
		CustomerID:  customerID,
		State:       models.LifecycleStateDraft,
		DisplayName: fmt.Sprintf("Test Page %d", rand.Intn(10000000)),
		ProfileName: "Test Creator",
		Template:    models.PageTemplateClassic,
		Theme: models.PageTheme{
			BorderColor:    "#FFFFFF",
			OverlayOpacity: 20,
			BackgroundType: models.BackgroundTypeSolid,
			BackgroundFrom: "#1A1A2E",
		},
	}
	page.AddButton(models.DefaultButtonPresets[models.SocialTypeMessenger])
	page.AddButton(models.DefaultButtonPresets[models.SocialTypeCustom])

	err := tf.DB.DB.Create(page).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test draft page: %w", err)
	}

	return page, nil
}

// CreateTestDraftPageWithRotator creates a draft page whose messenger
// button carries an enabled rotator with one filled slot
func (tf *TestFixtures) CreateTestDraftPageWithRotator(customerID uint) (*models.LinkPage, error) {
	page := &models.LinkPage{
		CustomerID:  customerID,
		State:       models.LifecycleStateDraft,
		DisplayName: fmt.Sprintf("Rotator Page %d", rand.Intn(10000000)),
		ProfileName: "Test Creator",
	}
	buttonID := page.AddButton(models.DefaultButtonPresets[models.SocialTypeMessenger])
	page.UpdateButton(buttonID, models.ButtonPatch{RotatorOn: utils.ToPtr(true)})
	if err := page.SetRotatorSlot(buttonID, 0, "https://wa.me/15551230001"); err != nil {
		return nil, fmt.Errorf("failed to set rotator slot: %w", err)
	}

	err := tf.DB.DB.Create(page).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test rotator page: %w", err)
	}

	return page, nil
}

// CreateTestActivePage creates an already-promoted page with a slug
func (tf *TestFixtures) CreateTestActivePage(customerID uint) (*models.LinkPage, error) {
	slug := fmt.Sprintf("test-creator-%d", rand.Intn(10000000))
	page := &models.LinkPage{
		CustomerID:  customerID,
		State:       models.LifecycleStateActive,
		DisplayName: fmt.Sprintf("Active Page %d", rand.Intn(10000000)),
		ProfileName: "Test Creator",
		Slug:        &slug,
	}
	page.AddButton(models.DefaultButtonPresets[models.SocialTypeCustom])

	err := tf.DB.DB.Create(page).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test active page: %w", err)
	}

	return page, nil
}

// CreateTestDomainRequest creates a domain request for a page in the
// given status
func (tf *TestFixtures) CreateTestDomainRequest(linkPageID uint, status models.DomainRequestStatus) (*models.DomainRequest, error) {
	domain := fmt.Sprintf("test-domain-%d%s", rand.Intn(10000000), utils.DomainTLD)
	now := utils.UTCNow()

	request := &models.DomainRequest{
		LinkPageID:      linkPageID,
		RequestedDomain: &domain,
		ReservationType: models.ReservationTypeBuyNew,
		Status:          status,
	}
	if status != models.DomainStatusNone {
		request.RequestedAt = &now
	}
	if status == models.DomainStatusActive {
		request.ActivatedAt = &now
	}

	err := tf.DB.DB.Create(request).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test domain request: %w", err)
	}

	return request, nil
}

// CreateTestPaymentRequest creates a pending payment request covering
// the given selection
func (tf *TestFixtures) CreateTestPaymentRequest(customerID uint, selection []uuid.UUID, total int64) (*models.PaymentRequest, error) {
	expiresAt := utils.UTCNow().Add(30 * time.Minute)

	request := &models.PaymentRequest{
		CustomerID:     customerID,
		Selection:      models.SelectionUUIDs(selection),
		Subtotal:       total,
		DiscountAmount: 0,
		Total:          total,
		Currency:       "USD",
		GatewayToken:   fmt.Sprintf("test-token-%d", rand.Intn(10000000)),
		Status:         models.PaymentRequestStatusPending,
		ExpiresAt:      &expiresAt,
	}

	err := tf.DB.DB.Create(request).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test payment request: %w", err)
	}

	return request, nil
}

// CreateExpiredPaymentRequest creates a payment request whose expiry is
// already in the past
func (tf *TestFixtures) CreateExpiredPaymentRequest(customerID uint, selection []uuid.UUID) (*models.PaymentRequest, error) {
	request, err := tf.CreateTestPaymentRequest(customerID, selection, 900)
	if err != nil {
		return nil, err
	}

	expiredAt := utils.UTCNow().Add(-1 * time.Hour) // Expired 1 hour ago
	request.ExpiresAt = &expiredAt
	err = tf.DB.DB.Save(request).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expire test payment request: %w", err)
	}

	return request, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(customerID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		CustomerID:  customerID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateMultipleTestDraftPages creates several draft pages for one customer
func (tf *TestFixtures) CreateMultipleTestDraftPages(customerID uint, count int) ([]*models.LinkPage, error) {
	var pages []*models.LinkPage
	for i := 0; i < count; i++ {
		page, err := tf.CreateTestDraftPage(customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to create draft page %d: %w", i, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}
