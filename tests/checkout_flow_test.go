package tests

import (
	"context"
	"testing"
	"time"

	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/app/services"
	businessflow "github.com/linkforge/linkforge/business_flow"
	"github.com/linkforge/linkforge/config"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	testingutil "github.com/linkforge/linkforge/testing"
	"github.com/linkforge/linkforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		BasePriceCents:        6000,
		RotatorSurchargeCents: 3000,
		Currency:              "USD",
		DiscountCodes: []config.DiscountCodeConfig{
			{Code: "LAUNCH20", PercentOff: 20},
			{Code: "HALFOFF", PercentOff: 50},
		},
	}
}

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		BaseURL:     "https://gateway.example.com",
		APIKey:      "test-key",
		Timeout:     5 * time.Second,
		CallbackURL: "https://app.example.com/checkout/callback",
	}
}

type checkoutEnv struct {
	flow        businessflow.CheckoutFlow
	paymentSvc  *services.MockPaymentService
	pageRepo    repository.LinkPageRepository
	paymentRepo repository.PaymentRequestRepository
	auditRepo   repository.AuditLogRepository
	draftCache  repository.DraftCache
}

func newCheckoutEnv(testDB *testingutil.TestDB) *checkoutEnv {
	linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
	customerRepo := repository.NewCustomerRepository(testDB.DB)
	paymentRepo := repository.NewPaymentRequestRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	draftCache := repository.NewMemoryDraftCache()
	paymentSvc := services.NewMockPaymentService()

	flow := businessflow.NewCheckoutFlow(
		linkPageRepo,
		customerRepo,
		paymentRepo,
		auditRepo,
		draftCache,
		paymentSvc,
		testPricingConfig(),
		testPaymentConfig(),
		testDB.DB,
	)

	return &checkoutEnv{
		flow:        flow,
		paymentSvc:  paymentSvc,
		pageRepo:    linkPageRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		draftCache:  draftCache,
	}
}

func TestGetQuote(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newCheckoutEnv(testDB)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)
		plain, err := fixtures.CreateTestDraftPage(customer.ID)
		require.NoError(t, err)
		withRotator, err := fixtures.CreateTestDraftPageWithRotator(customer.ID)
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("RotatorSurchargeAndDiscount", func(t *testing.T) {
			result, err := env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID:   customer.ID,
				PageUUIDs:    []string{plain.UUID.String(), withRotator.UUID.String()},
				DiscountCode: utils.ToPtr("launch20"), // matched case-insensitively
			}, metadata)
			require.NoError(t, err)

			// 6000 + (6000+3000) = 15000, minus 20% = 12000
			assert.Equal(t, 2, result.ItemCount)
			assert.Equal(t, int64(15000), result.Subtotal)
			assert.Equal(t, int64(3000), result.DiscountAmount)
			assert.Equal(t, int64(12000), result.Total)
			assert.Equal(t, "USD", result.Currency)
			require.NotNil(t, result.DiscountCode)
			assert.Equal(t, "LAUNCH20", *result.DiscountCode)

			require.Len(t, result.Items, 2)
			assert.False(t, result.Items[0].HasRotator)
			assert.Zero(t, result.Items[0].Surcharge)
			assert.True(t, result.Items[1].HasRotator)
			assert.Equal(t, int64(3000), result.Items[1].Surcharge)
		})

		t.Run("NoDiscountTotalEqualsSubtotal", func(t *testing.T) {
			result, err := env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{plain.UUID.String()},
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, result.Subtotal, result.Total)
			assert.Zero(t, result.DiscountAmount)
		})

		t.Run("DuplicateSelectionCountedOnce", func(t *testing.T) {
			result, err := env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{plain.UUID.String(), plain.UUID.String()},
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, result.ItemCount)
			assert.Equal(t, int64(6000), result.Subtotal)
		})

		t.Run("EmptySelectionRejected", func(t *testing.T) {
			_, err := env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID: customer.ID,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSelectionRequired(err))
		})

		t.Run("UnknownDiscountCodeRejected", func(t *testing.T) {
			_, err := env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID:   customer.ID,
				PageUUIDs:    []string{plain.UUID.String()},
				DiscountCode: utils.ToPtr("NOSUCHCODE"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidDiscountCode(err))
		})

		t.Run("ActivePageNotQuotable", func(t *testing.T) {
			active, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			_, err = env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{active.UUID.String()},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSelectionNotDraft(err))
		})

		t.Run("ForeignPageNotQuotable", func(t *testing.T) {
			other, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)
			foreign, err := fixtures.CreateTestDraftPage(other.ID)
			require.NoError(t, err)

			_, err = env.flow.GetQuote(context.Background(), &dto.GetQuoteRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{foreign.UUID.String()},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSelectionNotDraft(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckoutAndCallback(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newCheckoutEnv(testDB)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("PaidCallbackPromotesSelection", func(t *testing.T) {
			first, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)
			second, err := fixtures.CreateTestDraftPageWithRotator(customer.ID)
			require.NoError(t, err)
			require.NoError(t, env.draftCache.Put(context.Background(), first))

			checkout, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{first.UUID.String(), second.UUID.String()},
			}, metadata)
			require.NoError(t, err)
			assert.False(t, checkout.Paid)
			assert.NotEmpty(t, checkout.RedirectToken)
			assert.NotEmpty(t, checkout.RedirectURL)
			assert.Equal(t, int64(15000), checkout.Total)

			// The frozen payment request is pending with the quoted amounts
			stored, err := env.paymentRepo.ByGatewayToken(context.Background(), checkout.RedirectToken)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.PaymentRequestStatusPending, stored.Status)
			assert.Equal(t, int64(15000), stored.Total)
			assert.Len(t, stored.Selection, 2)

			result, err := env.flow.ConfirmPayment(context.Background(), &dto.PaymentCallbackRequest{
				Token:     utils.ToPtr(checkout.RedirectToken),
				Status:    utils.ToPtr("paid"),
				Reference: utils.ToPtr("bank-ref-001"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.PaymentRequestStatusCompleted), result.PaymentStatus)
			assert.ElementsMatch(t, []string{first.UUID.String(), second.UUID.String()}, result.PromotedPages)

			// Both pages are active with unique slugs
			promotedFirst, err := env.pageRepo.ByUUID(context.Background(), first.UUID.String())
			require.NoError(t, err)
			promotedSecond, err := env.pageRepo.ByUUID(context.Background(), second.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.LifecycleStateActive, promotedFirst.State)
			assert.Equal(t, models.LifecycleStateActive, promotedSecond.State)
			require.NotNil(t, promotedFirst.Slug)
			require.NotNil(t, promotedSecond.Slug)
			assert.NotEqual(t, *promotedFirst.Slug, *promotedSecond.Slug)

			// The promoted draft is evicted from the cache tier
			cached, err := env.draftCache.Get(context.Background(), customer.ID, first.UUID)
			require.NoError(t, err)
			assert.Nil(t, cached)

			// Settlement is audited
			auditLogs, err := env.auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				CustomerID: &customer.ID,
				Action:     utils.ToPtr(models.AuditActionPaymentConfirmed),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, auditLogs, 1)
		})

		t.Run("RepeatedCallbackRejected", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			checkout, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{page.UUID.String()},
			}, metadata)
			require.NoError(t, err)

			callback := &dto.PaymentCallbackRequest{
				Token:  utils.ToPtr(checkout.RedirectToken),
				Status: utils.ToPtr("paid"),
			}
			_, err = env.flow.ConfirmPayment(context.Background(), callback, metadata)
			require.NoError(t, err)

			_, err = env.flow.ConfirmPayment(context.Background(), callback, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPaymentAlreadyProcessed(err))
		})

		t.Run("FailedCallbackKeepsDrafts", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			checkout, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{page.UUID.String()},
			}, metadata)
			require.NoError(t, err)

			result, err := env.flow.ConfirmPayment(context.Background(), &dto.PaymentCallbackRequest{
				Token:  utils.ToPtr(checkout.RedirectToken),
				Status: utils.ToPtr("failed"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.PaymentRequestStatusFailed), result.PaymentStatus)
			assert.Empty(t, result.PromotedPages)

			stored, err := env.pageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.LifecycleStateDraft, stored.State)
			assert.Nil(t, stored.Slug)
		})

		t.Run("MissingDraftAbortsWholePromotion", func(t *testing.T) {
			kept, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)
			doomed, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			checkout, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{kept.UUID.String(), doomed.UUID.String()},
			}, metadata)
			require.NoError(t, err)

			// The customer deletes one quoted draft before the gateway settles
			require.NoError(t, testDB.DB.Delete(&models.LinkPage{}, doomed.ID).Error)

			_, err = env.flow.ConfirmPayment(context.Background(), &dto.PaymentCallbackRequest{
				Token:  utils.ToPtr(checkout.RedirectToken),
				Status: utils.ToPtr("paid"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSelectionNotDraft(err))

			// The surviving page was not promoted
			stored, err := env.pageRepo.ByUUID(context.Background(), kept.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.LifecycleStateDraft, stored.State)

			// The promotion failure is audited
			auditLogs, err := env.auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				CustomerID: &customer.ID,
				Action:     utils.ToPtr(models.AuditActionPromotionFailed),
			}, "", 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, auditLogs)
		})

		t.Run("ExpiredPaymentRequestRejected", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			checkout, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{page.UUID.String()},
			}, metadata)
			require.NoError(t, err)

			// Back-date the expiry
			expiredAt := utils.UTCNow().Add(-1 * time.Minute)
			err = testDB.DB.Model(&models.PaymentRequest{}).
				Where("uuid = ?", checkout.PaymentUUID).
				Update("expires_at", expiredAt).Error
			require.NoError(t, err)

			_, err = env.flow.ConfirmPayment(context.Background(), &dto.PaymentCallbackRequest{
				Token:  utils.ToPtr(checkout.RedirectToken),
				Status: utils.ToPtr("paid"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPaymentRequestExpired(err))

			stored, err := env.pageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.LifecycleStateDraft, stored.State)
		})

		t.Run("UnknownTokenRejected", func(t *testing.T) {
			_, err := env.flow.ConfirmPayment(context.Background(), &dto.PaymentCallbackRequest{
				Token:  utils.ToPtr("no-such-token"),
				Status: utils.ToPtr("paid"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPaymentRequestNotFound(err))
		})

		t.Run("GatewayFailureLeavesNothingSettled", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			env.paymentSvc.SubmitErr = services.ErrPaymentGatewayUnavailable
			defer func() { env.paymentSvc.SubmitErr = nil }()

			_, err = env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
				CustomerID: customer.ID,
				PageUUIDs:  []string{page.UUID.String()},
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPaymentGatewayUnavailable(err))

			stored, err := env.pageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.LifecycleStateDraft, stored.State)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckoutWithStoredPaymentMethod(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newCheckoutEnv(testDB)

		customer, err := fixtures.CreateTestCustomerWithStoredPayment()
		require.NoError(t, err)
		page, err := fixtures.CreateTestDraftPage(customer.ID)
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		result, err := env.flow.Checkout(context.Background(), &dto.CheckoutRequest{
			CustomerID:   customer.ID,
			PageUUIDs:    []string{page.UUID.String()},
			DiscountCode: utils.ToPtr("HALFOFF"),
		}, metadata)
		require.NoError(t, err)

		// The stored method settles synchronously; no redirect leg
		assert.True(t, result.Paid)
		assert.Empty(t, result.RedirectToken)
		assert.Equal(t, int64(3000), result.Total)

		promoted, err := env.pageRepo.ByUUID(context.Background(), page.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.LifecycleStateActive, promoted.State)
		require.NotNil(t, promoted.Slug)

		// The gateway saw the stored-method flag
		require.Len(t, env.paymentSvc.Submitted, 1)
		assert.True(t, env.paymentSvc.Submitted[0].StoredMethod)
		assert.Equal(t, "HALFOFF", env.paymentSvc.Submitted[0].DiscountCode)

		return nil
	})
	require.NoError(t, err)
}
