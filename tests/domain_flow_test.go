package tests

import (
	"bytes"
	"context"
	"testing"

	"github.com/linkforge/linkforge/app/dto"
	"github.com/linkforge/linkforge/app/services"
	businessflow "github.com/linkforge/linkforge/business_flow"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	testingutil "github.com/linkforge/linkforge/testing"
	"github.com/linkforge/linkforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type domainEnv struct {
	reservationFlow businessflow.DomainReservationFlow
	adminFlow       businessflow.DomainAdminFlow
	registrar       *services.MockRegistrarService
	dnsService      *services.MockDNSService
	domainRepo      repository.DomainRequestRepository
	auditRepo       repository.AuditLogRepository
}

func newDomainEnv(testDB *testingutil.TestDB) *domainEnv {
	domainRepo := repository.NewDomainRequestRepository(testDB.DB)
	linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
	customerRepo := repository.NewCustomerRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	registrar := services.NewMockRegistrarService()
	dnsService := services.NewMockDNSService()

	reservationFlow := businessflow.NewDomainReservationFlow(
		domainRepo,
		linkPageRepo,
		customerRepo,
		auditRepo,
		registrar,
		testDB.DB,
	)
	adminFlow := businessflow.NewDomainAdminFlow(
		domainRepo,
		auditRepo,
		dnsService,
		testDB.DB,
	)

	return &domainEnv{
		reservationFlow: reservationFlow,
		adminFlow:       adminFlow,
		registrar:       registrar,
		dnsService:      dnsService,
		domainRepo:      domainRepo,
		auditRepo:       auditRepo,
	}
}

func TestSearchDomain(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newDomainEnv(testDB)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("DotlessQueryGetsTLDAppended", func(t *testing.T) {
			result, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
				CustomerID: customer.ID,
				Query:      utils.ToPtr("  Coffee  "),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "coffee.com", result.Domain)
			assert.Equal(t, string(services.SearchOutcomeAvailable), result.Outcome)
			assert.Equal(t, int64(1200), result.PriceCents)
			assert.Equal(t, "$12.00", result.PriceDisplay)
		})

		t.Run("SchemeAndPathStripped", func(t *testing.T) {
			result, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
				CustomerID: customer.ID,
				Query:      utils.ToPtr("https://www.roastery.com/menu?x=1"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "roastery.com", result.Domain)
		})

		t.Run("PolicyViolationsNeverReachRegistrar", func(t *testing.T) {
			for _, query := range []string{"shop.net", "cafe42", ".com"} {
				_, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
					CustomerID: customer.ID,
					Query:      utils.ToPtr(query),
				}, metadata)
				require.Error(t, err, "query %q should be rejected", query)
				assert.True(t, businessflow.IsDomainPolicyViolation(err), "query %q", query)
			}
		})

		t.Run("TakenOutcomeCarriesNoPrice", func(t *testing.T) {
			env.registrar.SearchResults["taken.com"] = &services.SearchResult{
				Domain:  "taken.com",
				Outcome: services.SearchOutcomeTaken,
			}

			result, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
				CustomerID: customer.ID,
				Query:      utils.ToPtr("taken"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(services.SearchOutcomeTaken), result.Outcome)
			assert.Zero(t, result.PriceCents)
			assert.Empty(t, result.PriceDisplay)
		})

		t.Run("RegistrarOutageIsConnectionErrorOutcome", func(t *testing.T) {
			env.registrar.SearchErr = services.ErrRegistrarUnavailable
			defer func() { env.registrar.SearchErr = nil }()

			result, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
				CustomerID: customer.ID,
				Query:      utils.ToPtr("coffee"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, businessflow.SearchOutcomeConnectionError, result.Outcome)
		})

		t.Run("EmptyQueryRejected", func(t *testing.T) {
			_, err := env.reservationFlow.SearchDomain(context.Background(), &dto.SearchDomainRequest{
				CustomerID: customer.ID,
				Query:      utils.ToPtr("   "),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDomainQueryRequired(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestReserveAndConnectDomain(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newDomainEnv(testDB)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("ReserveMovesToPending", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			result, err := env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("myroastery"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "myroastery.com", result.Domain)
			assert.Equal(t, string(models.DomainStatusPending), result.Status)
			assert.NotEmpty(t, result.RequestedAt)

			// The registrar saw the reservation
			require.Len(t, env.registrar.Reserved, 1)
			assert.Equal(t, "myroastery.com", env.registrar.Reserved[0].Domain)
			assert.Equal(t, page.UUID.String(), env.registrar.Reserved[0].LinkID)

			stored, err := env.domainRepo.ByLinkPageID(context.Background(), page.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.DomainStatusPending, stored.Status)
			assert.Equal(t, models.ReservationTypeBuyNew, stored.ReservationType)
		})

		t.Run("ReserveOnPendingRejected", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusPending)
			require.NoError(t, err)

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("another"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidDomainTransition(err))
		})

		t.Run("ReserveAfterFailureAllowed", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusFailed)
			require.NoError(t, err)

			result, err := env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("secondchance"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.DomainStatusPending), result.Status)
		})

		t.Run("RegistrarRejectionLeavesStateUntouched", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			env.registrar.ReserveErr = &services.ReserveRejectedError{Message: "domain was reserved moments ago"}
			defer func() { env.registrar.ReserveErr = nil }()

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("contested"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReserveRejected(err))

			stored, err := env.domainRepo.ByLinkPageID(context.Background(), page.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("RegistrarOutageLeavesStateUntouched", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			env.registrar.ReserveErr = services.ErrRegistrarUnavailable
			defer func() { env.registrar.ReserveErr = nil }()

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("unreachable"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRegistrarUnavailable(err))

			stored, err := env.domainRepo.ByLinkPageID(context.Background(), page.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("DomainClaimedByAnotherPageRejected", func(t *testing.T) {
			first, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			second, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(first.UUID.String()),
				Domain:     utils.ToPtr("exclusive"),
			}, metadata)
			require.NoError(t, err)

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(second.UUID.String()),
				Domain:     utils.ToPtr("exclusive"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDomainAlreadyRequested(err))
		})

		t.Run("ConnectOwnAcceptsAnyTLD", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			reservedBefore := len(env.registrar.Reserved)

			result, err := env.reservationFlow.ConnectOwnDomain(context.Background(), &dto.ConnectDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("https://www.my-studio.io/"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "my-studio.io", result.Domain)
			assert.Equal(t, string(models.DomainStatusPending), result.Status)

			stored, err := env.domainRepo.ByLinkPageID(context.Background(), page.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.ReservationTypeConnectOwn, stored.ReservationType)

			// Connecting an owned domain never touches the registrar
			assert.Len(t, env.registrar.Reserved, reservedBefore)
		})

		t.Run("ConnectOwnRequiresADot", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.ConnectOwnDomain(context.Background(), &dto.ConnectDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("dotless"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDomainPolicyViolation(err))
		})

		t.Run("ForeignPageDenied", func(t *testing.T) {
			other, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)
			page, err := fixtures.CreateTestActivePage(other.ID)
			require.NoError(t, err)

			_, err = env.reservationFlow.ReserveDomain(context.Background(), &dto.ReserveDomainRequest{
				CustomerID: customer.ID,
				PageUUID:   utils.ToPtr(page.UUID.String()),
				Domain:     utils.ToPtr("notmine"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPageAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDomainAdministration(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		env := newDomainEnv(testDB)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("10.0.0.1", "Admin User Agent")

		t.Run("ActivatePendingRequest", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			request, err := fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusPending)
			require.NoError(t, err)

			result, err := env.adminFlow.Activate(context.Background(), &dto.ActivateDomainRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.DomainStatusActive), result.Status)
			require.NotNil(t, result.ActivatedAt)

			// Activating again is an idempotent no-op
			again, err := env.adminFlow.Activate(context.Background(), &dto.ActivateDomainRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Domain request already active", again.Message)

			// Only the first activation is audited
			auditLogs, err := env.auditRepo.ListByAction(context.Background(), models.AuditActionDomainActivated, 0, 0)
			require.NoError(t, err)
			assert.Len(t, auditLogs, 1)
		})

		t.Run("RejectStoresNotesAndClearsActivation", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			request, err := fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusActive)
			require.NoError(t, err)

			result, err := env.adminFlow.Reject(context.Background(), &dto.RejectDomainRequest{
				UUID:  request.UUID.String(),
				Notes: utils.ToPtr("trademark complaint"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.DomainStatusFailed), result.Status)

			stored, err := env.domainRepo.ByUUID(context.Background(), request.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, stored.Notes)
			assert.Equal(t, "trademark complaint", *stored.Notes)
			assert.Nil(t, stored.ActivatedAt)

			// Rejecting again is an idempotent no-op
			again, err := env.adminFlow.Reject(context.Background(), &dto.RejectDomainRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Domain request already rejected", again.Message)
		})

		t.Run("ActivateUnknownRequestFails", func(t *testing.T) {
			_, err := env.adminFlow.Activate(context.Background(), &dto.ActivateDomainRequest{
				UUID: "6b1f6f2e-0000-0000-0000-000000000000",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDomainRequestNotFound(err))
		})

		t.Run("TestDNSCachesProbeWithoutTouchingStatus", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			request, err := fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusPending)
			require.NoError(t, err)

			result, err := env.adminFlow.TestDNS(context.Background(), &dto.TestDNSRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.NoError(t, err)
			assert.True(t, result.Configured)
			assert.Equal(t, []string{"203.0.113.10"}, result.Addresses)

			stored, err := env.domainRepo.ByUUID(context.Background(), request.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.DomainStatusPending, stored.Status)
			assert.True(t, stored.DNSProbe.Configured)
			require.NotNil(t, stored.DNSProbe.CheckedAt)
		})

		t.Run("ResolverOutageKeepsCachedProbe", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)
			request, err := fixtures.CreateTestDomainRequest(page.ID, models.DomainStatusPending)
			require.NoError(t, err)

			_, err = env.adminFlow.TestDNS(context.Background(), &dto.TestDNSRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.NoError(t, err)

			env.dnsService.Err = services.ErrDNSUnavailable
			defer func() { env.dnsService.Err = nil }()

			_, err = env.adminFlow.TestDNS(context.Background(), &dto.TestDNSRequest{
				UUID: request.UUID.String(),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDNSUnavailable(err))

			stored, err := env.domainRepo.ByUUID(context.Background(), request.UUID.String())
			require.NoError(t, err)
			assert.True(t, stored.DNSProbe.Configured)
			require.NotNil(t, stored.DNSProbe.CheckedAt)
		})

		t.Run("ListRequestsFiltersByStatus", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			fresh, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			pendingPage, err := fixtures.CreateTestActivePage(fresh.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDomainRequest(pendingPage.ID, models.DomainStatusPending)
			require.NoError(t, err)

			activePage, err := fixtures.CreateTestActivePage(fresh.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestDomainRequest(activePage.ID, models.DomainStatusActive)
			require.NoError(t, err)

			all, err := env.adminFlow.ListRequests(context.Background(), &dto.ListDomainRequestsRequest{
				Page:  1,
				Limit: 20,
			})
			require.NoError(t, err)
			assert.Len(t, all.Items, 2)
			assert.Equal(t, int64(2), all.Pagination.Total)

			pendingOnly, err := env.adminFlow.ListRequests(context.Background(), &dto.ListDomainRequestsRequest{
				Status: utils.ToPtr(string(models.DomainStatusPending)),
				Page:   1,
				Limit:  20,
			})
			require.NoError(t, err)
			require.Len(t, pendingOnly.Items, 1)
			assert.Equal(t, string(models.DomainStatusPending), pendingOnly.Items[0].Status)

			_, err = env.adminFlow.ListRequests(context.Background(), &dto.ListDomainRequestsRequest{
				Status: utils.ToPtr("bogus"),
				Page:   1,
				Limit:  20,
			})
			require.Error(t, err)
		})

		t.Run("ExportRequestsProducesWorkbook", func(t *testing.T) {
			filename, data, err := env.adminFlow.ExportRequests(context.Background())
			require.NoError(t, err)
			assert.Contains(t, filename, "domain_requests_")
			assert.Contains(t, filename, ".xlsx")
			require.NotEmpty(t, data)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = xl.Close() }()

			sheets := xl.GetSheetList()
			assert.Contains(t, sheets, string(models.DomainStatusPending))
			assert.Contains(t, sheets, string(models.DomainStatusActive))
			assert.Contains(t, sheets, string(models.DomainStatusFailed))

			rows, err := xl.GetRows(string(models.DomainStatusPending))
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			assert.Equal(t, "uuid", rows[0][0])
			assert.Len(t, rows, 2) // header plus the one pending request
		})

		return nil
	})
	require.NoError(t, err)
}
