package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/app/dto"
	businessflow "github.com/linkforge/linkforge/business_flow"
	"github.com/linkforge/linkforge/models"
	"github.com/linkforge/linkforge/repository"
	testingutil "github.com/linkforge/linkforge/testing"
	"github.com/linkforge/linkforge/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkPageLifecycle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
		customerRepo := repository.NewCustomerRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		draftCache := repository.NewMemoryDraftCache()

		// Initialize business flow
		pageFlow := businessflow.NewLinkPageFlow(
			linkPageRepo,
			customerRepo,
			auditRepo,
			draftCache,
			testDB.DB,
		)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("CreateDraftWithDefaults", func(t *testing.T) {
			req := &dto.CreatePageRequest{
				CustomerID:  customer.ID,
				DisplayName: utils.ToPtr("My Coffee Shop"),
			}

			result, err := pageFlow.CreateDraft(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, string(models.LifecycleStateDraft), result.Page.State)
			assert.Equal(t, string(models.PageTemplateClassic), result.Page.Template)
			assert.Empty(t, result.Page.Buttons)
			assert.Nil(t, result.Page.Slug)

			// The draft is written through to the cache tier
			pageUUID, err := uuid.Parse(result.Page.UUID)
			require.NoError(t, err)
			cached, err := draftCache.Get(context.Background(), customer.ID, pageUUID)
			require.NoError(t, err)
			require.NotNil(t, cached)
			assert.Equal(t, "My Coffee Shop", cached.DisplayName)

			// Verify audit log was created
			auditLogs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				CustomerID: &customer.ID,
				Action:     utils.ToPtr(models.AuditActionPageCreated),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, auditLogs, 1)
			assert.True(t, utils.IsTrue(auditLogs[0].Success))
		})

		t.Run("CreateDraftRequiresDisplayName", func(t *testing.T) {
			req := &dto.CreatePageRequest{CustomerID: customer.ID}

			result, err := pageFlow.CreateDraft(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
		})

		t.Run("CreateDraftRejectsUnknownTemplate", func(t *testing.T) {
			req := &dto.CreatePageRequest{
				CustomerID:  customer.ID,
				DisplayName: utils.ToPtr("Bad Template"),
				Template:    utils.ToPtr("mosaic"),
			}

			_, err := pageFlow.CreateDraft(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTemplate(err))
		})

		t.Run("UpdatePageMergesProvidedFields", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			req := &dto.UpdatePageRequest{
				UUID:        page.UUID.String(),
				CustomerID:  customer.ID,
				DisplayName: utils.ToPtr("Renamed Page"),
				Template:    utils.ToPtr(string(models.PageTemplateCards)),
				Theme: &dto.ThemeDTO{
					BackgroundType: utils.ToPtr(string(models.BackgroundTypeGradient)),
					BackgroundFrom: utils.ToPtr("#FF0000"),
					BackgroundTo:   utils.ToPtr("#0000FF"),
					OverlayOpacity: utils.ToPtr(250), // clamped to 100
				},
			}

			result, err := pageFlow.UpdatePage(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Renamed Page", result.Page.DisplayName)
			assert.Equal(t, string(models.PageTemplateCards), result.Page.Template)
			require.NotNil(t, result.Page.Theme.OverlayOpacity)
			assert.Equal(t, 100, *result.Page.Theme.OverlayOpacity)

			// Untouched fields survive the partial update
			assert.Equal(t, "Test Creator", result.Page.ProfileName)
			assert.Len(t, result.Page.Buttons, 2)
		})

		t.Run("UpdatePageDeniedForOtherCustomer", func(t *testing.T) {
			other, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)

			req := &dto.UpdatePageRequest{
				UUID:        page.UUID.String(),
				CustomerID:  other.ID,
				DisplayName: utils.ToPtr("Hijacked"),
			}

			_, err = pageFlow.UpdatePage(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPageAccessDenied(err))
		})

		t.Run("DeletePageRemovesBothTiers", func(t *testing.T) {
			page, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)
			require.NoError(t, draftCache.Put(context.Background(), page))

			req := &dto.DeletePageRequest{
				UUID:       page.UUID.String(),
				CustomerID: customer.ID,
			}

			_, err = pageFlow.DeletePage(context.Background(), req, metadata)
			require.NoError(t, err)

			stored, err := linkPageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, stored)

			cached, err := draftCache.Get(context.Background(), customer.ID, page.UUID)
			require.NoError(t, err)
			assert.Nil(t, cached)
		})

		t.Run("DeleteActivePageIsAllowed", func(t *testing.T) {
			page, err := fixtures.CreateTestActivePage(customer.ID)
			require.NoError(t, err)

			req := &dto.DeletePageRequest{
				UUID:       page.UUID.String(),
				CustomerID: customer.ID,
			}

			_, err = pageFlow.DeletePage(context.Background(), req, metadata)
			require.NoError(t, err)

			stored, err := linkPageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("DeleteUnknownPageFails", func(t *testing.T) {
			req := &dto.DeletePageRequest{
				UUID:       uuid.New().String(),
				CustomerID: customer.ID,
			}

			_, err := pageFlow.DeletePage(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPageNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListPagesMergesTiers(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
		customerRepo := repository.NewCustomerRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		draftCache := repository.NewMemoryDraftCache()

		pageFlow := businessflow.NewLinkPageFlow(
			linkPageRepo,
			customerRepo,
			auditRepo,
			draftCache,
			testDB.DB,
		)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		// One stored draft, one stored active page
		draft, err := fixtures.CreateTestDraftPage(customer.ID)
		require.NoError(t, err)
		active, err := fixtures.CreateTestActivePage(customer.ID)
		require.NoError(t, err)

		// A cache-only draft, as created while the authoritative tier was
		// unreachable
		cacheOnly := &models.LinkPage{
			UUID:        uuid.New(),
			CustomerID:  customer.ID,
			State:       models.LifecycleStateDraft,
			DisplayName: "Offline Draft",
			Template:    models.PageTemplateClassic,
			Buttons:     models.ButtonList{},
		}
		require.NoError(t, draftCache.Put(context.Background(), cacheOnly))

		// A stale cache snapshot of the stored draft with a different name;
		// the authoritative tier must win the merge
		stale := *draft
		stale.DisplayName = "Stale Snapshot"
		require.NoError(t, draftCache.Put(context.Background(), &stale))

		result, err := pageFlow.ListPages(context.Background(), &dto.ListPagesRequest{
			CustomerID: customer.ID,
			Page:       1,
			Limit:      50,
		}, metadata)
		require.NoError(t, err)

		require.Len(t, result.Drafts, 2)
		require.Len(t, result.Active, 1)
		assert.Equal(t, active.UUID.String(), result.Active[0].UUID)

		names := map[string]string{}
		for _, d := range result.Drafts {
			names[d.UUID] = d.DisplayName
		}
		assert.Equal(t, draft.DisplayName, names[draft.UUID.String()])
		assert.Equal(t, "Offline Draft", names[cacheOnly.UUID.String()])

		return nil
	})
	require.NoError(t, err)
}

func TestButtonCollection(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
		customerRepo := repository.NewCustomerRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		draftCache := repository.NewMemoryDraftCache()

		pageFlow := businessflow.NewLinkPageFlow(
			linkPageRepo,
			customerRepo,
			auditRepo,
			draftCache,
			testDB.DB,
		)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)
		page, err := fixtures.CreateTestDraftPage(customer.ID)
		require.NoError(t, err)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("AddButtonAppliesPresetDefaults", func(t *testing.T) {
			req := &dto.AddButtonRequest{
				PageUUID:   page.UUID.String(),
				CustomerID: customer.ID,
				SocialType: utils.ToPtr(string(models.SocialTypeVideo)),
			}

			result, err := pageFlow.AddButton(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.SocialTypeVideo), result.Button.SocialType)
			assert.Equal(t, "My videos", result.Button.Title)
			assert.Equal(t, "#FF0000", result.Button.FillColor)
			assert.Equal(t, 100, result.Button.Opacity)
			assert.True(t, result.Button.IsActive)
			assert.Len(t, result.Page.Buttons, 3)

			// New buttons append at the end of the render order
			assert.Equal(t, result.Button.ID, result.Page.Buttons[2].ID)
		})

		t.Run("AddButtonRejectsUnknownSocialType", func(t *testing.T) {
			req := &dto.AddButtonRequest{
				PageUUID:   page.UUID.String(),
				CustomerID: customer.ID,
				SocialType: utils.ToPtr("carrier_pigeon"),
			}

			_, err := pageFlow.AddButton(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidSocialType(err))
		})

		t.Run("UpdateButtonMergesPatch", func(t *testing.T) {
			fresh, err := linkPageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			buttonID := fresh.Buttons[0].ID

			req := &dto.UpdateButtonRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   buttonID.String(),
				CustomerID: customer.ID,
				Title:      utils.ToPtr("Chat with us"),
				Opacity:    utils.ToPtr(80),
			}

			result, err := pageFlow.UpdateButton(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Chat with us", result.Page.Buttons[0].Title)
			assert.Equal(t, 80, result.Page.Buttons[0].Opacity)

			// Fields absent from the patch are untouched
			assert.Equal(t, "#25D366", result.Page.Buttons[0].FillColor)
		})

		t.Run("UpdateUnknownButtonIsNoOp", func(t *testing.T) {
			req := &dto.UpdateButtonRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   uuid.New().String(),
				CustomerID: customer.ID,
				Title:      utils.ToPtr("Ghost"),
			}

			result, err := pageFlow.UpdateButton(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Button not present, nothing to update", result.Message)
			for _, b := range result.Page.Buttons {
				assert.NotEqual(t, "Ghost", b.Title)
			}
		})

		t.Run("DeleteButtonPreservesOrder", func(t *testing.T) {
			fresh, err := linkPageRepo.ByUUID(context.Background(), page.UUID.String())
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(fresh.Buttons), 3)
			removed := fresh.Buttons[1].ID
			first := fresh.Buttons[0].ID
			last := fresh.Buttons[2].ID

			req := &dto.DeleteButtonRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   removed.String(),
				CustomerID: customer.ID,
			}

			result, err := pageFlow.DeleteButton(context.Background(), req, metadata)
			require.NoError(t, err)
			require.Len(t, result.Page.Buttons, 2)
			assert.Equal(t, first.String(), result.Page.Buttons[0].ID)
			assert.Equal(t, last.String(), result.Page.Buttons[1].ID)
		})

		t.Run("DeleteUnknownButtonIsNoOp", func(t *testing.T) {
			req := &dto.DeleteButtonRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   uuid.New().String(),
				CustomerID: customer.ID,
			}

			result, err := pageFlow.DeleteButton(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Button not present, nothing to delete", result.Message)
		})

		t.Run("ReorderShiftsInBetween", func(t *testing.T) {
			// Rebuild a page with three buttons in a known order
			ordered, err := fixtures.CreateTestDraftPage(customer.ID)
			require.NoError(t, err)
			addResp, err := pageFlow.AddButton(context.Background(), &dto.AddButtonRequest{
				PageUUID:   ordered.UUID.String(),
				CustomerID: customer.ID,
				SocialType: utils.ToPtr(string(models.SocialTypePhoto)),
			}, metadata)
			require.NoError(t, err)
			require.Len(t, addResp.Page.Buttons, 3)
			ids := []string{addResp.Page.Buttons[0].ID, addResp.Page.Buttons[1].ID, addResp.Page.Buttons[2].ID}

			result, err := pageFlow.ReorderButtons(context.Background(), &dto.ReorderButtonsRequest{
				PageUUID:   ordered.UUID.String(),
				CustomerID: customer.ID,
				From:       utils.ToPtr(0),
				To:         utils.ToPtr(2),
			}, metadata)
			require.NoError(t, err)
			require.Len(t, result.Page.Buttons, 3)
			assert.Equal(t, ids[1], result.Page.Buttons[0].ID)
			assert.Equal(t, ids[2], result.Page.Buttons[1].ID)
			assert.Equal(t, ids[0], result.Page.Buttons[2].ID)
		})

		t.Run("ReorderOutOfRangeFails", func(t *testing.T) {
			_, err := pageFlow.ReorderButtons(context.Background(), &dto.ReorderButtonsRequest{
				PageUUID:   page.UUID.String(),
				CustomerID: customer.ID,
				From:       utils.ToPtr(0),
				To:         utils.ToPtr(99),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReorderOutOfRange(err))
		})

		t.Run("ReorderRequiresBothPositions", func(t *testing.T) {
			_, err := pageFlow.ReorderButtons(context.Background(), &dto.ReorderButtonsRequest{
				PageUUID:   page.UUID.String(),
				CustomerID: customer.ID,
				From:       utils.ToPtr(0),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReorderIndexesRequired(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRotatorSlots(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		linkPageRepo := repository.NewLinkPageRepository(testDB.DB)
		customerRepo := repository.NewCustomerRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		draftCache := repository.NewMemoryDraftCache()

		pageFlow := businessflow.NewLinkPageFlow(
			linkPageRepo,
			customerRepo,
			auditRepo,
			draftCache,
			testDB.DB,
		)

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)
		page, err := fixtures.CreateTestDraftPage(customer.ID)
		require.NoError(t, err)

		// Button 0 is the messenger preset, button 1 is custom
		messengerID := page.Buttons[0].ID
		customID := page.Buttons[1].ID

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SetSlotOnMessengerButton", func(t *testing.T) {
			result, err := pageFlow.SetRotatorSlot(context.Background(), &dto.SetRotatorSlotRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   messengerID.String(),
				Slot:       2,
				CustomerID: customer.ID,
				URL:        utils.ToPtr("https://wa.me/15551230002"),
			}, metadata)
			require.NoError(t, err)
			require.Len(t, result.Page.Buttons[0].Rotator.AlternateURLs, models.RotatorSlots)
			assert.Equal(t, "https://wa.me/15551230002", result.Page.Buttons[0].Rotator.AlternateURLs[2])
			assert.Empty(t, result.Page.Buttons[0].Rotator.AlternateURLs[0])
		})

		t.Run("ClearSlotWithEmptyURL", func(t *testing.T) {
			result, err := pageFlow.SetRotatorSlot(context.Background(), &dto.SetRotatorSlotRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   messengerID.String(),
				Slot:       2,
				CustomerID: customer.ID,
			}, metadata)
			require.NoError(t, err)
			assert.Empty(t, result.Page.Buttons[0].Rotator.AlternateURLs[2])
		})

		t.Run("SlotOutOfRangeFails", func(t *testing.T) {
			_, err := pageFlow.SetRotatorSlot(context.Background(), &dto.SetRotatorSlotRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   messengerID.String(),
				Slot:       models.RotatorSlots,
				CustomerID: customer.ID,
				URL:        utils.ToPtr("https://wa.me/15551230003"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRotatorSlotOutOfRange(err))
		})

		t.Run("RotatorOnlyOnMessengerButtons", func(t *testing.T) {
			_, err := pageFlow.SetRotatorSlot(context.Background(), &dto.SetRotatorSlotRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   customID.String(),
				Slot:       0,
				CustomerID: customer.ID,
				URL:        utils.ToPtr("https://example.com"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRotatorNotApplicable(err))
		})

		t.Run("EnableRotatorKeepsSlotCount", func(t *testing.T) {
			result, err := pageFlow.UpdateButton(context.Background(), &dto.UpdateButtonRequest{
				PageUUID:   page.UUID.String(),
				ButtonID:   messengerID.String(),
				CustomerID: customer.ID,
				RotatorOn:  utils.ToPtr(true),
			}, metadata)
			require.NoError(t, err)
			assert.True(t, result.Page.Buttons[0].Rotator.Enabled)
			assert.Len(t, result.Page.Buttons[0].Rotator.AlternateURLs, models.RotatorSlots)
		})

		return nil
	})
	require.NoError(t, err)
}
