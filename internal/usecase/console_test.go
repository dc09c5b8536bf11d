package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/infra/integration/productapi"
)

func actorCtx() context.Context {
	return WithActor(context.Background(), "alice")
}

func ids(products []entity.Product) []entity.ProductID {
	out := make([]entity.ProductID, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func loadedConsole(t *testing.T, api *fakeAPI) *Console {
	t.Helper()
	c := NewConsole(api, nil)
	require.NoError(t, c.Load(actorCtx()))
	return c
}

func TestNewConsoleStartsClosedOnCMSTab(t *testing.T) {
	c := NewConsole(newFakeAPI(), nil)

	state := c.Snapshot()
	assert.Equal(t, TabCMS, state.ActiveTab)
	assert.Equal(t, FormClosed, state.FormMode())
	assert.Equal(t, entity.DefaultDraft(), state.Draft)
	assert.False(t, state.Loaded)
	assert.Empty(t, state.Products)
}

func TestLoadFetchesBothCollections(t *testing.T) {
	api := newFakeAPI(
		entity.Product{ID: "1", Name: "Draft item", Status: entity.StatusDraft},
		entity.Product{ID: "2", Name: "Live item", Status: entity.StatusPublished},
	)

	c := loadedConsole(t, api)

	state := c.Snapshot()
	assert.Equal(t, []entity.ProductID{"1", "2"}, ids(state.Products))
	assert.Equal(t, []entity.ProductID{"2"}, ids(state.LiveProducts))
	assert.False(t, state.Loading)
	assert.True(t, state.Loaded)
	assert.Equal(t, 2, api.callCount())
}

func TestLoadProductsFailureNotifiesAndKeepsPreviousList(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget", Status: entity.StatusPublished})
	c := loadedConsole(t, api)

	api.failOn("list_products", errors.New("connection refused"))
	err := c.Load(actorCtx())

	require.Error(t, err)
	assert.True(t, IsTechnicalError(err))
	state := c.Snapshot()
	assert.Equal(t, []entity.ProductID{"1"}, ids(state.Products))
	assert.Equal(t, []Notice{{Level: NoticeError, Message: msgFetchProductsFailed}}, c.DrainNotices())
	// the live fetch still completed
	assert.Equal(t, 4, api.callCount())
}

func TestLoadLiveFailureIsOnlyLogged(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget"})
	api.failOn("list_live_products", errors.New("timeout"))

	c := NewConsole(api, nil)
	err := c.Load(actorCtx())

	assert.NoError(t, err)
	assert.Empty(t, c.DrainNotices())
	assert.Equal(t, []entity.ProductID{"1"}, ids(c.Snapshot().Products))
	assert.Empty(t, c.Snapshot().LiveProducts)
}

func TestSubmitDisabledForBlankNames(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		api := newFakeAPI()
		c := NewConsole(api, nil)
		require.NoError(t, c.OpenCreate())
		require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: name, Status: entity.StatusDraft}))

		assert.False(t, c.CanSubmit(), "%q", name)
		err := c.Submit(actorCtx())
		assert.True(t, HasCode(err, CodeSubmitDisabled), "%q", name)
		assert.Zero(t, api.callCount(), "%q", name)
		assert.True(t, c.Snapshot().FormVisible)
	}
}

func TestSubmitRejectsUnknownStatus(t *testing.T) {
	api := newFakeAPI()
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: "Deleted"}))

	err := c.Submit(actorCtx())

	assert.True(t, HasCode(err, CodeInvalidDraft))
	assert.Zero(t, api.callCount())
}

func TestSubmitRequiresActor(t *testing.T) {
	api := newFakeAPI()
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))

	err := c.Submit(context.Background())

	assert.True(t, HasCode(err, CodeMissingActor))
	assert.Zero(t, api.callCount())
}

func TestCreateThenPublishScenario(t *testing.T) {
	api := newFakeAPI()
	c := loadedConsole(t, api)

	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))
	require.NoError(t, c.Submit(actorCtx()))

	state := c.Snapshot()
	require.Len(t, state.Products, 1)
	widget := state.Products[0]
	assert.Equal(t, "Widget", widget.Name)
	assert.Equal(t, "alice", widget.CreatedBy)
	assert.Empty(t, state.LiveProducts)
	assert.Equal(t, FormClosed, state.FormMode())
	assert.Equal(t, entity.DefaultDraft(), state.Draft)
	assert.Equal(t, []Notice{{Level: NoticeSuccess, Message: msgCreated}}, c.DrainNotices())

	require.NoError(t, c.Edit(widget))
	draft := c.Snapshot().Draft
	draft.Status = entity.StatusPublished
	require.NoError(t, c.UpdateDraft(draft))
	require.NoError(t, c.Submit(actorCtx()))

	state = c.Snapshot()
	assert.Equal(t, []entity.ProductID{widget.ID}, ids(state.Products))
	assert.Equal(t, []entity.ProductID{widget.ID}, ids(state.LiveProducts))
	assert.Equal(t, entity.StatusPublished, state.Products[0].Status)
	assert.Equal(t, []Notice{{Level: NoticeSuccess, Message: msgUpdated}}, c.DrainNotices())
	assert.Equal(t, []string{"alice", "alice"}, api.actors)
}

func TestEditPrepopulatesForm(t *testing.T) {
	p := entity.Product{ID: "9", Name: "Lamp", Description: "Desk lamp", Status: entity.StatusArchived}
	c := loadedConsole(t, newFakeAPI(p))

	require.NoError(t, c.EditByID("9"))

	state := c.Snapshot()
	assert.Equal(t, FormEdit, state.FormMode())
	assert.Equal(t, entity.ProductID("9"), state.EditingTarget)
	assert.Equal(t, entity.ProductDraft{Name: "Lamp", Description: "Desk lamp", Status: entity.StatusArchived}, state.Draft)
}

func TestEditByIDUnknownProduct(t *testing.T) {
	c := loadedConsole(t, newFakeAPI())

	err := c.EditByID("404")

	assert.True(t, HasCode(err, CodeProductNotFound))
	assert.False(t, c.Snapshot().FormVisible)
}

func TestFailedWriteKeepsFormAndShowsServerMessage(t *testing.T) {
	api := newFakeAPI()
	api.failOn("create_product", &productapi.APIError{Operation: "create_product", StatusCode: http.StatusBadRequest, Message: "Name required"})
	c := loadedConsole(t, api)
	callsBefore := api.callCount()

	require.NoError(t, c.OpenCreate())
	draft := entity.ProductDraft{Name: "Widget", Description: "blue", Status: entity.StatusPublished}
	require.NoError(t, c.UpdateDraft(draft))
	err := c.Submit(actorCtx())

	require.Error(t, err)
	state := c.Snapshot()
	assert.True(t, state.FormVisible)
	assert.Equal(t, draft, state.Draft)
	assert.False(t, state.Submitting)
	assert.Equal(t, []Notice{{Level: NoticeError, Message: "Name required"}}, c.DrainNotices())
	// no resync after a failed write
	assert.Equal(t, callsBefore+1, api.callCount())
}

func TestFailedWriteWithoutMessageUsesGenericText(t *testing.T) {
	api := newFakeAPI()
	api.failOn("create_product", &productapi.APIError{Operation: "create_product", StatusCode: http.StatusInternalServerError})
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))

	require.Error(t, c.Submit(actorCtx()))

	assert.Equal(t, []Notice{{Level: NoticeError, Message: msgSaveFailed}}, c.DrainNotices())
}

func TestUnreachableAPIOnSave(t *testing.T) {
	api := newFakeAPI()
	api.failOn("create_product", errors.New("dial tcp: connection refused"))
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))

	err := c.Submit(actorCtx())

	assert.True(t, IsTechnicalError(err))
	assert.Equal(t, []Notice{{Level: NoticeError, Message: msgSaveUnreachable}}, c.DrainNotices())
	assert.True(t, c.Snapshot().FormVisible)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget"})
	c := loadedConsole(t, api)
	callsBefore := api.callCount()

	err := c.Delete(actorCtx(), "1", false)

	assert.True(t, HasCode(err, CodeDeleteNotConfirmed))
	assert.Equal(t, callsBefore, api.callCount())
	assert.Len(t, c.Snapshot().Products, 1)
}

func TestDeleteRemovesProduct(t *testing.T) {
	api := newFakeAPI(
		entity.Product{ID: "1", Name: "Widget", Status: entity.StatusPublished},
		entity.Product{ID: "2", Name: "Gadget"},
	)
	c := loadedConsole(t, api)

	require.NoError(t, c.Delete(actorCtx(), "1", true))

	state := c.Snapshot()
	assert.Equal(t, []entity.ProductID{"2"}, ids(state.Products))
	assert.Empty(t, state.LiveProducts)
	assert.Equal(t, []Notice{{Level: NoticeSuccess, Message: msgDeleted}}, c.DrainNotices())
	assert.Equal(t, []string{"alice"}, api.actors)
}

func TestDeleteFailureLeavesStateUnchanged(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget"})
	api.failOn("delete_product", &productapi.APIError{Operation: "delete_product", StatusCode: http.StatusConflict})
	c := loadedConsole(t, api)
	before := c.Snapshot()

	err := c.Delete(actorCtx(), "1", true)

	require.Error(t, err)
	assert.Equal(t, before.Products, c.Snapshot().Products)
	assert.Equal(t, []Notice{{Level: NoticeError, Message: msgDeleteFailed}}, c.DrainNotices())
}

func TestSwitchTabNeverCallsAPI(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget"})
	c := loadedConsole(t, api)
	callsBefore := api.callCount()

	require.NoError(t, c.SwitchTab(TabLive))
	assert.Equal(t, TabLive, c.Snapshot().ActiveTab)
	require.NoError(t, c.SwitchTab(TabCMS))

	assert.Equal(t, callsBefore, api.callCount())
	assert.True(t, HasCode(c.SwitchTab("settings"), CodeInvalidTab))
}

func TestResetFormClearsDraft(t *testing.T) {
	c := loadedConsole(t, newFakeAPI(entity.Product{ID: "1", Name: "Widget"}))
	require.NoError(t, c.EditByID("1"))

	require.NoError(t, c.ResetForm())

	state := c.Snapshot()
	assert.Equal(t, FormClosed, state.FormMode())
	assert.Empty(t, state.EditingTarget)
	assert.Equal(t, entity.DefaultDraft(), state.Draft)
}

func TestOpenCreateKeepsAnOpenForm(t *testing.T) {
	c := loadedConsole(t, newFakeAPI(entity.Product{ID: "1", Name: "Widget"}))
	require.NoError(t, c.EditByID("1"))

	require.NoError(t, c.OpenCreate())

	assert.Equal(t, FormEdit, c.Snapshot().FormMode())
}

func TestSubmitInFlightBlocksReentry(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))

	done := make(chan error, 1)
	go func() { done <- c.Submit(actorCtx()) }()

	require.Eventually(t, func() bool { return c.Snapshot().Submitting }, time.Second, time.Millisecond)
	assert.False(t, c.CanSubmit())
	assert.True(t, HasCode(c.Submit(actorCtx()), CodeSubmitInFlight))
	assert.True(t, HasCode(c.ResetForm(), CodeSubmitInFlight))
	assert.True(t, c.Busy())

	close(api.block)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().Submitting)
	assert.Len(t, c.Snapshot().Products, 1)
}

func TestDraftCannotChangeWhileSaving(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	api.failOn("create_product", errors.New("connection reset"))
	c := NewConsole(api, nil)
	require.NoError(t, c.OpenCreate())
	sent := entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}
	require.NoError(t, c.UpdateDraft(sent))

	done := make(chan error, 1)
	go func() { done <- c.Submit(actorCtx()) }()
	require.Eventually(t, func() bool { return c.Snapshot().Submitting }, time.Second, time.Millisecond)

	err := c.UpdateDraft(entity.ProductDraft{Name: "Other", Status: entity.StatusArchived})
	assert.True(t, HasCode(err, CodeSubmitInFlight))
	assert.True(t, HasCode(c.Submit(actorCtx()), CodeSubmitInFlight))

	close(api.block)
	require.Error(t, <-done)

	state := c.Snapshot()
	assert.True(t, state.FormVisible)
	assert.Equal(t, sent, state.Draft)
}

func TestUpdateDraftNeedsOpenForm(t *testing.T) {
	c := NewConsole(newFakeAPI(), nil)

	err := c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft})

	assert.True(t, HasCode(err, CodeFormClosed))
	assert.Equal(t, entity.DefaultDraft(), c.Snapshot().Draft)
}

func TestDeleteOnlyKnownProducts(t *testing.T) {
	api := newFakeAPI(entity.Product{ID: "1", Name: "Widget"})

	// a session that never loaded the list knows no products
	fresh := NewConsole(api, nil)
	assert.True(t, HasCode(fresh.Delete(actorCtx(), "1", true), CodeProductNotFound))
	assert.Zero(t, api.callCount())

	c := loadedConsole(t, api)
	callsBefore := api.callCount()
	assert.True(t, HasCode(c.Delete(actorCtx(), "2", true), CodeProductNotFound))
	assert.Equal(t, callsBefore, api.callCount())
	assert.Empty(t, c.DrainNotices())
}

func TestSuccessfulWritesArePublishedToAudit(t *testing.T) {
	audit := new(MockAuditPublisher)
	audit.On("PublishAudit", mock.Anything, mock.MatchedBy(func(e *entity.AuditEvent) bool {
		return e.Action == entity.AuditCreate && e.ProductID == "1" && e.Actor == "alice" && e.ProductName == "Widget"
	})).Return(nil).Once()
	audit.On("PublishAudit", mock.Anything, mock.MatchedBy(func(e *entity.AuditEvent) bool {
		return e.Action == entity.AuditDelete && e.ProductID == "1" && e.ProductName == "Widget"
	})).Return(errors.New("broker down")).Once()

	c := NewConsole(newFakeAPI(), audit)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))
	require.NoError(t, c.Submit(actorCtx()))

	// a broker failure does not fail the delete
	require.NoError(t, c.Delete(actorCtx(), "1", true))

	audit.AssertExpectations(t)
}

func TestFailedWritesAreNotAudited(t *testing.T) {
	audit := new(MockAuditPublisher)
	api := newFakeAPI()
	api.failOn("create_product", errors.New("boom"))

	c := NewConsole(api, audit)
	require.NoError(t, c.OpenCreate())
	require.NoError(t, c.UpdateDraft(entity.ProductDraft{Name: "Widget", Status: entity.StatusDraft}))
	require.Error(t, c.Submit(actorCtx()))

	audit.AssertNotCalled(t, "PublishAudit", mock.Anything, mock.Anything)
}

func TestDrainNoticesEmptiesQueue(t *testing.T) {
	c := NewConsole(newFakeAPI(), nil)
	c.Notify(NoticeError, "first")

	assert.Len(t, c.Snapshot().Notices, 1)
	assert.Len(t, c.DrainNotices(), 1)
	assert.Empty(t, c.DrainNotices())
}
