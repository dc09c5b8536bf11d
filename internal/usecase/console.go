package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/infra/integration/productapi"
	"github.com/xavierca1/products-cms/internal/logger"
)

type Tab string

const (
	TabCMS  Tab = "cms"
	TabLive Tab = "live"
)

func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabCMS, TabLive:
		return Tab(s), true
	}
	return "", false
}

type FormMode string

const (
	FormClosed FormMode = "closed"
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message the user must see on the next render.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

const (
	msgFetchProductsFailed = "Error fetching products. Make sure the backend server is running."
	msgSaveFailed          = "Something went wrong"
	msgSaveUnreachable     = "Error saving product. Please check your connection."
	msgDeleteFailed        = "Failed to delete product"
	msgDeleteUnreachable   = "Error deleting product. Please check your connection."
	msgCreated             = "Product created successfully!"
	msgUpdated             = "Product updated successfully!"
	msgDeleted             = "Product deleted successfully!"
)

// State is a point-in-time copy of a console, safe to render.
type State struct {
	Products      []entity.Product    `json:"products"`
	LiveProducts  []entity.Product    `json:"live_products"`
	Loading       bool                `json:"loading"`
	Loaded        bool                `json:"loaded"`
	ActiveTab     Tab                 `json:"active_tab"`
	FormVisible   bool                `json:"form_visible"`
	EditingTarget entity.ProductID    `json:"editing_target,omitempty"`
	Draft         entity.ProductDraft `json:"draft"`
	Submitting    bool                `json:"submitting"`
	CanSubmit     bool                `json:"can_submit"`
	Notices       []Notice            `json:"notices,omitempty"`
}

func (s State) FormMode() FormMode {
	switch {
	case !s.FormVisible:
		return FormClosed
	case s.EditingTarget != "":
		return FormEdit
	default:
		return FormCreate
	}
}

// Console holds what one admin sees: both product collections, the active
// tab and the add/edit form. Writes go straight to the product API and are
// followed by a full reload; the cached collections are never patched
// locally.
type Console struct {
	api   ProductAPI
	audit AuditPublisher

	mu            sync.Mutex
	products      []entity.Product
	liveProducts  []entity.Product
	loads         int
	loaded        bool
	activeTab     Tab
	formVisible   bool
	editingTarget entity.ProductID
	draft         entity.ProductDraft
	submitting    bool
	notices       []Notice
}

func NewConsole(api ProductAPI, audit AuditPublisher) *Console {
	if audit == nil {
		audit = noopAuditPublisher{}
	}
	return &Console{
		api:          api,
		audit:        audit,
		products:     []entity.Product{},
		liveProducts: []entity.Product{},
		activeTab:    TabCMS,
		draft:        entity.DefaultDraft(),
	}
}

// Load fetches both collections concurrently and waits for both. A failed
// products fetch is reported to the user and returned; a failed live fetch
// is only logged. Either way the previous list stays in place.
func (c *Console) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()

	var (
		wg          sync.WaitGroup
		productsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		productsErr = c.fetchProducts(ctx)
	}()
	go func() {
		defer wg.Done()
		c.fetchLiveProducts(ctx)
	}()
	wg.Wait()

	c.mu.Lock()
	c.loads--
	c.loaded = true
	c.mu.Unlock()

	return productsErr
}

func (c *Console) fetchProducts(ctx context.Context) error {
	products, err := c.api.ListProducts(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("❌ Error fetching products", zap.Error(err))
		c.notify(NoticeError, msgFetchProductsFailed)
		return &TechnicalError{Code: "fetch_products", Message: "fetch products", Err: err}
	}
	if products == nil {
		products = []entity.Product{}
	}

	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return nil
}

func (c *Console) fetchLiveProducts(ctx context.Context) {
	products, err := c.api.ListLiveProducts(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("❌ Error fetching live products", zap.Error(err))
		return
	}
	if products == nil {
		products = []entity.Product{}
	}

	c.mu.Lock()
	c.liveProducts = products
	c.mu.Unlock()
}

// SwitchTab only changes what is displayed.
func (c *Console) SwitchTab(tab Tab) error {
	if _, ok := ParseTab(string(tab)); !ok {
		return &DomainError{Code: CodeInvalidTab, Message: "unknown tab " + string(tab)}
	}
	c.mu.Lock()
	c.activeTab = tab
	c.mu.Unlock()
	return nil
}

// OpenCreate opens an empty form. A form that is already open is left as is.
func (c *Console) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitInFlight()
	}
	if c.formVisible {
		return nil
	}
	c.draft = entity.DefaultDraft()
	c.editingTarget = ""
	c.formVisible = true
	return nil
}

// Edit opens the form on a copy of p's editable fields.
func (c *Console) Edit(p entity.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitInFlight()
	}
	c.draft = entity.DraftFromProduct(p)
	c.editingTarget = p.ID
	c.formVisible = true
	return nil
}

// EditByID looks id up in the cached product list and edits it.
func (c *Console) EditByID(id entity.ProductID) error {
	p, ok := c.findProduct(id)
	if !ok {
		return &DomainError{Code: CodeProductNotFound, Message: "product " + id.String() + " not found"}
	}
	return c.Edit(p)
}

// UpdateDraft records what the user typed into the open form. The draft
// being saved is never replaced.
func (c *Console) UpdateDraft(d entity.ProductDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitInFlight()
	}
	if !c.formVisible {
		return &DomainError{Code: CodeFormClosed, Message: "no product form is open"}
	}
	c.draft = d
	return nil
}

// ResetForm discards the draft and closes the form. It is refused while a
// save is in flight.
func (c *Console) ResetForm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return errSubmitInFlight()
	}
	c.resetFormLocked()
	return nil
}

func (c *Console) resetFormLocked() {
	c.draft = entity.DefaultDraft()
	c.editingTarget = ""
	c.formVisible = false
}

// CanSubmit reports whether the save control is enabled.
func (c *Console) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Console) canSubmitLocked() bool {
	return c.formVisible && !c.submitting && c.draft.HasName()
}

// Submit creates or updates the product in the form, depending on whether
// an edit target is set. The actor comes from ctx. On success both
// collections are reloaded and the form is closed; on failure the form
// stays open with the draft untouched.
func (c *Console) Submit(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return &DomainError{Code: CodeMissingActor, Message: "no authenticated actor"}
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return errSubmitInFlight()
	}
	if !c.canSubmitLocked() {
		c.mu.Unlock()
		return &DomainError{Code: CodeSubmitDisabled, Message: "product name is required"}
	}
	if errs := ValidateDraft(c.draft); len(errs) > 0 {
		c.mu.Unlock()
		return &DomainError{Code: CodeInvalidDraft, Message: joinValidationErrors(errs)}
	}
	draft := c.draft
	target := c.editingTarget
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	log := logger.FromContext(ctx)

	var (
		event *entity.AuditEvent
		okMsg string
	)
	if target != "" {
		if _, err := c.api.UpdateProduct(ctx, target, draft, actor); err != nil {
			log.Error("❌ Error saving product", zap.String("product_id", target.String()), zap.Error(err))
			c.notifyWriteFailure(err, msgSaveFailed, msgSaveUnreachable)
			return &TechnicalError{Code: "update_product", Message: "update product", Err: err}
		}
		event = entity.NewAuditEvent(entity.AuditUpdate, target, draft, actor)
		okMsg = msgUpdated
	} else {
		created, err := c.api.CreateProduct(ctx, draft, actor)
		if err != nil {
			log.Error("❌ Error saving product", zap.Error(err))
			c.notifyWriteFailure(err, msgSaveFailed, msgSaveUnreachable)
			return &TechnicalError{Code: "create_product", Message: "create product", Err: err}
		}
		var id entity.ProductID
		if created != nil {
			id = created.ID
		}
		event = entity.NewAuditEvent(entity.AuditCreate, id, draft, actor)
		okMsg = msgCreated
	}

	// Load reports its own failures.
	_ = c.Load(ctx)

	c.mu.Lock()
	c.resetFormLocked()
	c.mu.Unlock()
	c.notify(NoticeSuccess, okMsg)

	log.Info("✅ Product saved", zap.String("action", string(event.Action)), zap.String("actor", actor))
	c.publishAudit(ctx, event)
	return nil
}

// Delete removes a product once the user has confirmed it. Without
// confirmation nothing is sent.
func (c *Console) Delete(ctx context.Context, id entity.ProductID, confirmed bool) error {
	if !confirmed {
		return &DomainError{Code: CodeDeleteNotConfirmed, Message: "delete must be confirmed"}
	}
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return &DomainError{Code: CodeMissingActor, Message: "no authenticated actor"}
	}
	// Only products this session has been shown can be deleted.
	target, ok := c.findProduct(id)
	if !ok {
		return &DomainError{Code: CodeProductNotFound, Message: "product " + id.String() + " not found"}
	}

	log := logger.FromContext(ctx)
	if err := c.api.DeleteProduct(ctx, id, actor); err != nil {
		log.Error("❌ Error deleting product", zap.String("product_id", id.String()), zap.Error(err))
		c.notifyWriteFailure(err, msgDeleteFailed, msgDeleteUnreachable)
		return &TechnicalError{Code: "delete_product", Message: "delete product", Err: err}
	}

	_ = c.Load(ctx)
	c.notify(NoticeSuccess, msgDeleted)

	log.Info("🗑️ Product deleted", zap.String("product_id", id.String()), zap.String("actor", actor))
	c.publishAudit(ctx, entity.NewAuditEvent(entity.AuditDelete, id, entity.DraftFromProduct(target), actor))
	return nil
}

// Snapshot copies the current state. Pending notices are included but not
// consumed; see DrainNotices.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Products:      append([]entity.Product(nil), c.products...),
		LiveProducts:  append([]entity.Product(nil), c.liveProducts...),
		Loading:       c.loads > 0,
		Loaded:        c.loaded,
		ActiveTab:     c.activeTab,
		FormVisible:   c.formVisible,
		EditingTarget: c.editingTarget,
		Draft:         c.draft,
		Submitting:    c.submitting,
		CanSubmit:     c.canSubmitLocked(),
		Notices:       append([]Notice(nil), c.notices...),
	}
}

// DrainNotices returns the pending notices and forgets them.
func (c *Console) DrainNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	notices := c.notices
	c.notices = nil
	return notices
}

// Loaded reports whether at least one load has completed.
func (c *Console) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Busy reports whether a load or a save is still running.
func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting || c.loads > 0
}

func (c *Console) findProduct(id entity.ProductID) (entity.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Product{}, false
}

// Notify queues a notice for the next render.
func (c *Console) Notify(level NoticeLevel, msg string) {
	c.notify(level, msg)
}

func (c *Console) notify(level NoticeLevel, msg string) {
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Level: level, Message: msg})
	c.mu.Unlock()
}

// notifyWriteFailure shows the API's own message when it sent one.
func (c *Console) notifyWriteFailure(err error, rejected, unreachable string) {
	var apiErr *productapi.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = rejected
		}
		c.notify(NoticeError, msg)
		return
	}
	c.notify(NoticeError, unreachable)
}

// publishAudit never fails the write that triggered it.
func (c *Console) publishAudit(ctx context.Context, event *entity.AuditEvent) {
	if err := c.audit.PublishAudit(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("⚠️ Product saved but audit event not published",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func errSubmitInFlight() error {
	return &DomainError{Code: CodeSubmitInFlight, Message: "a save is already in progress"}
}
