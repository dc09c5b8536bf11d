package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/logger"
	"github.com/xavierca1/products-cms/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

var consoleTmpl = template.Must(template.New("console.html").Funcs(template.FuncMap{
	"datetime": func(t entity.Timestamp) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"date": func(t entity.Timestamp) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02")
	},
	"badge": func(s entity.Status) string {
		switch s {
		case entity.StatusPublished:
			return "badge-published"
		case entity.StatusArchived:
			return "badge-archived"
		default:
			return "badge-draft"
		}
	},
}).ParseFS(templateFS, "templates/console.html"))

type consolePage struct {
	State    usecase.State
	Notices  []usecase.Notice
	Mode     usecase.FormMode
	Statuses []entity.Status
	Confirm  *entity.Product
}

type ConsoleHandler struct {
	Store *usecase.ConsoleStore
}

func NewConsoleHandler(store *usecase.ConsoleStore) *ConsoleHandler {
	return &ConsoleHandler{Store: store}
}

// Routes mounts the console pages and form actions on r.
func (h *ConsoleHandler) Routes(r chi.Router, writes func(http.Handler) http.Handler) {
	r.Get("/", h.Index)
	r.Get("/api/console", h.State)
	r.Get("/products/{id}/delete", h.ConfirmDelete)

	r.Post("/tabs/{tab}", h.SwitchTab)

	r.Group(func(r chi.Router) {
		if writes != nil {
			r.Use(writes)
		}
		r.Post("/refresh", h.Refresh)
		r.Post("/products/new", h.NewProduct)
		r.Post("/products/{id}/edit", h.EditProduct)
		r.Post("/products/{id}/delete", h.DeleteProduct)
		r.Post("/form/cancel", h.CancelForm)
		r.Post("/form/submit", h.SubmitForm)
	})
}

func (h *ConsoleHandler) console(r *http.Request) *usecase.Console {
	c, _ := h.Store.Get(SessionIDFromContext(r.Context()))
	return c
}

// apiContext keeps the request's values (actor, logger) but not its
// cancellation: a load or save runs to completion even when the browser
// gives up on the response. The product API client timeout bounds it.
func apiContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// Index renders the console. The first visit of a session loads both
// collections before rendering.
func (h *ConsoleHandler) Index(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	if !c.Loaded() {
		_ = c.Load(apiContext(r))
	}
	h.render(w, r, c, nil)
}

func (h *ConsoleHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console(r).Snapshot())
}

func (h *ConsoleHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_ = h.console(r).Load(apiContext(r))
	backToConsole(w, r)
}

func (h *ConsoleHandler) SwitchTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := usecase.ParseTab(chi.URLParam(r, "tab"))
	if !ok {
		http.Error(w, "unknown tab", http.StatusBadRequest)
		return
	}
	c := h.console(r)
	h.finish(w, r, c, c.SwitchTab(tab))
}

func (h *ConsoleHandler) NewProduct(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	h.finish(w, r, c, c.OpenCreate())
}

func (h *ConsoleHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	h.finish(w, r, c, c.EditByID(entity.ProductID(chi.URLParam(r, "id"))))
}

func (h *ConsoleHandler) CancelForm(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	h.finish(w, r, c, c.ResetForm())
}

func (h *ConsoleHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	c := h.console(r)
	err := c.UpdateDraft(entity.ProductDraft{
		Name:        r.PostForm.Get("product_name"),
		Description: r.PostForm.Get("product_desc"),
		Status:      entity.Status(r.PostForm.Get("status")),
	})
	if err != nil {
		h.finish(w, r, c, err)
		return
	}
	h.finish(w, r, c, c.Submit(apiContext(r)))
}

// ConfirmDelete renders the console with the destructive-action prompt.
func (h *ConsoleHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	id := entity.ProductID(chi.URLParam(r, "id"))
	for _, p := range c.Snapshot().Products {
		if p.ID == id {
			target := p
			h.render(w, r, c, &target)
			return
		}
	}
	c.Notify(usecase.NoticeError, "Product not found")
	backToConsole(w, r)
}

func (h *ConsoleHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c := h.console(r)
	confirmed := r.FormValue("confirm") == "yes"
	err := c.Delete(apiContext(r), entity.ProductID(chi.URLParam(r, "id")), confirmed)
	if usecase.HasCode(err, usecase.CodeDeleteNotConfirmed) {
		backToConsole(w, r)
		return
	}
	h.finish(w, r, c, err)
}

// finish turns the outcome of a console operation into a redirect. Guard
// errors become notices; API failures were already reported by the console.
func (h *ConsoleHandler) finish(w http.ResponseWriter, r *http.Request, c *usecase.Console, err error) {
	if err != nil {
		if usecase.IsDomainError(err) {
			c.Notify(usecase.NoticeError, capitalize(err.Error()))
		}
		logger.FromContext(r.Context()).Debug("console operation failed", zap.Error(err))
	}
	backToConsole(w, r)
}

func (h *ConsoleHandler) render(w http.ResponseWriter, r *http.Request, c *usecase.Console, confirm *entity.Product) {
	state := c.Snapshot()
	page := consolePage{
		State:    state,
		Notices:  c.DrainNotices(),
		Mode:     state.FormMode(),
		Statuses: entity.Statuses,
		Confirm:  confirm,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := consoleTmpl.Execute(w, page); err != nil {
		logger.FromContext(r.Context()).Error("❌ Error rendering console", zap.Error(err))
	}
}

func backToConsole(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + s[size:]
}
