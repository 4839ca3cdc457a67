package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/api"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/guard"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/session"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httputil"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// --- Request / response types ---

// StatusRequest is the body of PATCH /admin/{resource}/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
}

// SessionView is what GET /admin/session reveals about the operator.
// Tokens never leave the console.
type SessionView struct {
	Identity        *session.Identity `json:"identity"`
	DisplayName     string            `json:"displayName"`
	AccessExpiresAt *time.Time        `json:"accessExpiresAt,omitempty"`
	Collections     []string          `json:"collections"`
}

type shippingCostsRequest struct {
	Shipping []api.ShippingCost `json:"shipping"`
}

// client builds the operator's typed backend client. Only called behind
// RequireAdmin.
func (h *Handler) client(r *http.Request) *api.Client {
	op, _ := guard.FromContext(r.Context())
	return api.New(h.clients.Private(op.Session), h.sanitizer)
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (api.Collection, bool) {
	name := chi.URLParam(r, "resource")
	col, ok := h.client(r).Collection(name)
	if !ok {
		h.writeError(w, r, apperrors.NotFound("collection", name))
		return nil, false
	}
	return col, true
}

// --- Handlers ---

// Dashboard handles GET /admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.client(r).Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, d)
}

// Session handles GET /admin/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	op, _ := guard.FromContext(r.Context())
	view := SessionView{
		Identity:    op.State.Identity,
		DisplayName: op.State.Identity.DisplayName(),
		Collections: h.client(r).CollectionNames(),
	}
	if exp, ok := op.State.Tokens.AccessExpiry(); ok {
		view.AccessExpiresAt = &exp
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// List handles GET /admin/{resource}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	params, err := api.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := col.ListAny(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// Get handles GET /admin/{resource}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	item, err := col.GetAny(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

// Create handles POST /admin/{resource}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := col.CreateJSON(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  col.Spec().Name,
		SubjectID: subjectID(item),
		Action:    audit.ActionCreated,
	})
	httputil.WriteData(w, http.StatusCreated, item)
}

// Update handles PUT /admin/{resource}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := col.UpdateJSON(r.Context(), id, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  col.Spec().Name,
		SubjectID: id,
		Action:    audit.ActionUpdated,
	})
	httputil.WriteData(w, http.StatusOK, item)
}

// SetStatus handles PATCH /admin/{resource}/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := col.SetStatusAny(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  col.Spec().Name,
		SubjectID: id,
		Action:    audit.ActionStatusChanged,
		Data:      map[string]string{"status": req.Status},
	})
	httputil.WriteData(w, http.StatusOK, item)
}

// Delete handles DELETE /admin/{resource}/{id}. The request must carry
// confirm=true; nothing reaches the backend otherwise.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("confirm") != "true" {
		h.writeError(w, r, apperrors.ConfirmationRequired("deleting "+col.Spec().Name+"/"+id))
		return
	}

	if err := col.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  col.Spec().Name,
		SubjectID: id,
		Action:    audit.ActionDeleted,
	})
	httputil.WriteMessage(w, http.StatusOK, "deleted")
}

// ReplaceAll handles PUT /admin/{resource}. Only shipping costs are
// replaced in bulk.
func (h *Handler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")
	if name != "shipping-costs" {
		h.writeError(w, r, &apperrors.AppError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: name + " cannot be replaced in bulk",
			Status:  http.StatusMethodNotAllowed,
		})
		return
	}

	var req shippingCostsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	costs, err := h.client(r).ReplaceShippingCosts(r.Context(), req.Shipping)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource: name,
		Action:   audit.ActionUpdated,
		Data:     map[string]int{"count": len(costs)},
	})
	httputil.WriteData(w, http.StatusOK, costs)
}

// GetSiteSettings handles GET /admin/settings/site.
func (h *Handler) GetSiteSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.client(r).SiteSettings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, s)
}

// UpdateSiteSettings handles PUT /admin/settings/site.
func (h *Handler) UpdateSiteSettings(w http.ResponseWriter, r *http.Request) {
	var req api.SiteSettings
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.client(r).UpdateSiteSettings(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  "settings",
		SubjectID: "site",
		Action:    audit.ActionUpdated,
	})
	httputil.WriteData(w, http.StatusOK, s)
}
