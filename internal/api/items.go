package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/listing"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/posting"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Gateway   gateway.Gateway
	Posting   *posting.Workflow
	MaxUpload int64
}

type listResponse struct {
	Query  string         `json:"query"`
	Scope  string         `json:"scope"`
	Counts map[string]int `json:"counts"`
	listing.Views
}

// List handles GET /api/items?q=&scope=all|mine.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	scopeName := r.URL.Query().Get("scope")
	scope, err := listing.ParseScope(scopeName)
	if err != nil {
		gatewayError(w, err)
		return
	}
	if scopeName == "" {
		scopeName = "all"
	}

	views, err := listing.Load(r.Context(), h.Gateway, CallerFrom(r.Context()), scope, query)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		gatewayError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, listResponse{
		Query:  query,
		Scope:  scopeName,
		Counts: views.Counts(),
		Views:  views,
	})
}

// Create handles POST /api/items. The body is a multipart form with the
// posting fields and an optional "image" file.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	form := posting.Form{
		Type:        r.FormValue("type"),
		Name:        r.FormValue("item_name"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
	}

	image, err := posting.ImageFromRequest(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := CallerFrom(r.Context())
	id, err := h.Posting.Submit(r.Context(), caller, form, image)
	if err != nil {
		var orphan *posting.OrphanError
		if errors.As(err, &orphan) {
			slog.Warn("image left without item", "url", orphan.ImageURL, "error", orphan.Err)
		}
		gatewayError(w, err)
		return
	}

	slog.Info("item posted", "user", caller.UserID, "item", id, "type", form.Type)
	jsonResponse(w, http.StatusCreated, map[string]string{"id": id})
}

// Resolve handles PUT /api/items/{id}/resolve.
func (h *ItemsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	item, err := lifecycle.Lookup(r.Context(), h.Gateway, caller, r.PathValue("id"))
	if err != nil {
		gatewayError(w, err)
		return
	}

	resolved, err := lifecycle.MarkResolved(r.Context(), h.Gateway, caller, item)
	if err != nil {
		gatewayError(w, err)
		return
	}

	slog.Info("item resolved", "user", caller.UserID, "item", item.ID)
	jsonResponse(w, http.StatusOK, resolved)
}

// Delete handles DELETE /api/items/{id}?confirm=true.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	caller := CallerFrom(r.Context())
	item := model.Item{ID: r.PathValue("id")}

	if err := lifecycle.DeleteRecord(r.Context(), h.Gateway, caller, item, confirmed); err != nil {
		gatewayError(w, err)
		return
	}

	slog.Info("item deleted", "user", caller.UserID, "item", item.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
