package rest

import (
	"net/http"
	"strconv"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/service"
	apperrors "github.com/civikit/catalog/internal/errors"
)

// Routes registers the catalog API on a mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/{collection}", h.withCaller(h.handleList))
	mux.HandleFunc("POST /v1/{collection}", h.withCaller(h.handleCreate))
	mux.HandleFunc("OPTIONS /v1/{collection}", h.withCaller(h.handleDescribe))
	mux.HandleFunc("GET /v1/{collection}/identifier", h.withCaller(h.handlePreviewIdentifier))
	mux.HandleFunc("GET /v1/{collection}/{id}", h.withCaller(h.handleGet))
	mux.HandleFunc("PATCH /v1/{collection}/{id}", h.withCaller(h.handleUpdate))
	mux.HandleFunc("PUT /v1/{collection}/{id}", h.withCaller(h.handleUpdate))
	mux.HandleFunc("DELETE /v1/{collection}/{id}", h.withCaller(h.handleDelete))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	pageSize := 0
	if raw := query.Get("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
				"page_size must be an integer",
				map[string]string{"Field": "page_size"}))
			return
		}
	}

	page, err := h.catalog.List(r.Context(), service.ListRequest{
		Kind:      kind,
		PageSize:  pageSize,
		PageToken: query.Get("page_token"),
		Filter:    query.Get("filter"),
		Search:    query.Get("search"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":           page.Items,
		"next_page_token": page.NextPageToken,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.catalog.Get(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := decodeBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.catalog.Create(r.Context(), kind, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := decodeBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.catalog.Update(r.Context(), kind, id, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePreviewIdentifier(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parentID, err := parentIDFromQuery(r, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	preview, err := h.catalog.PreviewIdentifier(r.Context(), kind, parentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"identifier": preview})
}

func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	described, err := h.catalog.Describe(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"actions": described,
	})
}

func kindAndID(r *http.Request) (domain.Kind, int64, error) {
	kind, err := kindFromRequest(r)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
			"record id must be a positive integer",
			map[string]string{"Field": "id"})
	}
	return kind, id, nil
}

// parentIDFromQuery reads the parent reference for identifier previews. Life
// situations allocate directly under the organization and take no parent.
func parentIDFromQuery(r *http.Request, kind domain.Kind) (int64, error) {
	var field string
	switch kind {
	case domain.KindLifeSituation:
		return 0, nil
	case domain.KindService:
		field = "lifesituation"
	case domain.KindProcess:
		field = "service"
	default:
		return 0, nil
	}
	raw := r.URL.Query().Get(field)
	if raw == "" {
		return 0, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"parent reference is required",
			map[string]string{"Field": field})
	}
	parentID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parentID <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
			"parent reference must be a positive integer",
			map[string]string{"Field": field})
	}
	return parentID, nil
}
