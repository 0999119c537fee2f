package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eduhub/eduhub-backend/internal/model"
)

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	var resources []model.Resource
	if typ := r.URL.Query().Get("type"); typ != "" {
		if !model.ValidResourceType(typ) {
			h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("unknown resource type %q", typ))
			return
		}
		resources = h.store.GetResourcesByType(r.Context(), typ)
	} else {
		resources = h.store.GetResources(r.Context())
	}

	dtos := make([]model.ResourceWithUser, len(resources))
	for i, res := range resources {
		dtos[i] = model.ResourceWithUser{
			Resource: res,
			User:     h.store.GetUser(r.Context(), res.UserID),
		}
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}
	if req.Title == "" || req.URL == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "title and url are required")
		return
	}
	if !model.ValidResourceType(req.Type) {
		h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("unknown resource type %q", req.Type))
		return
	}

	resource, err := h.store.CreateResource(r.Context(), model.Resource{
		UserID:      sess.UserID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		URL:         req.URL,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, resource)
}

func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "resource id must be an integer")
		return
	}

	resource := h.store.GetResource(r.Context(), id)
	if resource == nil {
		h.writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "resource not found")
		return
	}
	if resource.UserID != sess.UserID {
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "not the resource owner")
		return
	}

	h.store.DeleteResource(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}
