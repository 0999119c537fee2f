package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/eduhub/eduhub-backend/internal/model"
)

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "user id must be an integer")
		return
	}

	user := h.store.GetUser(r.Context(), id)
	if user == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "user id must be an integer")
		return
	}
	if h.store.GetUser(r.Context(), id) == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}

	posts := h.store.GetUserPosts(r.Context(), id)

	var wg sync.WaitGroup
	for i := range posts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			posts[i].Liked = h.store.GetLike(r.Context(), posts[i].ID, sess.UserID) != nil
		}(i)
	}
	wg.Wait()

	if posts == nil {
		posts = []model.PostWithUser{}
	}
	h.writeJSON(w, http.StatusOK, posts)
}

// UpdateMyProfile shallow-merges the supplied fields onto the caller's
// record. Email and role are not updatable.
func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var upd model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}

	user := h.store.UpdateUser(r.Context(), sess.UserID, upd)
	if user == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user no longer exists")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}
