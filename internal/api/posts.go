package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/eduhub/eduhub-backend/internal/model"
)

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	posts := h.store.GetPosts(r.Context())

	if typ := r.URL.Query().Get("type"); typ != "" {
		if !model.ValidPostType(typ) {
			h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("unknown post type %q", typ))
			return
		}
		filtered := posts[:0]
		for _, p := range posts {
			if p.PostType == typ {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	// Like-status lookups fan out concurrently; each goroutine writes
	// its own index, so the feed keeps its newest-first order.
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

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}

	post := h.store.GetPost(r.Context(), id)
	if post == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}

	dto := model.PostWithUser{
		Post:          *post,
		User:          h.store.GetUser(r.Context(), post.UserID),
		LikesCount:    len(h.store.GetPostLikes(r.Context(), post.ID)),
		CommentsCount: len(h.store.GetPostComments(r.Context(), post.ID)),
		Liked:         h.store.GetLike(r.Context(), post.ID, sess.UserID) != nil,
	}
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "content is required")
		return
	}
	if req.PostType != "" && !model.ValidPostType(req.PostType) {
		h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("unknown post type %q", req.PostType))
		return
	}

	post, err := h.store.CreatePost(r.Context(), model.Post{
		UserID:    sess.UserID,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		PostType:  req.PostType,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}

	post := h.store.GetPost(r.Context(), id)
	if post == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}
	if post.UserID != sess.UserID {
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "not the post owner")
		return
	}

	var upd model.PostUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}
	if upd.PostType != nil && !model.ValidPostType(*upd.PostType) {
		h.writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("unknown post type %q", *upd.PostType))
		return
	}

	updated := h.store.UpdatePost(r.Context(), id, upd)
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}

	post := h.store.GetPost(r.Context(), id)
	if post == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}
	if post.UserID != sess.UserID {
		h.writeError(w, http.StatusForbidden, "FORBIDDEN", "not the post owner")
		return
	}

	h.store.DeletePost(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetPostComments(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}
	if h.store.GetPost(r.Context(), id) == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}

	comments := h.store.GetPostComments(r.Context(), id)
	dtos := make([]model.CommentWithUser, len(comments))
	for i, c := range comments {
		dtos[i] = model.CommentWithUser{
			Comment: c,
			User:    h.store.GetUser(r.Context(), c.UserID),
		}
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}
	if h.store.GetPost(r.Context(), id) == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "content is required")
		return
	}

	comment, err := h.store.CreateComment(r.Context(), model.Comment{
		PostID:  id,
		UserID:  sess.UserID,
		Content: req.Content,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, comment)
}

// ToggleLike flips the caller's like on a post. A first call likes,
// a second unlikes; the response always reports the resulting state.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	id, err := urlIntParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "post id must be an integer")
		return
	}
	if h.store.GetPost(r.Context(), id) == nil {
		h.writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found")
		return
	}

	liked := false
	if existing := h.store.GetLike(r.Context(), id, sess.UserID); existing != nil {
		h.store.DeleteLike(r.Context(), existing.ID)
	} else {
		if _, err := h.store.CreateLike(r.Context(), model.Like{PostID: id, UserID: sess.UserID}); err != nil {
			h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
			return
		}
		liked = true
	}

	h.writeJSON(w, http.StatusOK, LikeResponse{
		Liked:      liked,
		LikesCount: len(h.store.GetPostLikes(r.Context(), id)),
	})
}

func urlIntParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}
