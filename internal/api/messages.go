package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/eduhub/eduhub-backend/internal/model"
)

// ListConversations groups the caller's messages by partner and
// returns one summary per partner, most recently active first.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	msgs := h.store.GetUserMessages(r.Context(), sess.UserID)

	byPartner := make(map[int]*model.ConversationSummary)
	for i := range msgs {
		m := msgs[i]
		partnerID := m.SenderID
		if partnerID == sess.UserID {
			partnerID = m.ReceiverID
		}

		summary, ok := byPartner[partnerID]
		if !ok {
			summary = &model.ConversationSummary{PartnerID: partnerID}
			byPartner[partnerID] = summary
		}
		if m.ReceiverID == sess.UserID && !m.IsRead {
			summary.UnreadCount++
		}
		if summary.LastMessage == nil || m.CreatedAt.After(summary.LastMessage.CreatedAt) {
			msg := m
			summary.LastMessage = &msg
		}
	}

	summaries := make([]model.ConversationSummary, 0, len(byPartner))
	for _, s := range byPartner {
		summaries = append(summaries, *s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})

	// Partner profiles fan out concurrently; indexed writes keep the
	// list in its recency order.
	var wg sync.WaitGroup
	for i := range summaries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summaries[i].Partner = h.store.GetUser(r.Context(), summaries[i].PartnerID)
		}(i)
	}
	wg.Wait()

	h.writeJSON(w, http.StatusOK, summaries)
}

// GetConversation returns the full exchange with one partner, oldest
// first, and marks the partner's messages read as a side effect. The
// unread badge clears the moment the thread is opened.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	partnerID, err := urlIntParam(r, "partnerId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "partner id must be an integer")
		return
	}
	if h.store.GetUser(r.Context(), partnerID) == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}

	msgs := h.store.GetConversation(r.Context(), sess.UserID, partnerID)
	for i := range msgs {
		if msgs[i].ReceiverID == sess.UserID && !msgs[i].IsRead {
			if updated := h.store.MarkMessageAsRead(r.Context(), msgs[i].ID); updated != nil {
				msgs[i] = *updated
			}
		}
	}

	if msgs == nil {
		msgs = []model.Message{}
	}
	h.writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	receiverID, err := urlIntParam(r, "receiverId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ID", "receiver id must be an integer")
		return
	}
	if h.store.GetUser(r.Context(), receiverID) == nil {
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "receiver not found")
		return
	}
	if receiverID == sess.UserID {
		h.writeError(w, http.StatusBadRequest, "INVALID_RECEIVER", "cannot message yourself")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "content is required")
		return
	}

	msg, err := h.store.CreateMessage(r.Context(), model.Message{
		SenderID:   sess.UserID,
		ReceiverID: receiverID,
		Content:    req.Content,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	h.wsHub.NotifyMessage(msg)
	h.metrics.RecordMessageSent(r.Context())

	h.writeJSON(w, http.StatusCreated, msg)
}
