package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oziev02/CommentThread/internal/domain"
	"github.com/oziev02/CommentThread/internal/usecase"
)

// ThreadHandler обрабатывает HTTP запросы слоя представления к ветке комментариев
type ThreadHandler struct {
	thread    *usecase.Thread
	presenter *FocusPresenter
	logger    *slog.Logger
}

// NewThreadHandler создает новый экземпляр ThreadHandler
func NewThreadHandler(thread *usecase.Thread, presenter *FocusPresenter, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{thread: thread, presenter: presenter, logger: logger}
}

// SortRequest DTO для смены сортировки
type SortRequest struct {
	Order domain.SortOrder `json:"order"`
}

// PostRequest DTO для смены поста
type PostRequest struct {
	PostID string `json:"postId"`
}

// SubmitRequest DTO для отправки комментария или ответа
type SubmitRequest struct {
	ReplyTo string `json:"replyTo,omitempty"`
	Text    string `json:"text"`
}

// TextRequest DTO с текстом
type TextRequest struct {
	Text string `json:"text"`
}

// VoteRequest DTO для оценки
type VoteRequest struct {
	Direction domain.VoteDirection `json:"direction"`
}

// ToggleResponse DTO с состоянием раскрытия ответов
type ToggleResponse struct {
	Expanded bool                  `json:"expanded"`
	Thread   domain.ThreadSnapshot `json:"thread"`
}

// ReplyResponse DTO с открытым полем ответа
type ReplyResponse struct {
	RootID string                `json:"rootId"`
	Thread domain.ThreadSnapshot `json:"thread"`
}

// FocusResponse DTO с текущей целью прокрутки
type FocusResponse struct {
	Active bool                 `json:"active"`
	Target *domain.RevealTarget `json:"target,omitempty"`
}

// Get обрабатывает GET /thread
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.thread.Snapshot(r.Context()))
}

// NextPage обрабатывает POST /thread/page
func (h *ThreadHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	err := h.thread.FetchPage(r.Context())
	if err != nil && !errors.Is(err, domain.ErrFetchInFlight) && !errors.Is(err, domain.ErrNoMorePages) {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// SetSort обрабатывает PUT /thread/sort
func (h *ThreadHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.thread.SetSortOrder(r.Context(), req.Order); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// SetPost обрабатывает PUT /thread/post
func (h *ThreadHandler) SetPost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PostID == "" {
		http.Error(w, "postId is required", http.StatusBadRequest)
		return
	}

	if err := h.thread.SetPost(r.Context(), req.PostID); err != nil {
		h.writeError(w, err)
		return
	}
	// ветка еще не смонтирована, если пост не был задан при старте
	if err := h.thread.Mount(r.Context(), nil); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// LoadReplies обрабатывает POST /thread/replies/{id}
func (h *ThreadHandler) LoadReplies(w http.ResponseWriter, r *http.Request) {
	if err := h.thread.LoadReplies(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// ToggleReplies обрабатывает POST /thread/replies/{id}/toggle
func (h *ThreadHandler) ToggleReplies(w http.ResponseWriter, r *http.Request) {
	expanded, err := h.thread.ToggleCollapse(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Expanded: expanded, Thread: h.thread.Snapshot(r.Context())})
}

// Submit обрабатывает POST /thread/comments
func (h *ThreadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.thread.SubmitComment(r.Context(), req.ReplyTo, req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// Edit обрабатывает PUT /thread/comments/{id}
func (h *ThreadHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.thread.EditComment(r.Context(), r.PathValue("id"), req.Text); err != nil {
		h.writeError(w, err)
		return
	}
	// изменение придет событием канала
	w.WriteHeader(http.StatusAccepted)
}

// Remove обрабатывает DELETE /thread/comments/{id}
func (h *ThreadHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.thread.RemoveComment(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Vote обрабатывает POST /thread/comments/{id}/votes
func (h *ThreadHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.thread.Vote(r.Context(), r.PathValue("id"), req.Direction); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// BeginReply обрабатывает POST /thread/comments/{id}/reply
func (h *ThreadHandler) BeginReply(w http.ResponseWriter, r *http.Request) {
	root, err := h.thread.BeginReply(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReplyResponse{RootID: root, Thread: h.thread.Snapshot(r.Context())})
}

// SetReplyDraft обрабатывает PUT /thread/drafts/reply/{id}
func (h *ThreadHandler) SetReplyDraft(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.thread.SetReplyDraft(r.PathValue("id"), req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// CancelReply обрабатывает DELETE /thread/drafts/reply/{id}
func (h *ThreadHandler) CancelReply(w http.ResponseWriter, r *http.Request) {
	h.thread.CancelReply(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit обрабатывает POST /thread/comments/{id}/edit
func (h *ThreadHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	if err := h.thread.BeginEdit(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// CancelEdit обрабатывает DELETE /thread/comments/{id}/edit
func (h *ThreadHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.thread.CancelEdit(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// SetEditDraft обрабатывает PUT /thread/drafts/edit/{id}
func (h *ThreadHandler) SetEditDraft(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.thread.SetEditDraft(r.PathValue("id"), req.Text); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetComposerDraft обрабатывает PUT /thread/drafts/composer
func (h *ThreadHandler) SetComposerDraft(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.thread.SetComposerDraft(req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// DeepLink обрабатывает POST /thread/deeplink
func (h *ThreadHandler) DeepLink(w http.ResponseWriter, r *http.Request) {
	var link domain.DeepLink
	if !decodeJSON(w, r, &link) {
		return
	}
	if err := h.thread.ResolveDeepLink(r.Context(), link); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// Focus обрабатывает GET /thread/focus
func (h *ThreadHandler) Focus(w http.ResponseWriter, r *http.Request) {
	target, ok := h.presenter.Current()
	if !ok {
		writeJSON(w, http.StatusOK, FocusResponse{})
		return
	}
	writeJSON(w, http.StatusOK, FocusResponse{Active: true, Target: &target})
}

func (h *ThreadHandler) writeError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err)
}

// writeError сопоставляет доменные ошибки HTTP статусам
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrInvalidSort):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoIdentity):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrUnknownComment),
		errors.Is(err, domain.ErrCommentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotMounted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error("request failed", "error", err)
		http.Error(w, "upstream service error", http.StatusBadGateway)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
