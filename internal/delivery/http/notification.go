package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oziev02/CommentThread/internal/domain"
	"github.com/oziev02/CommentThread/internal/usecase"
)

// NotificationHandler обрабатывает HTTP запросы к уведомлениям
type NotificationHandler struct {
	inbox  *usecase.NotificationInbox
	thread *usecase.Thread
	logger *slog.Logger
}

// NewNotificationHandler создает новый экземпляр NotificationHandler
func NewNotificationHandler(inbox *usecase.NotificationInbox, thread *usecase.Thread, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, thread: thread, logger: logger}
}

// NotificationResponse DTO уведомления со ссылкой на комментарий
type NotificationResponse struct {
	domain.Notification
	Link *domain.DeepLink `json:"link,omitempty"`
}

// NotificationsListResponse DTO для списка уведомлений
type NotificationsListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// ViewingRequest DTO для признака открытого списка
type ViewingRequest struct {
	Viewing bool `json:"viewing"`
}

// List обрабатывает GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.inbox.Notifications()
	response := NotificationsListResponse{
		Notifications: make([]NotificationResponse, 0, len(items)),
		UnreadCount:   h.inbox.UnreadCount(),
	}
	for _, n := range items {
		item := NotificationResponse{Notification: n}
		if link, ok := n.DeepLink(); ok {
			item.Link = &link
		}
		response.Notifications = append(response.Notifications, item)
	}
	writeJSON(w, http.StatusOK, response)
}

// MarkAllAsRead обрабатывает POST /notifications/read
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.inbox.MarkAllAsRead(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.List(w, r)
}

// Delete обрабатывает DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inbox.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetViewing обрабатывает PUT /notifications/viewing
func (h *NotificationHandler) SetViewing(w http.ResponseWriter, r *http.Request) {
	var req ViewingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.inbox.SetViewing(req.Viewing)
	w.WriteHeader(http.StatusNoContent)
}

// Open обрабатывает POST /notifications/{id}/open: переход по ссылке уведомления в ветке
func (h *NotificationHandler) Open(w http.ResponseWriter, r *http.Request) {
	n, ok := h.inbox.Find(r.PathValue("id"))
	if !ok {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	link, ok := n.DeepLink()
	if !ok {
		http.Error(w, "notification does not point to a comment", http.StatusUnprocessableEntity)
		return
	}

	if err := h.thread.ResolveDeepLink(r.Context(), link); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.thread.Snapshot(r.Context()))
}

// Publisher доставляет событие подписчикам комнаты
type Publisher interface {
	Publish(room domain.Room, event string, payload any) (int, error)
}

// EventRequest DTO события канала реального времени
type EventRequest struct {
	Room    domain.Room     `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EventResponse DTO с числом получателей
type EventResponse struct {
	Delivered int `json:"delivered"`
}

// EventHandler принимает события от внешнего канала и передает их в хаб
type EventHandler struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewEventHandler создает новый экземпляр EventHandler
func NewEventHandler(publisher Publisher, logger *slog.Logger) *EventHandler {
	return &EventHandler{publisher: publisher, logger: logger}
}

// Publish обрабатывает POST /events
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Event == "" || req.Room.ID == "" {
		http.Error(w, "room and event are required", http.StatusBadRequest)
		return
	}

	delivered, err := h.publisher.Publish(req.Room, req.Event, req.Payload)
	if err != nil {
		h.logger.Warn("event dropped", "room", req.Room.String(), "event", req.Event, "error", err)
		writeJSON(w, http.StatusAccepted, EventResponse{})
		return
	}
	writeJSON(w, http.StatusAccepted, EventResponse{Delivered: delivered})
}
