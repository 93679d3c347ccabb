package http

import (
	"log/slog"
	"net/http"

	"github.com/oziev02/CommentThread/internal/usecase"
)

// NewRouter собирает маршруты view-model API ветки, уведомлений и моста событий
func NewRouter(thread *usecase.Thread, inbox *usecase.NotificationInbox, presenter *FocusPresenter, publisher Publisher, logger *slog.Logger) *http.ServeMux {
	threads := NewThreadHandler(thread, presenter, logger)
	notifications := NewNotificationHandler(inbox, thread, logger)
	events := NewEventHandler(publisher, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /thread", threads.Get)
	mux.HandleFunc("GET /thread/focus", threads.Focus)
	mux.HandleFunc("POST /thread/page", threads.NextPage)
	mux.HandleFunc("PUT /thread/sort", threads.SetSort)
	mux.HandleFunc("PUT /thread/post", threads.SetPost)
	mux.HandleFunc("POST /thread/deeplink", threads.DeepLink)

	mux.HandleFunc("POST /thread/replies/{id}", threads.LoadReplies)
	mux.HandleFunc("POST /thread/replies/{id}/toggle", threads.ToggleReplies)

	mux.HandleFunc("POST /thread/comments", threads.Submit)
	mux.HandleFunc("PUT /thread/comments/{id}", threads.Edit)
	mux.HandleFunc("DELETE /thread/comments/{id}", threads.Remove)
	mux.HandleFunc("POST /thread/comments/{id}/votes", threads.Vote)
	mux.HandleFunc("POST /thread/comments/{id}/reply", threads.BeginReply)
	mux.HandleFunc("POST /thread/comments/{id}/edit", threads.BeginEdit)
	mux.HandleFunc("DELETE /thread/comments/{id}/edit", threads.CancelEdit)

	mux.HandleFunc("PUT /thread/drafts/composer", threads.SetComposerDraft)
	mux.HandleFunc("PUT /thread/drafts/reply/{id}", threads.SetReplyDraft)
	mux.HandleFunc("DELETE /thread/drafts/reply/{id}", threads.CancelReply)
	mux.HandleFunc("PUT /thread/drafts/edit/{id}", threads.SetEditDraft)

	mux.HandleFunc("GET /notifications", notifications.List)
	mux.HandleFunc("POST /notifications/read", notifications.MarkAllAsRead)
	mux.HandleFunc("PUT /notifications/viewing", notifications.SetViewing)
	mux.HandleFunc("POST /notifications/{id}/open", notifications.Open)
	mux.HandleFunc("DELETE /notifications/{id}", notifications.Delete)

	mux.HandleFunc("POST /events", events.Publish)

	return mux
}
