package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oziev02/CommentThread/internal/domain"
	"github.com/oziev02/CommentThread/internal/infrastructure/identity"
	"github.com/oziev02/CommentThread/internal/infrastructure/realtime"
	"github.com/oziev02/CommentThread/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPost = "post-1"

var viewer = domain.User{ID: "u1", DisplayName: "ann"}

type stubComments struct {
	mu        sync.Mutex
	pages     map[string]domain.CommentPage
	replies   map[string][]domain.Comment
	byID      map[string]domain.CommentWithReplies
	created   []domain.CommentPayload
	deleted   []string
	updateErr error
}

func (s *stubComments) FetchComments(ctx context.Context, postID, cursor string, order domain.SortOrder) (domain.CommentPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[postID+"|"+string(order)+"|"+cursor], nil
}

func (s *stubComments) FetchReplies(ctx context.Context, postID, parentID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replies[parentID], nil
}

func (s *stubComments) FetchCommentByID(ctx context.Context, id string) (domain.CommentWithReplies, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.byID[id]
	if !ok {
		return domain.CommentWithReplies{}, domain.ErrCommentNotFound
	}
	return res, nil
}

func (s *stubComments) CreateComment(ctx context.Context, payload domain.CommentPayload) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, payload)
	return domain.Comment{ID: "new", PostID: payload.PostID, ParentID: payload.ParentID, Text: payload.Text}, nil
}

func (s *stubComments) UpdateComment(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateErr
}

func (s *stubComments) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubComments) VoteComment(ctx context.Context, id, userID string, direction domain.VoteDirection) error {
	return nil
}

func (s *stubComments) calls() ([]domain.CommentPayload, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CommentPayload(nil), s.created...), append([]string(nil), s.deleted...)
}

type stubNotifications struct {
	list domain.NotificationList
}

func (s *stubNotifications) FetchNotifications(ctx context.Context, userID string) (domain.NotificationList, error) {
	return s.list, nil
}

func (s *stubNotifications) MarkAllAsRead(ctx context.Context, userID string) error {
	return nil
}

func (s *stubNotifications) DeleteNotification(ctx context.Context, id string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func comment(id, parentID string) domain.Comment {
	return domain.Comment{
		ID:       id,
		PostID:   testPost,
		ParentID: parentID,
		AuthorID: "author-" + id,
		Author:   domain.Author{ID: "author-" + id, Username: "name-" + id},
		Text:     "text " + id,
	}
}

type apiFixture struct {
	server   *httptest.Server
	comments *stubComments
	hub      *realtime.Hub
	thread   *usecase.Thread
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	comments := &stubComments{
		pages: map[string]domain.CommentPage{
			testPost + "|latest|":   {Comments: []domain.Comment{comment("a", ""), comment("b", "")}, NextCursor: "c1"},
			testPost + "|latest|c1": {Comments: []domain.Comment{comment("c", "")}},
			testPost + "|oldest|":   {Comments: []domain.Comment{comment("c", "")}},
			"post-2|latest|":        {Comments: []domain.Comment{comment("x", "")}},
		},
		replies: map[string][]domain.Comment{
			"a": {comment("r1", "a")},
		},
		byID: map[string]domain.CommentWithReplies{
			"z": {Comment: comment("z", "")},
		},
	}
	notifications := &stubNotifications{list: domain.NotificationList{
		Notifications: []domain.Notification{
			{ID: "n1", TriggerType: domain.TriggerComment, TriggerID: "z", EntityID: testPost},
			{ID: "n2", TriggerType: "follow", TriggerID: "u7"},
		},
		UnreadCount: 2,
	}}

	hub := realtime.NewHub(nil)
	user := identity.NewStatic(viewer)
	presenter := NewFocusPresenter()

	thread := usecase.NewThread(testPost, comments, hub, user, usecase.ThreadConfig{
		Presenter: presenter,
		Highlight: time.Minute,
	})
	require.NoError(t, thread.Mount(context.Background(), nil))
	t.Cleanup(thread.Unmount)

	inbox, err := usecase.NewNotificationInbox(notifications, hub, user, usecase.InboxConfig{})
	require.NoError(t, err)
	require.NoError(t, inbox.Start(context.Background()))
	t.Cleanup(inbox.Stop)

	logger := testLogger()
	srv := httptest.NewServer(CORSMiddleware(LoggingMiddleware(logger, NewRouter(thread, inbox, presenter, hub, logger))))
	t.Cleanup(srv.Close)

	return &apiFixture{server: srv, comments: comments, hub: hub, thread: thread}
}

func (f *apiFixture) call(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestThreadEndpoints(t *testing.T) {
	t.Run("snapshot and pagination", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodGet, "/thread", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, []string{"a", "b"}, snap.TopLevelIDs())
		assert.True(t, snap.HasMore)

		resp = f.call(t, http.MethodPost, "/thread/page", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap = decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, []string{"a", "b", "c"}, snap.TopLevelIDs())
		assert.False(t, snap.HasMore)

		// страниц больше нет, но ответ остается снимком
		resp = f.call(t, http.MethodPost, "/thread/page", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("sort change", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPut, "/thread/sort", `{"order":"oldest"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, domain.SortOldest, snap.SortOrder)
		assert.Equal(t, []string{"c"}, snap.TopLevelIDs())

		resp = f.call(t, http.MethodPut, "/thread/sort", `{"order":"popular"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = f.call(t, http.MethodPut, "/thread/sort", `{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("post change", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPut, "/thread/post", `{"postId":"post-2"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, "post-2", snap.PostID)
		assert.Equal(t, []string{"x"}, snap.TopLevelIDs())

		resp = f.call(t, http.MethodPut, "/thread/post", `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("replies", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPost, "/thread/replies/a", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, []string{"r1"}, snap.ReplyIDs("a"))

		resp = f.call(t, http.MethodPost, "/thread/replies/a/toggle", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		toggled := decodeBody[ToggleResponse](t, resp)
		assert.False(t, toggled.Expanded)

		resp = f.call(t, http.MethodPost, "/thread/replies/ghost", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("submit comment", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPost, "/thread/comments", `{"replyTo":"a","text":"hi"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody[domain.Comment](t, resp)
		assert.Equal(t, "a", created.ParentID)
		payloads, _ := f.comments.calls()
		require.Len(t, payloads, 1)
		assert.Equal(t, "author-a", payloads[0].ReceiverID)

		resp = f.call(t, http.MethodPost, "/thread/comments", `{"text":"   "}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = f.call(t, http.MethodPost, "/thread/comments", `{"replyTo":"ghost","text":"hi"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("edit remove vote", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPut, "/thread/comments/a", `{"text":"edited"}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		resp = f.call(t, http.MethodDelete, "/thread/comments/b", "")
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		_, deleted := f.comments.calls()
		assert.Equal(t, []string{"b"}, deleted)

		resp = f.call(t, http.MethodPost, "/thread/comments/a/votes", `{"direction":"like"}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		resp = f.call(t, http.MethodPost, "/thread/comments/a/votes", `{"direction":"love"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		f.comments.mu.Lock()
		f.comments.updateErr = errors.New("upstream down")
		f.comments.mu.Unlock()
		resp = f.call(t, http.MethodPut, "/thread/comments/a", `{"text":"again"}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("drafts", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPost, "/thread/comments/a/reply", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		reply := decodeBody[ReplyResponse](t, resp)
		assert.Equal(t, "a", reply.RootID)
		assert.Equal(t, "@name-a ", reply.Thread.ReplyDrafts["a"])

		resp = f.call(t, http.MethodPut, "/thread/drafts/reply/a", `{"text":"@name-a yes"}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.call(t, http.MethodPut, "/thread/drafts/composer", `{"text":"draft"}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.call(t, http.MethodPost, "/thread/comments/b/edit", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = f.call(t, http.MethodPut, "/thread/drafts/edit/b", `{"text":"better"}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		snap := f.thread.Snapshot(context.Background())
		assert.Equal(t, "@name-a yes", snap.ReplyDrafts["a"])
		assert.Equal(t, "draft", snap.ComposerDraft)
		assert.Equal(t, "better", snap.PendingEdits["b"])

		resp = f.call(t, http.MethodDelete, "/thread/comments/b/edit", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp = f.call(t, http.MethodDelete, "/thread/drafts/reply/a", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		snap = f.thread.Snapshot(context.Background())
		assert.NotContains(t, snap.PendingEdits, "b")
		assert.False(t, snap.Replying["a"])

		resp = f.call(t, http.MethodPut, "/thread/drafts/edit/a", `{"text":"nope"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("deep link and focus", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodGet, "/thread/focus", "")
		focus := decodeBody[FocusResponse](t, resp)
		assert.False(t, focus.Active)

		resp = f.call(t, http.MethodPost, "/thread/deeplink", `{"triggerType":"comment","triggerId":"z"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Equal(t, []string{"a", "b", "z"}, snap.TopLevelIDs())

		resp = f.call(t, http.MethodGet, "/thread/focus", "")
		focus = decodeBody[FocusResponse](t, resp)
		require.True(t, focus.Active)
		assert.Equal(t, "z", focus.Target.ID)
		assert.Equal(t, "center", focus.Target.Block)

		resp = f.call(t, http.MethodPost, "/thread/deeplink", `{"triggerType":"comment","triggerId":"gone"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cors preflight", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodOptions, "/thread", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PUT")
		assert.Equal(t, "X-Request-ID", resp.Header.Get("Access-Control-Expose-Headers"))
	})

	t.Run("request id is echoed or generated", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodGet, "/thread", "")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/thread", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "req-42")
		resp, err = f.server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
	})
}

func TestNotificationEndpoints(t *testing.T) {
	t.Run("list exposes deep links", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodGet, "/notifications", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decodeBody[NotificationsListResponse](t, resp)
		assert.Equal(t, 2, list.UnreadCount)
		require.Len(t, list.Notifications, 2)
		require.NotNil(t, list.Notifications[0].Link)
		assert.Equal(t, "z", list.Notifications[0].Link.TriggerID)
		assert.Nil(t, list.Notifications[1].Link)
	})

	t.Run("open navigates the thread", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPost, "/notifications/n1/open", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decodeBody[domain.ThreadSnapshot](t, resp)
		assert.Contains(t, snap.TopLevelIDs(), "z")

		resp = f.call(t, http.MethodPost, "/notifications/n2/open", "")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		resp = f.call(t, http.MethodPost, "/notifications/ghost/open", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("read viewing delete", func(t *testing.T) {
		f := newAPIFixture(t)

		resp := f.call(t, http.MethodPut, "/notifications/viewing", `{"viewing":true}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.call(t, http.MethodPost, "/notifications/read", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decodeBody[NotificationsListResponse](t, resp)
		assert.Zero(t, list.UnreadCount)

		resp = f.call(t, http.MethodDelete, "/notifications/n1", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.call(t, http.MethodGet, "/notifications", "")
		list = decodeBody[NotificationsListResponse](t, resp)
		assert.Len(t, list.Notifications, 1)
	})
}

func TestEventEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"room":{"type":"post","id":"post-1"},"event":"comment:new","payload":{"_id":"live","postId":"post-1","text":"hot off the socket"}}`
	resp := f.call(t, http.MethodPost, "/events", body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, decodeBody[EventResponse](t, resp).Delivered)

	snap := f.thread.Snapshot(context.Background())
	assert.Equal(t, "live", snap.TopLevelIDs()[0])

	resp = f.call(t, http.MethodPost, "/events", `{"room":{"type":"post","id":"other"},"event":"comment:new","payload":{"_id":"x"}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Zero(t, decodeBody[EventResponse](t, resp).Delivered)

	resp = f.call(t, http.MethodPost, "/events", `{"event":"comment:new"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
