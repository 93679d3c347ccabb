package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/oziev02/CommentThread/internal/domain"
	"github.com/stretchr/testify/require"
)

type pageCall struct {
	postID string
	cursor string
	order  domain.SortOrder
}

type fakeComments struct {
	mu sync.Mutex

	pages      map[string]domain.CommentPage // ключ: order + "|" + cursor
	pageErr    error
	pageGate   chan struct{}
	pageCalls  []pageCall
	replies    map[string][]domain.Comment
	replyErr   error
	replyGate  chan struct{}
	replyCalls int
	byID       map[string]domain.CommentWithReplies
	byIDCalls  []string

	created   []domain.CommentPayload
	createErr error
	updated   map[string]string
	updateErr error
	deleted   []string
	deleteErr error
	votes     []string
	voteErr   error
}

func newFakeComments() *fakeComments {
	return &fakeComments{
		pages:   make(map[string]domain.CommentPage),
		replies: make(map[string][]domain.Comment),
		byID:    make(map[string]domain.CommentWithReplies),
		updated: make(map[string]string),
	}
}

func (f *fakeComments) setPage(order domain.SortOrder, cursor string, page domain.CommentPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[string(order)+"|"+cursor] = page
}

func (f *fakeComments) FetchComments(ctx context.Context, postID, cursor string, order domain.SortOrder) (domain.CommentPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageCall{postID: postID, cursor: cursor, order: order})
	gate := f.pageGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.CommentPage{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return domain.CommentPage{}, f.pageErr
	}
	return f.pages[string(order)+"|"+cursor], nil
}

func (f *fakeComments) FetchReplies(ctx context.Context, postID, parentID string) ([]domain.Comment, error) {
	f.mu.Lock()
	f.replyCalls++
	gate := f.replyGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return f.replies[parentID], nil
}

func (f *fakeComments) FetchCommentByID(ctx context.Context, id string) (domain.CommentWithReplies, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byIDCalls = append(f.byIDCalls, id)
	res, ok := f.byID[id]
	if !ok {
		return domain.CommentWithReplies{}, domain.ErrCommentNotFound
	}
	return res, nil
}

func (f *fakeComments) CreateComment(ctx context.Context, payload domain.CommentPayload) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Comment{}, f.createErr
	}
	f.created = append(f.created, payload)
	return domain.Comment{
		ID:       "created-1",
		PostID:   payload.PostID,
		ParentID: payload.ParentID,
		AuthorID: payload.AuthorID,
		Text:     payload.Text,
	}, nil
}

func (f *fakeComments) UpdateComment(ctx context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = text
	return nil
}

func (f *fakeComments) DeleteComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeComments) VoteComment(ctx context.Context, id, userID string, direction domain.VoteDirection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return f.voteErr
	}
	f.votes = append(f.votes, string(direction)+":"+id+":"+userID)
	return nil
}

func (f *fakeComments) pageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageCalls)
}

// fakeTransport запоминает комнаты и обработчики, emit доставляет событие синхронно
type fakeTransport struct {
	mu       sync.Mutex
	rooms    map[domain.Room]bool
	joins    []domain.Room
	leaves   []domain.Room
	handlers map[string]map[int]domain.EventHandler
	nextID   int
	joinErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		rooms:    make(map[domain.Room]bool),
		handlers: make(map[string]map[int]domain.EventHandler),
	}
}

func (f *fakeTransport) JoinRoom(room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.rooms[room] = true
	f.joins = append(f.joins, room)
	return nil
}

func (f *fakeTransport) LeaveRoom(room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, room)
	f.leaves = append(f.leaves, room)
	return nil
}

func (f *fakeTransport) Subscribe(event string, handler domain.EventHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]domain.EventHandler)
	}
	id := f.nextID
	f.nextID++
	f.handlers[event][id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[event], id)
	}
}

func (f *fakeTransport) subscribers(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[event])
}

func (f *fakeTransport) joined(room domain.Room) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[room]
}

func (f *fakeTransport) emit(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	f.mu.Lock()
	handlers := make([]domain.EventHandler, 0, len(f.handlers[event]))
	for _, h := range f.handlers[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
}

type fakeIdentity struct {
	user domain.User
	err  error
}

func (f fakeIdentity) CurrentUser(ctx context.Context) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	if f.user.ID == "" {
		return domain.User{}, domain.ErrNoIdentity
	}
	return f.user, nil
}

type recordingPresenter struct {
	mu        sync.Mutex
	revealed  []domain.RevealTarget
	concealed []string
}

func (p *recordingPresenter) Reveal(target domain.RevealTarget) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revealed = append(p.revealed, target)
}

func (p *recordingPresenter) Conceal(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.concealed = append(p.concealed, id)
}

func (p *recordingPresenter) reveals() []domain.RevealTarget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.RevealTarget(nil), p.revealed...)
}

func (p *recordingPresenter) conceals() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.concealed...)
}

const testPost = "post-1"

var viewer = domain.User{ID: "u-viewer", DisplayName: "viewer"}

func top(id string) domain.Comment {
	return domain.Comment{
		ID:        id,
		PostID:    testPost,
		AuthorID:  "author-" + id,
		Author:    domain.Author{ID: "author-" + id, Username: "name-" + id},
		Text:      "text " + id,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func reply(id, parentID string) domain.Comment {
	c := top(id)
	c.ParentID = parentID
	return c
}

func pageOf(cursor string, comments ...domain.Comment) domain.CommentPage {
	return domain.CommentPage{Comments: comments, NextCursor: cursor}
}

type threadFixture struct {
	thread    *Thread
	comments  *fakeComments
	transport *fakeTransport
	presenter *recordingPresenter
}

func newThreadFixture(t *testing.T, order domain.SortOrder) *threadFixture {
	t.Helper()
	f := &threadFixture{
		comments:  newFakeComments(),
		transport: newFakeTransport(),
		presenter: &recordingPresenter{},
	}
	f.thread = NewThread(testPost, f.comments, f.transport, fakeIdentity{user: viewer}, ThreadConfig{
		SortOrder:   order,
		SettleDelay: time.Millisecond,
		Highlight:   20 * time.Millisecond,
		Presenter:   f.presenter,
	})
	return f
}

func (f *threadFixture) mount(t *testing.T) {
	t.Helper()
	require.NoError(t, f.thread.Mount(context.Background(), nil))
}

func (f *threadFixture) snapshot() domain.ThreadSnapshot {
	return f.thread.Snapshot(context.Background())
}
