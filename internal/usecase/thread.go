package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oziev02/CommentThread/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ThreadConfig содержит настройки ветки комментариев
type ThreadConfig struct {
	SortOrder   domain.SortOrder
	SettleDelay time.Duration // пауза перед прокруткой к цели ссылки
	Highlight   time.Duration // длительность подсветки цели
	Presenter   domain.Presenter
	Logger      *slog.Logger
}

// Thread управляет состоянием ветки комментариев поста: пагинацией,
// кэшем ответов, событиями реального времени, переходами по ссылкам и мутациями.
// Состоянием владеет только Thread, снаружи доступен лишь снимок.
type Thread struct {
	query     domain.CommentQuery
	transport domain.Transport
	identity  domain.Identity
	presenter domain.Presenter
	validate  *validator.Validate
	logger    *slog.Logger

	settleDelay time.Duration
	highlight   time.Duration

	replyGroup singleflight.Group

	mu          sync.Mutex
	postID      string
	mounted     bool
	generation  uint64
	unsubscribe []func()
	state       threadState
}

// NewThread создает новый экземпляр Thread для поста
func NewThread(postID string, query domain.CommentQuery, transport domain.Transport, identity domain.Identity, cfg ThreadConfig) *Thread {
	if !cfg.SortOrder.Valid() {
		cfg.SortOrder = domain.SortLatest
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Highlight <= 0 {
		cfg.Highlight = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Thread{
		query:       query,
		transport:   transport,
		identity:    identity,
		presenter:   cfg.Presenter,
		validate:    validator.New(),
		logger:      cfg.Logger,
		settleDelay: cfg.SettleDelay,
		highlight:   cfg.Highlight,
		postID:      postID,
		state:       newThreadState(cfg.SortOrder),
	}
}

// PostID возвращает id текущего поста
func (t *Thread) PostID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.postID
}

// Mount подписывает ветку на комнату поста и загружает первую страницу.
// Если передана ссылка из уведомления, она разрешается параллельно с загрузкой.
func (t *Thread) Mount(ctx context.Context, link *domain.DeepLink) error {
	t.mu.Lock()
	if t.mounted {
		t.mu.Unlock()
		return nil
	}
	if err := t.subscribeLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.mounted = true
	t.mu.Unlock()

	// ошибка первой страницы отменяет разрешение ссылки через общий контекст
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.FetchPage(gctx)
	})
	if link != nil {
		g.Go(func() error {
			if err := t.ResolveDeepLink(gctx, *link); err != nil {
				// ветка работает и без цели ссылки
				t.logger.Warn("deep link skipped on mount", "trigger_id", link.TriggerID, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Unmount отписывает ветку от комнаты и уничтожает состояние
func (t *Thread) Unmount() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.mounted {
		return
	}
	t.unsubscribeLocked()
	t.mounted = false
	t.generation++
	t.state = newThreadState(t.state.sortOrder)
}

// SetPost переключает ветку на другой пост: выход из старой комнаты,
// синхронный сброс состояния, вход в новую комнату и загрузка первой страницы
func (t *Thread) SetPost(ctx context.Context, postID string) error {
	t.mu.Lock()
	if postID == t.postID {
		t.mu.Unlock()
		return nil
	}

	wasMounted := t.mounted
	if wasMounted {
		t.unsubscribeLocked()
	}
	t.postID = postID
	t.generation++
	t.state = newThreadState(t.state.sortOrder)

	if wasMounted {
		if err := t.subscribeLocked(); err != nil {
			t.mounted = false
			t.mu.Unlock()
			return err
		}
	}
	t.mu.Unlock()

	if !wasMounted {
		return nil
	}
	return t.FetchPage(ctx)
}

// SetSortOrder меняет порядок сортировки: корневые комментарии и курсор
// сбрасываются до загрузки, страницы разных порядков не смешиваются
func (t *Thread) SetSortOrder(ctx context.Context, order domain.SortOrder) error {
	if !order.Valid() {
		return domain.ErrInvalidSort
	}

	t.mu.Lock()
	if order == t.state.sortOrder {
		t.mu.Unlock()
		return nil
	}
	t.state.sortOrder = order
	t.state.resetTopLevel()
	t.state.composer = ""
	t.generation++
	mounted := t.mounted
	t.mu.Unlock()

	if !mounted {
		return nil
	}
	return t.FetchPage(ctx)
}

// FetchPage загружает следующую страницу корневых комментариев.
// Вызов ничего не делает, если загрузка уже идет или страниц больше нет.
func (t *Thread) FetchPage(ctx context.Context) error {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return domain.ErrNotMounted
	}
	if t.state.loading {
		t.mu.Unlock()
		return domain.ErrFetchInFlight
	}
	if !t.state.hasMore {
		t.mu.Unlock()
		return domain.ErrNoMorePages
	}

	t.state.loading = true
	gen := t.generation
	postID := t.postID
	cursor := t.state.cursor
	order := t.state.sortOrder
	t.mu.Unlock()

	page, err := t.query.FetchComments(ctx, postID, cursor, order)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		// пост или сортировка сменились, ответ относится к уничтоженному состоянию
		return nil
	}
	t.state.loading = false

	if err != nil {
		t.logger.Error("failed to fetch comments", "post_id", postID, "cursor", cursor, "order", order, "error", err)
		return fmt.Errorf("failed to fetch comments: %w", err)
	}

	added := t.state.mergePage(page, order)
	t.logger.Debug("comments page merged", "post_id", postID, "added", added, "has_more", t.state.hasMore)
	return nil
}

// Snapshot возвращает копию текущего состояния ветки
func (t *Thread) Snapshot(ctx context.Context) domain.ThreadSnapshot {
	viewerID := ""
	if user, err := t.identity.CurrentUser(ctx); err == nil {
		viewerID = user.ID
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.snapshot(t.postID, viewerID)
}

func (t *Thread) subscribeLocked() error {
	room := domain.PostRoom(t.postID)
	if err := t.transport.JoinRoom(room); err != nil {
		t.logger.Error("failed to join room", "room", room.String(), "error", err)
		return fmt.Errorf("failed to join room %s: %w", room, err)
	}

	for _, event := range []string{
		domain.EventCommentNew,
		domain.EventCommentUpdate,
		domain.EventCommentDelete,
		domain.EventCommentLikeDislike,
	} {
		event := event
		t.unsubscribe = append(t.unsubscribe, t.transport.Subscribe(event, func(payload json.RawMessage) {
			t.applyEvent(event, payload)
		}))
	}
	return nil
}

func (t *Thread) unsubscribeLocked() {
	for _, off := range t.unsubscribe {
		off()
	}
	t.unsubscribe = nil

	room := domain.PostRoom(t.postID)
	if err := t.transport.LeaveRoom(room); err != nil {
		t.logger.Warn("failed to leave room", "room", room.String(), "error", err)
	}
}
