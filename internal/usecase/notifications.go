package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/oziev02/CommentThread/internal/domain"
)

const defaultSeenCapacity = 512

// InboxConfig содержит настройки входящих уведомлений
type InboxConfig struct {
	MarkReadDebounce time.Duration
	SeenCapacity     int
	Logger           *slog.Logger
}

// NotificationInbox ведет список уведомлений пользователя и счетчик непрочитанных,
// получая новые уведомления через личную комнату канала
type NotificationInbox struct {
	query     domain.NotificationQuery
	transport domain.Transport
	identity  domain.Identity
	logger    *slog.Logger
	debounce  time.Duration
	seen      *lru.Cache

	mu          sync.Mutex
	userID      string
	started     bool
	viewing     bool
	items       []domain.Notification
	unread      int
	markTimer   *time.Timer
	unsubscribe []func()
}

// NewNotificationInbox создает новый экземпляр NotificationInbox
func NewNotificationInbox(query domain.NotificationQuery, transport domain.Transport, identity domain.Identity, cfg InboxConfig) (*NotificationInbox, error) {
	if cfg.MarkReadDebounce <= 0 {
		cfg.MarkReadDebounce = 500 * time.Millisecond
	}
	if cfg.SeenCapacity <= 0 {
		cfg.SeenCapacity = defaultSeenCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	seen, err := lru.New(cfg.SeenCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen cache: %w", err)
	}

	return &NotificationInbox{
		query:     query,
		transport: transport,
		identity:  identity,
		logger:    cfg.Logger,
		debounce:  cfg.MarkReadDebounce,
		seen:      seen,
	}, nil
}

// Start входит в личную комнату пользователя, подписывается на уведомления
// и загружает уже существующие
func (i *NotificationInbox) Start(ctx context.Context) error {
	user, err := i.identity.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}
	if user.ID == "" {
		return domain.ErrNoIdentity
	}

	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return nil
	}
	room := domain.UserRoom(user.ID)
	if err := i.transport.JoinRoom(room); err != nil {
		i.mu.Unlock()
		i.logger.Error("failed to join room", "room", room.String(), "error", err)
		return fmt.Errorf("failed to join room %s: %w", room, err)
	}
	i.userID = user.ID
	i.started = true
	i.unsubscribe = []func(){
		i.transport.Subscribe(domain.EventNotificationNew, i.handleNew),
		i.transport.Subscribe(domain.EventNotificationUpdated, i.handleUpdate),
	}
	i.mu.Unlock()

	list, err := i.query.FetchNotifications(ctx, user.ID)
	if err != nil {
		i.logger.Error("failed to fetch notifications", "user_id", user.ID, "error", err)
		// откат, чтобы следующий Start загрузил список заново
		i.mu.Lock()
		if i.started && i.userID == user.ID {
			i.stopLocked()
		}
		i.mu.Unlock()
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.started || i.userID != user.ID {
		return nil
	}
	for _, n := range list.Notifications {
		if i.indexOf(n.ID) >= 0 {
			continue
		}
		i.items = append(i.items, n)
		i.seen.Add(n.ID, struct{}{})
	}
	i.unread = list.UnreadCount
	return nil
}

// Stop выходит из комнаты и отменяет отложенную отметку о прочтении
func (i *NotificationInbox) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		return
	}
	i.stopLocked()
}

func (i *NotificationInbox) stopLocked() {
	for _, off := range i.unsubscribe {
		off()
	}
	i.unsubscribe = nil
	if i.markTimer != nil {
		i.markTimer.Stop()
		i.markTimer = nil
	}

	room := domain.UserRoom(i.userID)
	if err := i.transport.LeaveRoom(room); err != nil {
		i.logger.Warn("failed to leave room", "room", room.String(), "error", err)
	}
	i.started = false
	i.userID = ""
	i.items = nil
	i.unread = 0
}

// SetViewing отмечает, открыт ли список уведомлений у пользователя
func (i *NotificationInbox) SetViewing(viewing bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.viewing = viewing
}

// Notifications возвращает копию списка, новые первыми
func (i *NotificationInbox) Notifications() []domain.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.items)
}

// UnreadCount возвращает число непрочитанных уведомлений
func (i *NotificationInbox) UnreadCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.unread
}

// MarkAllAsRead отмечает все уведомления прочитанными. При ошибке состояние не меняется.
func (i *NotificationInbox) MarkAllAsRead(ctx context.Context) error {
	i.mu.Lock()
	userID := i.userID
	i.mu.Unlock()
	if userID == "" {
		return domain.ErrNoIdentity
	}

	if err := i.query.MarkAllAsRead(ctx, userID); err != nil {
		i.logger.Error("failed to mark notifications as read", "user_id", userID, "error", err)
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.userID != userID {
		return nil
	}
	for idx := range i.items {
		i.items[idx].IsRead = true
	}
	i.unread = 0
	return nil
}

// Delete удаляет уведомление
func (i *NotificationInbox) Delete(ctx context.Context, id string) error {
	if err := i.query.DeleteNotification(ctx, id); err != nil {
		i.logger.Error("failed to delete notification", "notification_id", id, "error", err)
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if idx := i.indexOf(id); idx >= 0 {
		if !i.items[idx].IsRead && i.unread > 0 {
			i.unread--
		}
		i.items = slices.Delete(i.items, idx, idx+1)
	}
	return nil
}

// Find возвращает уведомление по id
func (i *NotificationInbox) Find(id string) (domain.Notification, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if idx := i.indexOf(id); idx >= 0 {
		return i.items[idx], true
	}
	return domain.Notification{}, false
}

func (i *NotificationInbox) handleNew(payload json.RawMessage) {
	var n domain.Notification
	if err := json.Unmarshal(payload, &n); err != nil || n.ID == "" {
		i.logger.Warn("failed to decode notification", "error", err)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		return
	}
	if i.seen.Contains(n.ID) || i.indexOf(n.ID) >= 0 {
		return
	}
	i.seen.Add(n.ID, struct{}{})
	i.items = append([]domain.Notification{n}, i.items...)

	if i.viewing {
		i.scheduleMarkReadLocked()
		return
	}
	i.unread++
}

func (i *NotificationInbox) handleUpdate(payload json.RawMessage) {
	var n domain.Notification
	if err := json.Unmarshal(payload, &n); err != nil || n.ID == "" {
		i.logger.Warn("failed to decode notification update", "error", err)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if idx := i.indexOf(n.ID); idx >= 0 {
		i.items[idx] = n
	}
}

// scheduleMarkReadLocked откладывает отметку о прочтении, сбрасывая предыдущий таймер
func (i *NotificationInbox) scheduleMarkReadLocked() {
	if i.markTimer != nil {
		i.markTimer.Stop()
	}
	i.markTimer = time.AfterFunc(i.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// ошибка уже залогирована
		_ = i.MarkAllAsRead(ctx)
	})
}

func (i *NotificationInbox) indexOf(id string) int {
	return slices.IndexFunc(i.items, func(n domain.Notification) bool { return n.ID == id })
}
