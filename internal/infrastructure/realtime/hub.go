package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/oziev02/CommentThread/internal/domain"
)

// ErrNotJoined возвращается при выходе из комнаты, в которую не входили
var ErrNotJoined = errors.New("room is not joined")

type subscription struct {
	id      string
	handler domain.EventHandler
}

// Hub реализует domain.Transport внутри процесса: учитывает комнаты,
// в которые вошел клиент, и раздает события подписчикам в порядке публикации.
// Внешний мост к серверу событий передает события через Publish.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	rooms    map[domain.Room]int
	handlers map[string][]subscription

	// deliverMu сериализует доставку, чтобы события приходили строго по порядку
	deliverMu sync.Mutex
}

// NewHub создает новый экземпляр Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		logger:   logger,
		rooms:    make(map[domain.Room]int),
		handlers: make(map[string][]subscription),
	}
}

// JoinRoom входит в комнату. Повторные входы учитываются счетчиком.
func (h *Hub) JoinRoom(room domain.Room) error {
	if room.Type == "" || room.ID == "" {
		return fmt.Errorf("invalid room %q", room.String())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms[room]++
	h.logger.Debug("room joined", "room", room.String(), "members", h.rooms[room])
	return nil
}

// LeaveRoom выходит из комнаты
func (h *Hub) LeaveRoom(room domain.Room) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.rooms[room]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotJoined, room)
	}
	if n <= 1 {
		delete(h.rooms, room)
	} else {
		h.rooms[room] = n - 1
	}
	h.logger.Debug("room left", "room", room.String())
	return nil
}

// Joined сообщает, вошел ли клиент в комнату
func (h *Hub) Joined(room domain.Room) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room] > 0
}

// Subscribe подписывает обработчик на событие и возвращает функцию отписки
func (h *Hub) Subscribe(event string, handler domain.EventHandler) func() {
	sub := subscription{id: uuid.NewString(), handler: handler}

	h.mu.Lock()
	h.handlers[event] = append(h.handlers[event], sub)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs := h.handlers[event]
			for i, s := range subs {
				if s.id == sub.id {
					h.handlers[event] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(h.handlers[event]) == 0 {
				delete(h.handlers, event)
			}
		})
	}
}

// Publish доставляет событие комнаты подписчикам. События комнат,
// в которые клиент не входил, отбрасываются. Возвращает число получателей.
func (h *Hub) Publish(room domain.Room, event string, payload any) (int, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.RLock()
	if h.rooms[room] == 0 {
		h.mu.RUnlock()
		h.logger.Debug("event dropped, room not joined", "room", room.String(), "event", event)
		return 0, nil
	}
	subs := append([]subscription(nil), h.handlers[event]...)
	h.mu.RUnlock()

	for _, s := range subs {
		s.handler(raw)
	}
	return len(subs), nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}
