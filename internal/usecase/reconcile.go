package usecase

import (
	"encoding/json"

	"github.com/oziev02/CommentThread/internal/domain"
)

// applyEvent применяет событие канала к состоянию в порядке получения.
// События о неизвестных комментариях молча игнорируются.
func (t *Thread) applyEvent(event string, payload json.RawMessage) {
	var c domain.Comment
	if err := json.Unmarshal(payload, &c); err != nil {
		t.logger.Warn("failed to decode realtime event", "event", event, "error", err)
		return
	}
	if c.ID == "" {
		t.logger.Warn("realtime event without comment id", "event", event)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.mounted {
		return
	}
	if c.PostID != "" && c.PostID != t.postID {
		return
	}

	var applied bool
	switch event {
	case domain.EventCommentNew:
		applied = t.state.applyNew(c)
	case domain.EventCommentUpdate:
		applied = t.state.applyUpdate(c)
	case domain.EventCommentDelete:
		applied = t.state.applyDelete(c)
	case domain.EventCommentLikeDislike:
		applied = t.state.applyVotes(c)
	default:
		t.logger.Warn("unexpected realtime event", "event", event)
		return
	}

	t.logger.Debug("realtime event", "event", event, "comment_id", c.ID, "applied", applied)
}
