package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oziev02/CommentThread/internal/domain"
)

const revealBlockCenter = "center"

// ResolveDeepLink загружает комментарий из уведомления напрямую по id,
// встраивает его в состояние и после паузы сообщает слою представления цель
// для прокрутки и подсветки. Цель не обязана входить в загруженные страницы.
func (t *Thread) ResolveDeepLink(ctx context.Context, link domain.DeepLink) error {
	id := link.TriggerID
	if link.FetchesEntity() && link.EntityID != "" {
		id = link.EntityID
	}
	if id == "" {
		return nil
	}

	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return domain.ErrNotMounted
	}
	gen := t.generation
	t.mu.Unlock()

	res, err := t.query.FetchCommentByID(ctx, id)
	if err != nil {
		t.logger.Error("failed to resolve deep link", "trigger_type", link.TriggerType, "comment_id", id, "error", err)
		return fmt.Errorf("failed to fetch comment %s: %w", id, err)
	}
	entity := res.Comment

	var parent *domain.Comment
	if entity.IsReply() {
		t.mu.Lock()
		known := t.state.isTopLevel(entity.ParentID)
		t.mu.Unlock()

		if !known {
			pres, err := t.query.FetchCommentByID(ctx, entity.ParentID)
			if err != nil {
				t.logger.Error("failed to resolve deep link parent", "comment_id", id, "parent_id", entity.ParentID, "error", err)
				return fmt.Errorf("failed to fetch parent comment %s: %w", entity.ParentID, err)
			}
			parent = &pres.Comment
		}
	}

	target := link.TriggerID
	if target == "" {
		target = id
	}

	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return nil
	}

	if entity.IsReply() {
		if parent != nil {
			t.state.spliceTopLevel(*parent)
		}
		t.state.spliceReply(entity)
		if t.state.isTopLevel(entity.ParentID) {
			t.state.expanded[entity.ParentID] = true
		}
	} else {
		t.state.spliceTopLevel(entity)
		if len(res.Replies) > 0 && entity.ID != link.TriggerID && t.state.isTopLevel(entity.ID) {
			t.state.setReplies(entity.ID, res.Replies)
			t.state.expanded[entity.ID] = true
		}
	}

	_, present := t.state.comments[target]
	t.mu.Unlock()

	if !present {
		t.logger.Warn("deep link target is not part of the thread", "target_id", target)
		return nil
	}
	return t.reveal(ctx, target)
}

// reveal ждет, пока представление отрисует изменения, затем отправляет цель
// и снимает подсветку по истечении ее длительности
func (t *Thread) reveal(ctx context.Context, target string) error {
	if t.presenter == nil {
		return nil
	}

	timer := time.NewTimer(t.settleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	t.presenter.Reveal(domain.RevealTarget{
		ID:        target,
		Block:     revealBlockCenter,
		Highlight: t.highlight,
	})
	time.AfterFunc(t.highlight, func() {
		t.presenter.Conceal(target)
	})
	return nil
}
