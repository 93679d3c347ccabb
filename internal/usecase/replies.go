package usecase

import (
	"context"
	"fmt"

	"github.com/oziev02/CommentThread/internal/domain"
)

// LoadReplies загружает все ответы на корневой комментарий и раскрывает их.
// Одновременные вызовы для одного родителя выполняют один запрос.
func (t *Thread) LoadReplies(ctx context.Context, parentID string) error {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return domain.ErrNotMounted
	}
	if !t.state.isTopLevel(parentID) {
		t.mu.Unlock()
		return domain.ErrUnknownComment
	}
	gen := t.generation
	postID := t.postID
	t.mu.Unlock()

	key := fmt.Sprintf("%d/%s", gen, parentID)
	v, err, _ := t.replyGroup.Do(key, func() (interface{}, error) {
		return t.query.FetchReplies(ctx, postID, parentID)
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.logger.Error("failed to fetch replies", "post_id", postID, "parent_id", parentID, "error", err)
		return fmt.Errorf("failed to fetch replies: %w", err)
	}
	if gen != t.generation || !t.state.isTopLevel(parentID) {
		return nil
	}

	t.state.setReplies(parentID, v.([]domain.Comment))
	t.state.expanded[parentID] = true
	t.state.replyDrafts[parentID] = ""
	return nil
}

// ToggleCollapse раскрывает или сворачивает ответы. Уже загруженный полный
// список раскрывается без повторного запроса. Возвращает новое состояние.
func (t *Thread) ToggleCollapse(ctx context.Context, parentID string) (bool, error) {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return false, domain.ErrNotMounted
	}
	if !t.state.isTopLevel(parentID) {
		t.mu.Unlock()
		return false, domain.ErrUnknownComment
	}
	if t.state.expanded[parentID] {
		t.state.expanded[parentID] = false
		t.mu.Unlock()
		return false, nil
	}
	if _, loaded := t.state.replies[parentID]; loaded && !t.state.partial[parentID] {
		t.state.expanded[parentID] = true
		t.mu.Unlock()
		return true, nil
	}
	t.mu.Unlock()

	if err := t.LoadReplies(ctx, parentID); err != nil {
		return false, err
	}
	return true, nil
}
