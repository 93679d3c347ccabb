package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oziev02/CommentThread/internal/domain"
)

// textPolicy вырезает разметку при проверке текста на пустоту
var textPolicy = bluemonday.StrictPolicy()

// blankText сообщает, что в тексте нет ничего, кроме разметки и пробелов.
// Сам текст отправляется как есть, без вырезания тегов.
func blankText(text string) bool {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(text))) == ""
}

// SubmitComment отправляет новый комментарий или ответ на replyToID.
// Ответ на ответ прикрепляется к корневому комментарию ветки.
// Состояние ветки не меняется: комментарий появится через событие comment:new.
func (t *Thread) SubmitComment(ctx context.Context, replyToID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if blankText(text) {
		return nil, domain.ErrEmptyContent
	}

	user, err := t.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return nil, domain.ErrNotMounted
	}
	postID := t.postID
	var target domain.Comment
	if replyToID != "" {
		stored, ok := t.state.comments[replyToID]
		if !ok {
			t.mu.Unlock()
			return nil, domain.ErrUnknownComment
		}
		target = stored.Clone()
	}
	t.mu.Unlock()

	payload := domain.CommentPayload{
		PostID:     postID,
		AuthorID:   user.ID,
		Text:       text,
		ReceiverID: postID,
		EntityID:   postID,
	}
	if replyToID != "" {
		payload.ParentID = target.RootID()
		payload.ReceiverID = target.AuthorID
		payload.EntityID = target.ID
	}

	if err := t.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	created, err := t.query.CreateComment(ctx, payload)
	if err != nil {
		t.logger.Error("failed to submit comment", "post_id", postID, "parent_id", payload.ParentID, "error", err)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	t.mu.Lock()
	if replyToID != "" {
		root := target.RootID()
		t.state.replyDrafts[root] = ""
		delete(t.state.replying, root)
	} else {
		t.state.composer = ""
	}
	t.mu.Unlock()

	return &created, nil
}

// EditComment отправляет новый текст комментария, результат придет событием comment:update
func (t *Thread) EditComment(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if blankText(text) {
		return domain.ErrEmptyContent
	}
	if err := t.ensureKnown(id); err != nil {
		return err
	}

	if err := t.query.UpdateComment(ctx, id, text); err != nil {
		t.logger.Error("failed to update comment", "comment_id", id, "error", err)
		return fmt.Errorf("failed to update comment: %w", err)
	}

	t.mu.Lock()
	delete(t.state.pendingEdits, id)
	t.mu.Unlock()
	return nil
}

// RemoveComment удаляет комментарий, результат придет событием comment:delete
func (t *Thread) RemoveComment(ctx context.Context, id string) error {
	if err := t.ensureKnown(id); err != nil {
		return err
	}

	if err := t.query.DeleteComment(ctx, id); err != nil {
		t.logger.Error("failed to delete comment", "comment_id", id, "error", err)
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// Vote ставит лайк или дизлайк, результат придет событием comment:LikeAndDislike
func (t *Thread) Vote(ctx context.Context, id string, direction domain.VoteDirection) error {
	if direction != domain.VoteLike && direction != domain.VoteDislike {
		return fmt.Errorf("%w: unknown vote direction %q", domain.ErrInvalidPayload, direction)
	}

	user, err := t.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := t.ensureKnown(id); err != nil {
		return err
	}

	if err := t.query.VoteComment(ctx, id, user.ID, direction); err != nil {
		t.logger.Error("failed to vote", "comment_id", id, "direction", direction, "error", err)
		return fmt.Errorf("failed to vote: %w", err)
	}
	return nil
}

func (t *Thread) currentUser(ctx context.Context) (domain.User, error) {
	user, err := t.identity.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoIdentity) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}
	if user.ID == "" {
		return domain.User{}, domain.ErrNoIdentity
	}
	return user, nil
}

func (t *Thread) ensureKnown(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.mounted {
		return domain.ErrNotMounted
	}
	if _, ok := t.state.comments[id]; !ok {
		return domain.ErrUnknownComment
	}
	return nil
}
