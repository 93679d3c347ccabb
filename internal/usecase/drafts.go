package usecase

import "github.com/oziev02/CommentThread/internal/domain"

const unknownUsername = "Unknown"

// BeginReply открывает поле ответа в ветке комментария и подставляет упоминание автора.
// Поле ответа одно на корневой комментарий, поэтому ключом служит id корня.
func (t *Thread) BeginReply(commentID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.state.comments[commentID]
	if !ok {
		return "", domain.ErrUnknownComment
	}
	name := c.Author.Username
	if name == "" {
		name = unknownUsername
	}

	root := c.RootID()
	t.state.replying[root] = true
	t.state.replyDrafts[root] = "@" + name + " "
	return root, nil
}

// SetReplyDraft обновляет черновик ответа
func (t *Thread) SetReplyDraft(rootID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.replyDrafts[rootID] = text
}

// CancelReply закрывает поле ответа и очищает черновик
func (t *Thread) CancelReply(rootID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.replyDrafts[rootID] = ""
	delete(t.state.replying, rootID)
}

// BeginEdit переводит комментарий в режим редактирования с текущим текстом
func (t *Thread) BeginEdit(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.state.comments[id]
	if !ok {
		return domain.ErrUnknownComment
	}
	t.state.pendingEdits[id] = c.Text
	return nil
}

// SetEditDraft обновляет черновик редактирования
func (t *Thread) SetEditDraft(id, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, editing := t.state.pendingEdits[id]; !editing {
		return domain.ErrUnknownComment
	}
	t.state.pendingEdits[id] = text
	return nil
}

// CancelEdit выходит из режима редактирования
func (t *Thread) CancelEdit(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state.pendingEdits, id)
}

// SetComposerDraft обновляет черновик нового корневого комментария
func (t *Thread) SetComposerDraft(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.composer = text
}
