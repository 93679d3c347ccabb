package usecase

import (
	"maps"
	"slices"

	"github.com/oziev02/CommentThread/internal/domain"
)

// threadState нормализованное состояние ветки комментариев одного поста.
// Корневой комментарий хранится в comments тогда и только тогда, когда его id есть в topLevel.
// Ответ хранится в comments, если он загружен или пришел событием/по ссылке.
type threadState struct {
	comments map[string]*domain.Comment

	topLevel  []string
	cursor    string
	hasMore   bool
	loading   bool
	sortOrder domain.SortOrder

	replies  map[string][]string // ключ присутствует только для загруженных списков
	partial  map[string]bool     // список ответов заполнен переходом по ссылке, а не загрузкой
	expanded map[string]bool

	replying     map[string]bool
	replyDrafts  map[string]string
	pendingEdits map[string]string
	composer     string
}

func newThreadState(order domain.SortOrder) threadState {
	return threadState{
		comments:     make(map[string]*domain.Comment),
		hasMore:      true,
		sortOrder:    order,
		replies:      make(map[string][]string),
		partial:      make(map[string]bool),
		expanded:     make(map[string]bool),
		replying:     make(map[string]bool),
		replyDrafts:  make(map[string]string),
		pendingEdits: make(map[string]string),
	}
}

// resetTopLevel сбрасывает корневую последовательность и курсор, кэш ответов сохраняется
func (s *threadState) resetTopLevel() {
	for _, id := range s.topLevel {
		delete(s.comments, id)
	}
	s.topLevel = nil
	s.cursor = ""
	s.hasMore = true
	s.loading = false
}

func (s *threadState) isTopLevel(id string) bool {
	c, ok := s.comments[id]
	return ok && !c.IsReply()
}

// mergePage добавляет страницу корневых комментариев без дубликатов.
// Для oldest новые элементы идут в начало, для latest в конец.
func (s *threadState) mergePage(page domain.CommentPage, order domain.SortOrder) int {
	if len(page.Comments) == 0 {
		s.hasMore = false
		return 0
	}

	fresh := make([]string, 0, len(page.Comments))
	for _, c := range page.Comments {
		if c.ID == "" || c.IsReply() {
			continue
		}
		if _, known := s.comments[c.ID]; known {
			continue
		}
		stored := c.Clone()
		s.comments[c.ID] = &stored
		fresh = append(fresh, c.ID)
	}

	if order == domain.SortOldest {
		s.topLevel = append(fresh, s.topLevel...)
	} else {
		s.topLevel = append(s.topLevel, fresh...)
	}

	s.cursor = page.NextCursor
	s.hasMore = page.NextCursor != ""
	return len(fresh)
}

// spliceTopLevel добавляет корневой комментарий в конец, если его еще нет
func (s *threadState) spliceTopLevel(c domain.Comment) bool {
	if c.ID == "" || c.IsReply() {
		return false
	}
	if _, known := s.comments[c.ID]; known {
		return false
	}
	stored := c.Clone()
	s.comments[c.ID] = &stored
	s.topLevel = append(s.topLevel, c.ID)
	return true
}

// setReplies заменяет список ответов родителя загруженными данными
func (s *threadState) setReplies(parentID string, replies []domain.Comment) {
	ids := make([]string, 0, len(replies))
	seen := make(map[string]bool, len(replies))
	for _, r := range replies {
		if r.ID == "" || r.ID == parentID || seen[r.ID] {
			continue
		}
		if s.isTopLevel(r.ID) {
			continue
		}
		seen[r.ID] = true
		stored := r.Clone()
		stored.ParentID = parentID
		s.comments[r.ID] = &stored
		ids = append(ids, r.ID)
	}
	s.replies[parentID] = ids
	delete(s.partial, parentID)
}

// spliceReply добавляет ответ в список родителя, создавая частичный список при необходимости
func (s *threadState) spliceReply(r domain.Comment) bool {
	if r.ID == "" || !r.IsReply() || !s.isTopLevel(r.ParentID) {
		return false
	}
	list, loaded := s.replies[r.ParentID]
	if slices.Contains(list, r.ID) {
		return false
	}
	if _, known := s.comments[r.ID]; !known {
		stored := r.Clone()
		s.comments[r.ID] = &stored
	}
	if !loaded {
		s.partial[r.ParentID] = true
	}
	s.replies[r.ParentID] = append(list, r.ID)
	return true
}

func (s *threadState) applyNew(c domain.Comment) bool {
	if c.ID == "" {
		return false
	}
	if _, known := s.comments[c.ID]; known {
		return false
	}

	if !c.IsReply() {
		stored := c.Clone()
		s.comments[c.ID] = &stored
		s.topLevel = append([]string{c.ID}, s.topLevel...)
		return true
	}

	if !s.isTopLevel(c.ParentID) {
		return false
	}
	stored := c.Clone()
	s.comments[c.ID] = &stored
	s.comments[c.ParentID].ReplyCount++
	if list, loaded := s.replies[c.ParentID]; loaded {
		s.replies[c.ParentID] = append([]string{c.ID}, list...)
	}
	return true
}

func (s *threadState) applyUpdate(c domain.Comment) bool {
	stored, ok := s.comments[c.ID]
	if !ok {
		return false
	}
	stored.Text = c.Text
	return true
}

func (s *threadState) applyVotes(c domain.Comment) bool {
	stored, ok := s.comments[c.ID]
	if !ok {
		return false
	}
	stored.Likes = slices.Clone(c.Likes)
	stored.Dislikes = slices.Clone(c.Dislikes)
	return true
}

// applyDelete удаляет комментарий. Счетчик ответов родителя уменьшается
// и для ответа, который клиент еще не загружал.
func (s *threadState) applyDelete(c domain.Comment) bool {
	stored, ok := s.comments[c.ID]
	if !ok {
		if !c.IsReply() || !s.isTopLevel(c.ParentID) {
			return false
		}
		stored = &c
	}
	delete(s.comments, c.ID)
	delete(s.pendingEdits, c.ID)

	if stored.IsReply() {
		if list, loaded := s.replies[stored.ParentID]; loaded {
			s.replies[stored.ParentID] = slices.DeleteFunc(list, func(id string) bool { return id == c.ID })
		}
		if parent, ok := s.comments[stored.ParentID]; ok && parent.ReplyCount > 0 {
			parent.ReplyCount--
		}
		return true
	}

	s.topLevel = slices.DeleteFunc(s.topLevel, func(id string) bool { return id == c.ID })
	for id, r := range s.comments {
		if r.ParentID == c.ID {
			delete(s.comments, id)
			delete(s.pendingEdits, id)
		}
	}
	delete(s.replies, c.ID)
	delete(s.partial, c.ID)
	delete(s.expanded, c.ID)
	delete(s.replying, c.ID)
	delete(s.replyDrafts, c.ID)
	return true
}

func (s *threadState) view(c *domain.Comment, viewerID string) domain.CommentView {
	return domain.CommentView{
		Comment:  c.Clone(),
		Own:      viewerID != "" && c.AuthorID == viewerID,
		Liked:    c.LikedBy(viewerID),
		Disliked: c.DislikedBy(viewerID),
	}
}

func (s *threadState) snapshot(postID, viewerID string) domain.ThreadSnapshot {
	snap := domain.ThreadSnapshot{
		PostID:        postID,
		SortOrder:     s.sortOrder,
		Cursor:        s.cursor,
		HasMore:       s.hasMore,
		Loading:       s.loading,
		TopLevel:      make([]domain.CommentView, 0, len(s.topLevel)),
		Replies:       make(map[string][]domain.CommentView, len(s.replies)),
		Expanded:      maps.Clone(s.expanded),
		Replying:      maps.Clone(s.replying),
		ReplyDrafts:   maps.Clone(s.replyDrafts),
		PendingEdits:  maps.Clone(s.pendingEdits),
		ComposerDraft: s.composer,
	}

	for _, id := range s.topLevel {
		if c, ok := s.comments[id]; ok {
			snap.TopLevel = append(snap.TopLevel, s.view(c, viewerID))
		}
	}
	for parentID, ids := range s.replies {
		list := make([]domain.CommentView, 0, len(ids))
		for _, id := range ids {
			if c, ok := s.comments[id]; ok {
				list = append(list, s.view(c, viewerID))
			}
		}
		snap.Replies[parentID] = list
	}

	return snap
}
