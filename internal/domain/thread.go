package domain

import "time"

// Типы уведомлений, ведущих к комментарию
const (
	TriggerComment = "comment"
	TriggerReply   = "reply"
	TriggerLike    = "like"
)

// DeepLink цель перехода из уведомления
type DeepLink struct {
	TriggerType string `json:"triggerType"`
	TriggerID   string `json:"triggerId"`
	EntityID    string `json:"entityId"`
}

// FetchesEntity сообщает, нужно ли загружать сущность, а не сам триггер
func (l DeepLink) FetchesEntity() bool {
	return l.TriggerType == TriggerReply || l.TriggerType == TriggerLike
}

// RevealTarget сигнал слою представления: прокрутить к элементу и подсветить
type RevealTarget struct {
	ID        string        `json:"id"`
	Block     string        `json:"block"`
	Highlight time.Duration `json:"highlight"`
}

// Presenter потребляет сигналы о готовности цели
type Presenter interface {
	Reveal(target RevealTarget)
	Conceal(id string)
}

// CommentView комментарий с признаками для текущего пользователя
type CommentView struct {
	Comment
	Own      bool `json:"own"`
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// ThreadSnapshot неизменяемый снимок состояния ветки
type ThreadSnapshot struct {
	PostID        string                   `json:"postId"`
	SortOrder     SortOrder                `json:"sortOrder"`
	Cursor        string                   `json:"cursor,omitempty"`
	HasMore       bool                     `json:"hasMore"`
	Loading       bool                     `json:"loading"`
	TopLevel      []CommentView            `json:"topLevel"`
	Replies       map[string][]CommentView `json:"replies"`
	Expanded      map[string]bool          `json:"expanded"`
	Replying      map[string]bool          `json:"replying"`
	ReplyDrafts   map[string]string        `json:"replyDrafts"`
	PendingEdits  map[string]string        `json:"pendingEdits"`
	ComposerDraft string                   `json:"composerDraft"`
}

// TopLevelIDs возвращает id корневых комментариев по порядку
func (s ThreadSnapshot) TopLevelIDs() []string {
	ids := make([]string, 0, len(s.TopLevel))
	for _, c := range s.TopLevel {
		ids = append(ids, c.ID)
	}
	return ids
}

// ReplyIDs возвращает id ответов на комментарий по порядку
func (s ThreadSnapshot) ReplyIDs(parentID string) []string {
	replies := s.Replies[parentID]
	ids := make([]string, 0, len(replies))
	for _, c := range replies {
		ids = append(ids, c.ID)
	}
	return ids
}

// Find ищет комментарий среди корневых и ответов
func (s ThreadSnapshot) Find(id string) (CommentView, bool) {
	for _, c := range s.TopLevel {
		if c.ID == id {
			return c, true
		}
	}
	for _, list := range s.Replies {
		for _, c := range list {
			if c.ID == id {
				return c, true
			}
		}
	}
	return CommentView{}, false
}
