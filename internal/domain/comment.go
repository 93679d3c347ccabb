package domain

import (
	"context"
	"slices"
	"time"
)

// SortOrder порядок выдачи корневых комментариев
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
)

// Valid сообщает, известен ли порядок сортировки
func (o SortOrder) Valid() bool {
	return o == SortLatest || o == SortOldest
}

// VoteDirection направление голоса за комментарий
type VoteDirection string

const (
	VoteLike    VoteDirection = "like"
	VoteDislike VoteDirection = "dislike"
)

// Author представляет автора комментария
type Author struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"profileImage,omitempty"`
}

// Comment представляет комментарий или ответ на него
type Comment struct {
	ID         string    `json:"_id"`
	PostID     string    `json:"postId"`
	ParentID   string    `json:"parentId,omitempty"` // пусто у корневых комментариев
	AuthorID   string    `json:"userId"`
	Author     Author    `json:"user"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	Likes      []string  `json:"likes"`
	Dislikes   []string  `json:"dislikes"`
	ReplyCount int       `json:"replyCount"`
}

// IsReply сообщает, является ли комментарий ответом
func (c *Comment) IsReply() bool {
	return c.ParentID != ""
}

// RootID возвращает id корневого комментария ветки
func (c *Comment) RootID() string {
	if c.IsReply() {
		return c.ParentID
	}
	return c.ID
}

// LikedBy сообщает, лайкнул ли пользователь комментарий
func (c *Comment) LikedBy(userID string) bool {
	return userID != "" && slices.Contains(c.Likes, userID)
}

// DislikedBy сообщает, дизлайкнул ли пользователь комментарий
func (c *Comment) DislikedBy(userID string) bool {
	return userID != "" && slices.Contains(c.Dislikes, userID)
}

// Clone возвращает копию комментария без общих срезов
func (c Comment) Clone() Comment {
	c.Likes = slices.Clone(c.Likes)
	c.Dislikes = slices.Clone(c.Dislikes)
	return c
}

// CommentPage страница корневых комментариев
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	NextCursor string    `json:"nextCursor,omitempty"` // пусто, когда страниц больше нет
}

// CommentWithReplies комментарий, полученный по id, вместе с ответами
type CommentWithReplies struct {
	Comment Comment   `json:"comment"`
	Replies []Comment `json:"replies,omitempty"`
}

// CommentPayload тело запроса на создание комментария
type CommentPayload struct {
	PostID     string `json:"postId" validate:"required"`
	ParentID   string `json:"parentId,omitempty"`
	AuthorID   string `json:"userId" validate:"required"`
	Text       string `json:"text" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	EntityID   string `json:"entityId" validate:"required"`
}

// CommentQuery определяет запросы к сервису комментариев
type CommentQuery interface {
	FetchComments(ctx context.Context, postID, cursor string, order SortOrder) (CommentPage, error)
	FetchReplies(ctx context.Context, postID, parentID string) ([]Comment, error)
	FetchCommentByID(ctx context.Context, id string) (CommentWithReplies, error)
	CreateComment(ctx context.Context, payload CommentPayload) (Comment, error)
	UpdateComment(ctx context.Context, id, text string) error
	DeleteComment(ctx context.Context, id string) error
	VoteComment(ctx context.Context, id, userID string, direction VoteDirection) error
}
