package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oziev02/CommentThread/internal/domain"
)

// DefaultPageLimit размер страницы корневых комментариев
const DefaultPageLimit = 5

// CommentClient реализует domain.CommentQuery поверх REST API сервиса комментариев
type CommentClient struct {
	client
	pageLimit int
}

// NewCommentClient создает новый экземпляр CommentClient
func NewCommentClient(baseURL string, httpClient *http.Client, pageLimit int) (*CommentClient, error) {
	c, err := newClient(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &CommentClient{client: c, pageLimit: pageLimit}, nil
}

type commentIDRequest struct {
	CommentID string `json:"commentId"`
	UserID    string `json:"userId,omitempty"`
	Text      string `json:"text,omitempty"`
}

// FetchComments получает страницу корневых комментариев поста
func (c *CommentClient) FetchComments(ctx context.Context, postID, cursor string, order domain.SortOrder) (domain.CommentPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageLimit))
	q.Set("sort", string(order))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var page domain.CommentPage
	if err := c.do(ctx, http.MethodGet, "/comment/all/"+postID, q, nil, &page); err != nil {
		return domain.CommentPage{}, err
	}
	return page, nil
}

// FetchReplies получает все ответы на комментарий
func (c *CommentClient) FetchReplies(ctx context.Context, postID, parentID string) ([]domain.Comment, error) {
	q := url.Values{}
	q.Set("postId", postID)
	q.Set("parentId", parentID)

	var replies []domain.Comment
	if err := c.do(ctx, http.MethodGet, "/comment/replies", q, nil, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// FetchCommentByID получает комментарий по id вместе с ответами
func (c *CommentClient) FetchCommentByID(ctx context.Context, id string) (domain.CommentWithReplies, error) {
	var res domain.CommentWithReplies
	if err := c.do(ctx, http.MethodGet, "/comment/"+id, nil, nil, &res); err != nil {
		if isNotFound(err) {
			return domain.CommentWithReplies{}, fmt.Errorf("%w: %s", domain.ErrCommentNotFound, id)
		}
		return domain.CommentWithReplies{}, err
	}
	if res.Comment.ID == "" {
		return domain.CommentWithReplies{}, fmt.Errorf("%w: %s", domain.ErrCommentNotFound, id)
	}
	return res, nil
}

// CreateComment создает комментарий
func (c *CommentClient) CreateComment(ctx context.Context, payload domain.CommentPayload) (domain.Comment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/comment/add", nil, payload, &raw); err != nil {
		return domain.Comment{}, err
	}
	return decodeCreated(raw)
}

// UpdateComment меняет текст комментария
func (c *CommentClient) UpdateComment(ctx context.Context, id, text string) error {
	return c.do(ctx, http.MethodPost, "/comment/update", nil, commentIDRequest{CommentID: id, Text: text}, nil)
}

// DeleteComment удаляет комментарий
func (c *CommentClient) DeleteComment(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/comment/delete/"+id, nil, nil, nil)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrCommentNotFound, id)
	}
	return err
}

// VoteComment ставит лайк или дизлайк от имени пользователя
func (c *CommentClient) VoteComment(ctx context.Context, id, userID string, direction domain.VoteDirection) error {
	var path string
	switch direction {
	case domain.VoteLike:
		path = "/comment/like"
	case domain.VoteDislike:
		path = "/comment/dislike"
	default:
		return fmt.Errorf("%w: unknown vote direction %q", domain.ErrInvalidPayload, direction)
	}
	return c.do(ctx, http.MethodPost, path, nil, commentIDRequest{CommentID: id, UserID: userID}, nil)
}

// decodeCreated принимает как голый комментарий, так и обертку {"comment": ...}
func decodeCreated(raw json.RawMessage) (domain.Comment, error) {
	var wrapped struct {
		Comment *domain.Comment `json:"comment"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Comment != nil && wrapped.Comment.ID != "" {
		return *wrapped.Comment, nil
	}

	var c domain.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Comment{}, fmt.Errorf("failed to decode created comment: %w", err)
	}
	return c, nil
}
