package api

import (
	"context"
	"net/http"

	"github.com/oziev02/CommentThread/internal/domain"
)

// NotificationClient реализует domain.NotificationQuery поверх REST API сервиса уведомлений
type NotificationClient struct {
	client
}

// NewNotificationClient создает новый экземпляр NotificationClient
func NewNotificationClient(baseURL string, httpClient *http.Client) (*NotificationClient, error) {
	c, err := newClient(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &NotificationClient{client: c}, nil
}

// FetchNotifications получает уведомления пользователя и число непрочитанных
func (c *NotificationClient) FetchNotifications(ctx context.Context, userID string) (domain.NotificationList, error) {
	var list domain.NotificationList
	if err := c.do(ctx, http.MethodGet, "/notifications/"+userID, nil, nil, &list); err != nil {
		return domain.NotificationList{}, err
	}
	return list, nil
}

// MarkAllAsRead отмечает все уведомления пользователя прочитанными
func (c *NotificationClient) MarkAllAsRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+userID+"/read", nil, nil, nil)
}

// DeleteNotification удаляет уведомление
func (c *NotificationClient) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/delete/"+id, nil, nil, nil)
}
