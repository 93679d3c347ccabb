package domain

import (
	"context"
	"time"
)

// Notification уведомление пользователя
type Notification struct {
	ID          string    `json:"_id"`
	ReceiverID  string    `json:"receiverId"`
	Message     string    `json:"message"`
	TriggerType string    `json:"triggerType"`
	TriggerID   string    `json:"triggerId"`
	EntityID    string    `json:"entityId"`
	IsRead      bool      `json:"isRead"`
	Count       int       `json:"count,omitempty"` // для агрегированных уведомлений
	CreatedAt   time.Time `json:"createdAt"`
}

// DeepLink возвращает цель перехода к комментарию, если уведомление о нем
func (n Notification) DeepLink() (DeepLink, bool) {
	switch n.TriggerType {
	case TriggerComment, TriggerReply, TriggerLike:
		return DeepLink{TriggerType: n.TriggerType, TriggerID: n.TriggerID, EntityID: n.EntityID}, true
	default:
		return DeepLink{}, false
	}
}

// NotificationList ответ сервиса уведомлений
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unReadCount"`
}

// NotificationQuery определяет запросы к сервису уведомлений
type NotificationQuery interface {
	FetchNotifications(ctx context.Context, userID string) (NotificationList, error)
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id string) error
}
