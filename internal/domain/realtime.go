package domain

import (
	"context"
	"encoding/json"
)

// Имена событий канала реального времени
const (
	EventCommentNew          = "comment:new"
	EventCommentUpdate       = "comment:update"
	EventCommentDelete       = "comment:delete"
	EventCommentLikeDislike  = "comment:LikeAndDislike"
	EventNotificationNew     = "notification:new"
	EventNotificationUpdated = "notification:update"
)

// Типы комнат
const (
	RoomPost = "post"
	RoomUser = "user"
)

// Room комната канала реального времени
type Room struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// PostRoom возвращает комнату поста
func PostRoom(postID string) Room {
	return Room{Type: RoomPost, ID: postID}
}

// UserRoom возвращает личную комнату пользователя
func UserRoom(userID string) Room {
	return Room{Type: RoomUser, ID: userID}
}

func (r Room) String() string {
	return r.Type + ":" + r.ID
}

// EventHandler обрабатывает событие канала
type EventHandler func(payload json.RawMessage)

// Transport определяет канал реального времени
type Transport interface {
	JoinRoom(room Room) error
	LeaveRoom(room Room) error
	Subscribe(event string, handler EventHandler) (unsubscribe func())
}

// User текущий пользователь
type User struct {
	ID          string `json:"_id"`
	DisplayName string `json:"username"`
	AvatarURL   string `json:"profileImage,omitempty"`
}

// Identity поставляет текущего пользователя
type Identity interface {
	CurrentUser(ctx context.Context) (User, error)
}
