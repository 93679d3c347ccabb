package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oziev02/CommentThread/internal/domain"
)

// Static возвращает заранее известного пользователя
type Static struct {
	user domain.User
}

// NewStatic создает новый экземпляр Static
func NewStatic(user domain.User) *Static {
	return &Static{user: user}
}

// CurrentUser возвращает пользователя или ErrNoIdentity, если он не задан
func (s *Static) CurrentUser(ctx context.Context) (domain.User, error) {
	if s.user.ID == "" {
		return domain.User{}, domain.ErrNoIdentity
	}
	return s.user, nil
}

// userClaims поля профиля, которые сервис авторизации кладет в токен
type userClaims struct {
	ID           string `json:"_id"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
	jwt.RegisteredClaims
}

// Token читает профиль текущего пользователя из claims JWT.
// Подпись не проверяется: токен проверяет сервис, которому он отправляется.
type Token struct {
	parser *jwt.Parser

	mu    sync.RWMutex
	token string
}

// NewToken создает новый экземпляр Token
func NewToken(token string) *Token {
	return &Token{parser: jwt.NewParser(), token: token}
}

// SetToken заменяет токен, например после входа или выхода
func (t *Token) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// CurrentUser декодирует профиль из токена
func (t *Token) CurrentUser(ctx context.Context) (domain.User, error) {
	t.mu.RLock()
	raw := t.token
	t.mu.RUnlock()

	if raw == "" {
		return domain.User{}, domain.ErrNoIdentity
	}

	var claims userClaims
	if _, _, err := t.parser.ParseUnverified(raw, &claims); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}

	id := claims.ID
	if id == "" {
		id = claims.UserID
	}
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return domain.User{}, domain.ErrNoIdentity
	}

	return domain.User{
		ID:          id,
		DisplayName: claims.Username,
		AvatarURL:   claims.ProfileImage,
	}, nil
}
