package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Services ServicesConfig
	Thread   ThreadConfig
	Inbox    InboxConfig
	Auth     AuthConfig
	LogLevel slog.Level
}

// ServerConfig содержит настройки HTTP сервера представления
type ServerConfig struct {
	Host string
	Port string
}

// ServicesConfig содержит адреса внешних сервисов
type ServicesConfig struct {
	CommentURL      string
	NotificationURL string
	Timeout         time.Duration
}

// ThreadConfig содержит настройки ветки комментариев
type ThreadConfig struct {
	PostID      string
	SortOrder   string
	PageLimit   int
	SettleDelay time.Duration
	Highlight   time.Duration
}

// InboxConfig содержит настройки уведомлений
type InboxConfig struct {
	MarkReadDebounce time.Duration
	SeenCapacity     int
}

// AuthConfig содержит токен текущего пользователя
type AuthConfig struct {
	Token string
}

// Load загружает конфигурацию из переменных окружения
// Приоритет: переменные окружения системы > .env файл > значения по умолчанию
func Load() (*Config, error) {
	// .env файла может не быть, тогда используются переменные окружения и значения по умолчанию
	_ = godotenv.Load()

	var err error
	p := parser{}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Services: ServicesConfig{
			CommentURL:      getEnv("COMMENT_SERVICE_URL", "http://localhost:5002"),
			NotificationURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:5004"),
			Timeout:         p.duration("HTTP_TIMEOUT", 10*time.Second),
		},
		Thread: ThreadConfig{
			PostID:      getEnv("THREAD_POST_ID", ""),
			SortOrder:   getEnv("THREAD_SORT", "latest"),
			PageLimit:   p.positiveInt("COMMENT_PAGE_LIMIT", 5),
			SettleDelay: p.duration("DEEPLINK_SETTLE_DELAY", 50*time.Millisecond),
			Highlight:   p.duration("HIGHLIGHT_DURATION", time.Second),
		},
		Inbox: InboxConfig{
			MarkReadDebounce: p.duration("MARK_READ_DEBOUNCE", 500*time.Millisecond),
			SeenCapacity:     p.positiveInt("NOTIFICATION_SEEN_CAPACITY", 512),
		},
		Auth: AuthConfig{
			Token: getEnv("AUTH_TOKEN", ""),
		},
	}

	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		p.errs = append(p.errs, err)
	}
	if cfg.Thread.SortOrder != "latest" && cfg.Thread.SortOrder != "oldest" {
		p.errs = append(p.errs, fmt.Errorf("THREAD_SORT: unknown sort order %q", cfg.Thread.SortOrder))
	}

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

// Addr возвращает адрес HTTP сервера
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser копит ошибки разбора, чтобы сообщить обо всех сразу
type parser struct {
	errs []error
}

func (p *parser) positiveInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: expected positive integer, got %q", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: expected duration, got %q", key, raw))
		return defaultValue
	}
	return v
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
