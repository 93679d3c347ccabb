package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oziev02/CommentThread/internal/config"
	httphandler "github.com/oziev02/CommentThread/internal/delivery/http"
	"github.com/oziev02/CommentThread/internal/domain"
	"github.com/oziev02/CommentThread/internal/infrastructure/api"
	"github.com/oziev02/CommentThread/internal/infrastructure/identity"
	"github.com/oziev02/CommentThread/internal/infrastructure/realtime"
	"github.com/oziev02/CommentThread/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	httpClient := &http.Client{Timeout: cfg.Services.Timeout}

	comments, err := api.NewCommentClient(cfg.Services.CommentURL, httpClient, cfg.Thread.PageLimit)
	if err != nil {
		logger.Error("failed to create comment client", "error", err)
		os.Exit(1)
	}
	notifications, err := api.NewNotificationClient(cfg.Services.NotificationURL, httpClient)
	if err != nil {
		logger.Error("failed to create notification client", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub(logger)
	user := identity.NewToken(cfg.Auth.Token)
	presenter := httphandler.NewFocusPresenter()

	thread := usecase.NewThread(cfg.Thread.PostID, comments, hub, user, usecase.ThreadConfig{
		SortOrder:   domain.SortOrder(cfg.Thread.SortOrder),
		SettleDelay: cfg.Thread.SettleDelay,
		Highlight:   cfg.Thread.Highlight,
		Presenter:   presenter,
		Logger:      logger,
	})

	inbox, err := usecase.NewNotificationInbox(notifications, hub, user, usecase.InboxConfig{
		MarkReadDebounce: cfg.Inbox.MarkReadDebounce,
		SeenCapacity:     cfg.Inbox.SeenCapacity,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create notification inbox", "error", err)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Services.Timeout)
	if cfg.Thread.PostID != "" {
		if err := thread.Mount(startCtx, nil); err != nil {
			logger.Warn("failed to load first page", "post_id", cfg.Thread.PostID, "error", err)
		}
	}
	if err := inbox.Start(startCtx); err != nil {
		logger.Warn("notifications disabled", "error", err)
	}
	cancelStart()

	mux := httphandler.NewRouter(thread, inbox, presenter, hub, logger)

	var handler http.Handler = mux
	handler = httphandler.CORSMiddleware(handler)
	handler = httphandler.LoggingMiddleware(logger, handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	inbox.Stop()
	thread.Unmount()

	logger.Info("server stopped")
}
