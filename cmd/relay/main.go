package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/auth"
	"chat-relay/domain/event"
	"chat-relay/httpapi"
	"chat-relay/repositories"
	"chat-relay/responder"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle.
// Centralizing errors here keeps every defer (database close included)
// running before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories
	messageRepository := repositories.NewMessageRepository(db, log)
	roomRepository, err := repositories.NewRoomRepository(db)
	if err != nil {
		return fmt.Errorf("room repository init failed: %w", err)
	}
	defer func() { _ = roomRepository.Close() }()
	userRepository, err := repositories.NewUserRepository(db)
	if err != nil {
		return fmt.Errorf("user repository init failed: %w", err)
	}
	defer func() { _ = userRepository.Close() }()

	// 4. Personality catalogue
	descriptors := []responder.Descriptor{responder.NewEcho()}
	descriptors = append(descriptors, responder.OpenAIDescriptors(config.OpenAIAPIKey)...)
	descriptors = append(descriptors, responder.AnthropicDescriptors(config.AnthropicAPIKey)...)
	personalities := responder.Load(log, descriptors...)

	// 5. Runtime: coordinator, fanout, supervision
	events := make(chan event.DomainEvent, config.BufferSize)
	registry := runtime.NewRegistry()
	coordinator := runtime.NewCoordinator(log, roomRepository, messageRepository, personalities, events, config.ResponderTimeout)

	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewEventFanout(log, registry, events),
		workers.NewHeartbeatWorker(log, config.HeartbeatInterval),
	)

	// 6. Services & transports
	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenDuration)
	chatService := services.NewChatService(coordinator, roomRepository, messageRepository)
	authService := services.NewAuthService(log, userRepository, tokens)
	adminService := services.NewAdminService(log, roomRepository, messageRepository, coordinator)

	realtime := ws.NewServer(log, chatService, tokens, registry)
	api := httpapi.NewServer(log, authService, adminService, chatService, tokens, personalities, realtime)

	// 7. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 8. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not complete cleanly", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
