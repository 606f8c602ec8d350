package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"dm-lab/domain/event"
	httpserver "dm-lab/infrastructure/http"
	"dm-lab/infrastructure/http/handlers"
	"dm-lab/internal"
	"dm-lab/repositories"
	"dm-lab/runtime"
	"dm-lab/runtime/workers"
	"dm-lab/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until shutdown. Keeping the whole
// lifecycle in one error-returning function guarantees the defers run
// (database and index close) before the process exits.
func run() error {
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	userRepository := repositories.NewUserRepository(db)
	conversationRepository := repositories.NewConversationRepository(db, log)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	userIndex := repositories.NewUserIndex(indexWriter)

	events := make(chan event.DomainEvent, config.BufferSize)
	registry := runtime.NewRegistry()
	engine := runtime.NewEngine(log, userRepository, conversationRepository,
		messageRepository, events, config.DefaultMessageLimit, config.MaxContentLength)

	authService := services.NewAuthService(log, userRepository, userIndex, config.AuthTokenDuration)
	userService := services.NewUserService(log, userRepository, userIndex, config.SearchResultLimit)
	chatService := services.NewChatService(engine, registry)

	server := httpserver.NewServer(log, config.Host, config.Port,
		&handlers.AuthHandler{Auth: authService},
		&handlers.UserHandler{Users: userService, MaxAvatarBytes: config.MaxAvatarBytes},
		&handlers.ConversationHandler{Chat: chatService},
		&handlers.WSHandler{
			Chat:             chatService,
			BufferSize:       config.ConnectionBufferSize,
			SkipOriginVerify: config.WSSkipOriginVerify,
		})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting service", "host", config.Host, "port", config.Port)
	workers.NewSupervisor(log).Add(
		workers.NewEventFanout(log, registry, events, config.SinkTimeout),
		workers.NewHealthMonitoringWorker(log, config.MetricInterval),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{
			{Name: "events", Channel: events},
		}, config.MetricInterval),
		server,
	).Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
