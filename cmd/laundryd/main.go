package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-reservation-backend/config"
	"laundry-reservation-backend/internal/api"
	"laundry-reservation-backend/internal/clock"
	"laundry-reservation-backend/internal/db"
	"laundry-reservation-backend/internal/notify"
	"laundry-reservation-backend/internal/reservation"
	"laundry-reservation-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "laundryd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)
	logger.Printf("tracking %d machines", len(cfg.Machines))

	clk, err := clock.NewZoned(cfg.Reservation.Timezone)
	if err != nil {
		logger.Fatalf("failed to initialize clock: %v", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	// Assemble the notification channels. Both are best-effort; a machine
	// with neither configured still runs, it just stays quiet.
	var senders []notify.Sender
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		senders = append(senders, notify.NewPushSender(gormDB, webpushOptions))
		logger.Println("web push notifications enabled")
	} else {
		logger.Println("VAPID keys not configured; web push notifications disabled")
	}
	if cfg.Chat.Enabled {
		senders = append(senders, notify.NewChatSender(cfg.Chat))
		logger.Println("chat webhook notifications enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerPool := notify.NewWorkerPool(cfg.WorkerPool.Size, senders...)
	workerPool.Start(ctx)

	svc := reservation.NewService(cfg, appStore, clk, workerPool)
	go svc.Run(ctx)

	router := api.NewRouter(&cfg.Server, svc, appStore, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
