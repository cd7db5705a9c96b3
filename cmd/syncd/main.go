package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlas-sync-engine/internal/config"
	"atlas-sync-engine/internal/handler"
	"atlas-sync-engine/internal/middleware"
	"atlas-sync-engine/internal/realtime"
	"atlas-sync-engine/internal/repository"
	"atlas-sync-engine/internal/service"
	"atlas-sync-engine/pkg/token"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to local store: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created local database: %s", cfg.Database.Name)
	}

	queueRepo := repository.NewQueueRepository(client, cfg.Database.Name)
	cursorRepo := repository.NewCursorRepository(client, cfg.Database.Name)
	deviceRepo := repository.NewDeviceRepository(client, cfg.Database.Name)
	recordRepo := repository.NewRecordRepository(client, cfg.Database.Name)

	deviceService := service.NewDeviceService(deviceRepo)
	device, err := deviceService.Identity(cfg.Device.Name)
	if err != nil {
		log.Fatalf("Failed to establish device identity: %v", err)
	}
	log.Printf("Device identity: %s (%s)", device.ID, device.Name)

	if cfg.Remote.AccessToken != "" && token.Expired(cfg.Remote.AccessToken, time.Now()) {
		log.Printf("Warning: the configured sync access token is expired; uploads will be rejected until the device is re-paired")
	}

	dispatcher := service.NewHTTPDispatcher(cfg.Remote.Endpoint, device.ID, cfg.Remote.AccessToken, cfg.Remote.RequestTimeout)
	resolver := service.NewResolver()
	retryController := service.NewRetryController(dispatcher, cfg.Sync.RetryInterval)
	downloader := service.NewDownloader(cfg.Remote.Endpoint, device.ID, cfg.Remote.AccessToken, cfg.Remote.RequestTimeout, cursorRepo, recordRepo)
	connectivity := service.NewHTTPConnectivityChecker(cfg.Remote.Endpoint+"/health", cfg.Sync.ProbeTimeout)

	orchestrator := service.NewOrchestrator(queueRepo, dispatcher, resolver, retryController, downloader, connectivity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sync.Interval > 0 {
		go orchestrator.StartPeriodicSync(ctx, cfg.Sync.Interval)
	}

	if cfg.Remote.WebSocketURL != "" {
		listener := realtime.NewListener(cfg.Remote.WebSocketURL, device.ID, cfg.Remote.AccessToken, func(category string) {
			log.Printf("Change feed: server updated %s, triggering sync", category)
			go func() {
				if _, err := orchestrator.Run(ctx); err != nil && err != service.ErrSyncInProgress {
					log.Printf("Feed-triggered sync failed: %v", err)
				}
			}()
		})
		go listener.Run(ctx)
	}

	queueHandler := handler.NewQueueHandler(queueRepo)
	syncHandler := handler.NewSyncHandler(orchestrator)
	deviceHandler := handler.NewDeviceHandler(deviceService)

	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware())

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/queue", queueHandler.Enqueue).Methods("POST")
	api.HandleFunc("/queue", queueHandler.List).Methods("GET")
	api.HandleFunc("/queue/{id}", queueHandler.Remove).Methods("DELETE")

	api.HandleFunc("/sync/run", syncHandler.Run).Methods("POST")
	api.HandleFunc("/sync/status", syncHandler.Status).Methods("GET")
	api.HandleFunc("/sync/last", syncHandler.Last).Methods("GET")

	api.HandleFunc("/device/pair", deviceHandler.Pair).Methods("POST")
	api.HandleFunc("/device/verify", deviceHandler.Verify).Methods("POST")

	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting ATLAS sync daemon on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Remote endpoint: %s", cfg.Remote.Endpoint)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Daemon failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sync daemon...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Daemon forced to shutdown: %v", err)
	}

	log.Println("Sync daemon stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"atlas-sync-engine"}`))
}
