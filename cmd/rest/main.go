package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-policydesk-be/internal/bootstrap"
	"ai-policydesk-be/internal/config"
	"ai-policydesk-be/internal/server"
	"ai-policydesk-be/internal/tracer"
	"ai-policydesk-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database (only when a Postgres-backed component is configured)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		if cfg.Rag.Retriever == "pgvector" {
			if err := database.EnsureExtensions(ctx, cfg.Database.Connection); err != nil {
				log.Printf("[WARN] Failed to ensure extensions: %v", err)
			}
		}
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to bootstrap: %v", err)
	}

	// 5. Start Background Services
	container.Start(ctx)

	// 6. Initialize and Run Server
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	container.Close()
}
