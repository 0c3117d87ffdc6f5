package main

import (
	"context"
	"log"

	"nutriplan-llm-be/internal/bootstrap"
	"nutriplan-llm-be/internal/config"
	"nutriplan-llm-be/internal/server"
	"nutriplan-llm-be/internal/tracer"
	"nutriplan-llm-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.SysLogger.Sync()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Dataset Writer...")
		if err := container.DatasetWriter.Consume(context.Background()); err != nil {
			log.Printf("Background Dataset Writer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
