package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/MathKia/ttt-microservices-backend/modules/api"
	"github.com/MathKia/ttt-microservices-backend/modules/audit"
	"github.com/MathKia/ttt-microservices-backend/modules/registry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Room Registry - persistent room membership service ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	registryModule := registry.NewModule(app.Logger())
	auditModule := audit.NewModule(app.Logger())
	apiModule := api.NewModule(registryModule, app.Logger())

	// Order: store first, then consumers, then the HTTP surface.
	app.Register(registryModule)
	app.Register(auditModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("ROOM_PORT")
	if port == "" {
		port = "4000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Room Registry started successfully!")
	log.Println("")
	log.Printf("Event Bus (NATS JetStream): %s", natsURL)
	log.Println("  MatchFinished, RoomVacated events from the session servers feed the audit module")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health          - Health check")
	log.Println("  POST   /api/room/join   - Join a room (issues socket token)")
	log.Println("  POST   /api/room/exit   - Leave a room (idempotent)")
	log.Println("")
	log.Println("Auth modes: browser (cookie), desktop/mobile (bearer), socket (trusted)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
