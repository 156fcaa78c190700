package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/MathKia/ttt-microservices-backend/modules/chatsession"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Session Server - ephemeral room chat ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	app.Register(chatsession.NewModule(app.Logger()))

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
	port := os.Getenv("CHAT_PORT")
	if port == "" {
		port = "4002"
	}

	log.Println("")
	log.Println("Chat Session Server started successfully!")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:" + port + "/ws?token=<socket token from registry>")
	log.Println("  Client events: join_room, send_message, exit")
	log.Println("")
	log.Printf("Health check: http://localhost:%s/health", port)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
