package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"instaup-service/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on system env vars")
	}

	srv, err := app.NewServer()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	srv.Shutdown()
	log.Println("server stopped")
}
