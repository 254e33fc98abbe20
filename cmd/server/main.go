package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/thereayou/teamflow/internal/server"
)

func main() {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	srv := server.NewServer()
	defer srv.Stop()

	srv.Run()
}
