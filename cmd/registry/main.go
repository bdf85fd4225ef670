package main

import (
	"log"

	"github.com/MrSnakeDoc/registry/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ registry failed to start: %v", err)
	}
}
