package main

import (
	"log"

	"github.com/bridgeworks/slackrelay/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("slackrelay failed to start: %v", err)
	}
}
