package main

import (
	"github.com/joho/godotenv"

	"github.com/mvp-joe/classmap/internal/cli"
)

func main() {
	// CLASSMAP_* settings may live in a local .env file.
	_ = godotenv.Load()

	cli.Execute()
}
