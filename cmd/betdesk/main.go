package main

import (
	"github.com/joho/godotenv"

	"betdesk/internal/cli"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()
	cli.Execute()
}
