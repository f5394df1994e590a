package main

import (
	"github.com/joho/godotenv"

	"fairsearch/internal/cli"
)

func main() {
	// optional .env with provider API keys; absence is fine
	_ = godotenv.Load()

	cli.Execute()
}
