// Command ammo manages the ammunition inventory from the command line.
package main

import (
	"context"
	"os"

	"github.com/JonMunkholm/ammo/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
