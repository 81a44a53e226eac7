package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Tes-sudo/Vesteria/pkg/vesteria"
)

func main() {
	// A missing .env file is fine; configuration falls back to the
	// process environment and built-in defaults.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := vesteria.Main(ctx, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("vesteria exited")
	}
}
