package main

import (
	"context"
	"log"
	_ "time/tzdata" // SHORTENER_DISPLAY_TIMEZONE must resolve in scratch images

	"github.com/sundayezeilo/linkshort/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	application, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
	}()

	// Blocks until a shutdown signal.
	return application.Start(ctx)
}
