// Command webhook receives payment provider webhooks and reconciles them
// into orders.
package main

import (
	"log/slog"
	"os"

	"AgriConnect/config"
	"AgriConnect/internal/app"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// The logger is configured from cfg, so this line uses the default handler.
		slog.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}
	app.Run(cfg)
}
