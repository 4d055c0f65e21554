package main

import (
	"os"

	"github.com/lmittmann/tint"
	log "log/slog"

	"shealert/internal/bus"
)

func main() {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, nil)))
	log.Info("Starting alert watcher")

	wsURL := os.Getenv("BUS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8092/ws"
	}

	b, err := bus.Dial(wsURL)
	if err != nil {
		log.Error("failed to connect to bus", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	for {
		msg, err := b.Read()
		if bus.IsClosed(err) {
			log.Warn("Bus closed")
			return
		}
		if err != nil {
			log.Error("bus read failed", "error", err)
			return
		}
		if msg.Kind != bus.KindAlert || msg.Outcome == nil {
			continue
		}

		log.Warn("EMERGENCY ALERT",
			"from", msg.From,
			"time", msg.Outcome.Timestamp,
			"location", msg.Outcome.Address,
			"photo", msg.Outcome.Captured,
			"contacts", msg.Outcome.Notified,
		)
	}
}
