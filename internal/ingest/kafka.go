package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"biogasd/internal/config"
	"biogasd/internal/live"
)

// StartKafka consumes sensor frames from a Kafka topic, for deployments
// where an edge gateway republishes the broker traffic. Frames share the
// session event stream with MQTT so processing order stays single-threaded.
func StartKafka(ctx context.Context, cfg *config.Manager, session *live.Session, logger *slog.Logger) {
	current := cfg.Get().Ingest.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka ingest disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka ingest enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				if !BackoffSleep(ctx, time.Second) {
					return
				}
				continue
			}
			session.Submit(live.Event{
				Kind:    live.EventMessage,
				Topic:   m.Topic,
				Payload: m.Value,
				At:      time.Now().UTC(),
			})
		}
	}()
}
