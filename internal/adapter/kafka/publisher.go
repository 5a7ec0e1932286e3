package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// snapshotKey is shared by every snapshot so they all land on one partition
// and consumers see them in cycle order.
const snapshotKey = "hotspots"

// Publisher produces one message per recalculation cycle carrying the full
// hotspot set. It implements engine.SnapshotPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured hotspot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaHotspotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSnapshot serializes the snapshot and writes it under the shared
// snapshot key. The cycle ID travels in the headers.
func (p *Publisher) PublishSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	msg, err := serializeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish hotspot snapshot: %w", err)
	}
	p.logger.Debug("hotspot snapshot published",
		"cycle_id", snapshot.CycleID,
		"hotspots", len(snapshot.Hotspots),
		"topic", p.writer.Topic,
	)
	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeSnapshot marshals a Snapshot into a Kafka message.
func serializeSnapshot(snapshot domain.Snapshot) (kafkago.Message, error) {
	if snapshot.Hotspots == nil {
		snapshot.Hotspots = []domain.Hotspot{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hotspot snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshotKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cycle_id", Value: []byte(snapshot.CycleID)},
			{Key: "hotspot_count", Value: []byte(strconv.Itoa(len(snapshot.Hotspots)))},
			{Key: "generated_at", Value: []byte(snapshot.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
