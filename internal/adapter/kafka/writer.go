// Package kafka publishes item events for downstream consumers that react
// to newly harvested STAC items (notification bots, search indexers).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

const eventType = "stac.item.published"

// Writer produces item events to a Kafka topic.
// It implements pipeline.ItemEventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewWriter creates a Kafka producer for the configured item event topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, clock: clockwork.NewRealClock()}
}

// PublishItem announces one published STAC item. The message key is the item
// ID so consumers see republished items in order.
func (w *Writer) PublishItem(ctx context.Context, collectionID string, item *stac.Item) error {
	msg, err := serializeToMessage(collectionID, item, w.clock.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write item event: %w", err)
	}
	w.logger.Debug("item event published", "item_id", item.ID, "collection_id", collectionID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a STAC item into a Kafka message.
func serializeToMessage(collectionID string, item *stac.Item, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize item %s: %w", item.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(item.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "collection_id", Value: []byte(collectionID)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
