package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/store-locator-etl/internal/config"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per labeled store record.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Load serializes every record of the table and publishes them in a single
// WriteMessages call. Records of one chain share a key prefix so the hash
// balancer keeps re-scrapes of a store on one partition.
func (w *Writer) Load(ctx context.Context, run domain.Run, t table.Table) error {
	if len(t.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(t.Records))
	for i := range t.Records {
		msg, err := serializeToMessage(run, t.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: write %d records: %w", len(msgs), err)
	}
	w.logger.Info("published store records", "count", len(msgs), "run_id", run.ID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// StoreMessage is the JSON value of one published record.
type StoreMessage struct {
	ID        string            `json:"id"`
	RunID     string            `json:"run_id"`
	ScrapedAt time.Time         `json:"scraped_at"`
	Chain     string            `json:"chain"`
	Name      string            `json:"name"`
	Address   string            `json:"address,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Hours     string            `json:"hours,omitempty"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Type      string            `json:"type,omitempty"`
	City      string            `json:"city"`
	Extras    map[string]string `json:"extras,omitempty"`
}

func serializeToMessage(run domain.Run, r domain.StoreRecord) (kafkago.Message, error) {
	m := StoreMessage{
		ID:        r.ID(),
		RunID:     run.ID,
		ScrapedAt: run.StartedAt,
		Chain:     r.Chain,
		Name:      r.Name,
		Address:   r.Address,
		Phone:     r.Phone,
		Hours:     r.Hours,
		Type:      r.StoreType,
		City:      r.City,
		Extras:    r.ExtraValues(),
	}
	if r.HasCoordinate() {
		lat, lng := r.Coordinate.Latitude, r.Coordinate.Longitude
		m.Latitude, m.Longitude = &lat, &lng
	}
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize store record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "chain", Value: []byte(r.Chain)},
			{Key: "city", Value: []byte(r.City)},
			{Key: "scraped_at", Value: []byte(run.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}
