package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/pets"
)

// DefaultMinMoveMeters drops chip jitter: a fix this close to the last one
// written for the pet is committed but not stored.
const DefaultMinMoveMeters = 10.0

// LocationWriter stores one fix. Satisfied by *pets.Store.
type LocationWriter interface {
	UpdateLocation(ctx context.Context, fix pets.Fix) error
}

// ConsumerConfig holds configuration for the Kafka consumer.
type ConsumerConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	BatchSize    int
	BatchTimeout time.Duration
	// MinMoveMeters is the planar distance a fix must exceed from the last
	// written fix of the same pet. Defaults to DefaultMinMoveMeters.
	MinMoveMeters float64
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads chip fixes from Kafka in batches. Offsets are committed
// only after the batch has been written.
type Consumer struct {
	reader       messageReader
	writer       LocationWriter
	logger       *slog.Logger
	batchSize    int
	batchTimeout time.Duration
	minMove      float64

	fixes       []pets.Fix
	pending     []kafka.Message
	lastWritten map[uuid.UUID]geo.Coordinate
}

// NewConsumer creates a consumer for the given config.
func NewConsumer(cfg ConsumerConfig, writer LocationWriter, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return newConsumer(reader, cfg, writer, logger)
}

func newConsumer(reader messageReader, cfg ConsumerConfig, writer LocationWriter, logger *slog.Logger) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.MinMoveMeters <= 0 {
		cfg.MinMoveMeters = DefaultMinMoveMeters
	}
	return &Consumer{
		reader:       reader,
		writer:       writer,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
		minMove:      cfg.MinMoveMeters,
		lastWritten:  make(map[uuid.UUID]geo.Coordinate),
	}
}

// Run consumes messages until ctx is cancelled. Intended to be called with `go`.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("Chip fix consumer started", "batch_size", c.batchSize)
	timer := time.NewTimer(c.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Flush with a fresh context so buffered fixes are not lost.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.flush(flushCtx)
			cancel()
			c.logger.Info("Chip fix consumer stopped")
			return
		case <-timer.C:
			c.flush(ctx)
			timer.Reset(c.batchTimeout)
		default:
			readCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			msg, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					continue
				}
				c.logger.Error("Fetch chip fix failed", "error", err)
				continue
			}

			c.pending = append(c.pending, msg)
			fix, err := DecodeFix(msg.Value)
			if err != nil {
				c.logger.Warn("Invalid chip fix", "error", err, "offset", msg.Offset)
				continue
			}
			c.fixes = append(c.fixes, fix)

			if len(c.pending) >= c.batchSize {
				c.flush(ctx)
				timer.Reset(c.batchTimeout)
			}
		}
	}
}

// flush writes buffered fixes and commits their offsets. A fix that fails to
// write is logged and skipped; redelivery would not fix an unknown pet.
func (c *Consumer) flush(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}

	written, skipped := 0, 0
	for _, fix := range Latest(c.fixes) {
		if !c.movedEnough(fix) {
			skipped++
			continue
		}
		if err := c.writer.UpdateLocation(ctx, fix); err != nil {
			c.logger.Warn("Write chip fix failed",
				"pet_id", fix.PetID, "owner_id", fix.OwnerID, "error", err)
			continue
		}
		c.lastWritten[fix.PetID] = fix.Position
		written++
	}

	if err := c.reader.CommitMessages(ctx, c.pending...); err != nil {
		c.logger.Error("Commit chip fixes failed", "count", len(c.pending), "error", err)
	}
	c.logger.Debug("Chip fixes flushed", "messages", len(c.pending), "written", written, "skipped", skipped)

	c.fixes = c.fixes[:0]
	c.pending = c.pending[:0]
}

// movedEnough reports whether fix is far enough from the last fix written for
// its pet. The first fix seen for a pet is always written.
func (c *Consumer) movedEnough(fix pets.Fix) bool {
	last, ok := c.lastWritten[fix.PetID]
	if !ok {
		return true
	}
	return geo.Equirectangular(last, fix.Position) > c.minMove
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
