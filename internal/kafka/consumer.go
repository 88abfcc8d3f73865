package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ErrRetriesExhausted stops the consumer when one message keeps failing.
// Its offset stays uncommitted, so it is fetched again after a restart.
var ErrRetriesExhausted = errors.New("kafka: handler retries exhausted")

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int

	// A failing message is retried in place MaxAttempts times, waiting
	// Backoff between tries and doubling up to MaxBackoff.
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers)
}

func newConsumer(r messageReader, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:           r,
		workers:     workers,
		MaxAttempts: 10,
		Backoff:     200 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// Start fetches messages until ctx is done. Each partition is pinned to one
// worker, so offsets are committed in order and never past a message that
// has not been handled.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(lane <-chan kafka.Message) {
			defer wg.Done()
			for m := range lane {
				// once stopped, the rest of the lane is left uncommitted
				if ctx.Err() != nil {
					continue
				}
				if err := c.process(ctx, h, m); err != nil {
					cancel(err)
				}
			}
		}(lanes[i])
	}
	stop := func() error {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
		// kecilkan noise saat shutdown
		if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stop()
			}
			_ = stop()
			return err
		}
		select {
		case lanes[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return stop()
		}
	}
}

// process retries m in place and commits it once the handler accepts it.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	backoff := c.Backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil {
				log.Error().Err(err).Int("partition", m.Partition).Int64("offset", m.Offset).Msg("commit failed")
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil // shutting down, offset stays uncommitted
		}
		if c.MaxAttempts > 0 && attempt >= c.MaxAttempts {
			return fmt.Errorf("%w: %s/%d@%d: %v", ErrRetriesExhausted, m.Topic, m.Partition, m.Offset, err)
		}
		log.Warn().Err(err).
			Str("topic", m.Topic).
			Int("partition", m.Partition).
			Int64("offset", m.Offset).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("handler failed, retrying")

		select {
		case <-time.After(backoff): // backoff ringan
		case <-ctx.Done():
			return nil
		}
		backoff = min(backoff*2, c.MaxBackoff)
	}
}
