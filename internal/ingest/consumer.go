package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/pkg/logger"
	"github.com/ignite/minicrm/internal/queue"
)

// CustomerStore is the write side of the persistent store for
// customers. CreateIfAbsent must be idempotent on the email natural
// key: a duplicate (including one racing a concurrent insert) returns
// created=false with no error.
type CustomerStore interface {
	CreateIfAbsent(ctx context.Context, c domain.Customer) (created bool, err error)
}

// OrderStore is the write side of the persistent store for orders.
// Inserts are unconditional; orders carry no dedup key.
type OrderStore interface {
	Insert(ctx context.Context, o domain.Order) error
}

// Options tunes the consumer loop.
type Options struct {
	Block        time.Duration // max wait per blocking read
	BatchSize    int64         // max messages per stream per read
	MaxAttempts  int           // attempts before dead-lettering a message
	Backoff      time.Duration // wait after a transport error
	StoreTimeout time.Duration // per-message persistence deadline
}

func (o *Options) withDefaults() {
	if o.Block == 0 {
		o.Block = 5 * time.Second
	}
	if o.BatchSize == 0 {
		o.BatchSize = 10
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 5
	}
	if o.Backoff == 0 {
		o.Backoff = 5 * time.Second
	}
	if o.StoreTimeout == 0 {
		o.StoreTimeout = 10 * time.Second
	}
}

// Processor routes a single wire record through normalization and
// persistence. The consumer loop and the synchronous drain endpoint
// share it so the two paths cannot diverge.
type Processor struct {
	customers    CustomerStore
	orders       OrderStore
	storeTimeout time.Duration
}

// NewProcessor creates a message processor.
func NewProcessor(customers CustomerStore, orders OrderStore, storeTimeout time.Duration) *Processor {
	if storeTimeout == 0 {
		storeTimeout = 10 * time.Second
	}
	return &Processor{customers: customers, orders: orders, storeTimeout: storeTimeout}
}

// Process normalizes and persists one record. A duplicate customer is
// success-as-skip; a record from an unknown stream is dropped.
func (p *Processor) Process(ctx context.Context, stream string, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	switch stream {
	case queue.CustomerStream:
		c := NormalizeCustomer(fields)
		created, err := p.customers.CreateIfAbsent(ctx, c)
		if err != nil {
			return fmt.Errorf("persist customer: %w", err)
		}
		if !created {
			logger.Info("skipped duplicate customer", "email", c.Email)
		}
		return nil
	case queue.OrderStream:
		o, err := NormalizeOrder(fields)
		if err != nil {
			return err
		}
		if err := p.orders.Insert(ctx, o); err != nil {
			return fmt.Errorf("persist order: %w", err)
		}
		return nil
	default:
		logger.Warn("record from unknown stream dropped", "stream", stream)
		return nil
	}
}

// attempts maps above this size indicate a flood of distinct failing
// messages; reset rather than grow without bound.
const maxTrackedAttempts = 4096

// Consumer is the long-running ingestion loop. It polls both streams
// with one blocking read, dispatches each message through the
// Processor, advances per-stream cursors on success, and dead-letters
// messages that exhaust their attempts. Exactly one instance should
// run at a time: cursor state is process-local.
type Consumer struct {
	queue     *queue.Store
	processor *Processor
	cursors   CursorStore
	streams   []string
	opts      Options
	attempts  map[string]int
}

// NewConsumer wires a consumer over the given queue, processor and
// cursor store. The cursor store decides where reading starts.
func NewConsumer(q *queue.Store, processor *Processor, cursors CursorStore, opts Options) *Consumer {
	opts.withDefaults()
	return &Consumer{
		queue:     q,
		processor: processor,
		cursors:   cursors,
		streams:   []string{queue.CustomerStream, queue.OrderStream},
		opts:      opts,
		attempts:  make(map[string]int),
	}
}

// Run executes the poll/dispatch loop until ctx is cancelled.
// Transport errors back off and retry; per-message errors never abort
// the loop.
func (c *Consumer) Run(ctx context.Context) error {
	logger.Info("ingestion consumer started",
		"streams", fmt.Sprint(c.streams),
		"block", c.opts.Block.String(),
		"batch", c.opts.BatchSize)

	for loop := 1; ; loop++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if loop%10 == 0 {
			logger.Info("consumer heartbeat", "loop", loop,
				"customer_cursor", c.cursors.Get(queue.CustomerStream),
				"order_cursor", c.cursors.Get(queue.OrderStream))
		}

		if err := c.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("stream read failed", "error", err.Error())
			if !sleepCtx(ctx, c.opts.Backoff) {
				return ctx.Err()
			}
		}
	}
}

// PollOnce issues a single blocking read across both streams and
// dispatches whatever arrived. A timeout with no data is not an error.
func (c *Consumer) PollOnce(ctx context.Context) error {
	cursors := make([]queue.Cursor, 0, len(c.streams))
	for _, s := range c.streams {
		cursors = append(cursors, queue.Cursor{Stream: s, LastID: c.cursors.Get(s)})
	}

	batches, err := c.queue.ReadBlocking(ctx, cursors, c.opts.BatchSize, c.opts.Block)
	if err != nil {
		return err
	}
	for _, b := range batches {
		c.dispatch(ctx, b)
	}
	return nil
}

// dispatch processes one stream's batch in arrival order. The cursor
// only advances through an unbroken prefix of handled messages: after
// the first still-retryable failure, later batch-mates are processed
// but left for re-delivery (idempotent customer writes make that safe;
// orders can duplicate — a documented limitation).
func (c *Consumer) dispatch(ctx context.Context, b queue.Batch) {
	stalled := false
	for _, msg := range b.Messages {
		key := b.Stream + "/" + msg.ID

		err := c.processor.Process(ctx, b.Stream, msg.Fields)
		if err == nil {
			delete(c.attempts, key)
			if !stalled {
				c.cursors.Advance(b.Stream, msg.ID)
			}
			continue
		}

		c.attempts[key]++
		logger.Error("message processing failed",
			"stream", b.Stream, "id", msg.ID,
			"attempt", c.attempts[key], "error", err.Error())

		if c.attempts[key] >= c.opts.MaxAttempts {
			if dlErr := c.deadLetter(ctx, b.Stream, msg, err); dlErr != nil {
				logger.Error("dead-letter append failed", "stream", b.Stream, "id", msg.ID, "error", dlErr.Error())
				stalled = true
				continue
			}
			delete(c.attempts, key)
			if !stalled {
				c.cursors.Advance(b.Stream, msg.ID)
			}
			continue
		}
		stalled = true
	}

	if len(c.attempts) > maxTrackedAttempts {
		logger.Warn("attempt tracker overflow, resetting", "size", len(c.attempts))
		c.attempts = make(map[string]int)
	}
}

// deadLetter moves a poison message to the stream's failed side
// channel, annotated with its origin ID and last error.
func (c *Consumer) deadLetter(ctx context.Context, stream string, msg queue.Message, cause error) error {
	fields := make(map[string]string, len(msg.Fields)+3)
	for k, v := range msg.Fields {
		fields[k] = v
	}
	fields["origin_id"] = msg.ID
	fields["error"] = cause.Error()
	fields["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	_, err := c.queue.Append(ctx, queue.DeadLetterStream(stream), fields)
	if err == nil {
		logger.Warn("message dead-lettered", "stream", stream, "id", msg.ID, "error", cause.Error())
	}
	return err
}

// sleepCtx waits for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
