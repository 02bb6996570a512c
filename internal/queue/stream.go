// Package queue wraps Redis Streams as the durable ingestion queue.
// Producers append flat string-keyed records; the consumer reads both
// streams with a single blocking XREAD keyed by per-stream cursors.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names used by the ingestion pipeline.
const (
	CustomerStream = "customer_stream"
	OrderStream    = "order_stream"
)

// DeadLetterStream returns the side stream that holds messages which
// exhausted their processing attempts.
func DeadLetterStream(stream string) string {
	return stream + "_failed"
}

// Message is one entry in a stream. IDs are store-assigned, strictly
// increasing and string-sortable within a stream.
type Message struct {
	ID     string
	Fields map[string]string
}

// Cursor pairs a stream name with the exclusive lower bound for the
// next read.
type Cursor struct {
	Stream string
	LastID string
}

// Batch holds the messages read from a single stream.
type Batch struct {
	Stream   string
	Messages []Message
}

// Store is a thin client over Redis Streams.
type Store struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Open connects to Redis using a redis:// URL.
func Open(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// Append adds a record to the stream with an auto-generated ID.
func (s *Store) Append(ctx context.Context, stream string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	return id, nil
}

// ReadBlocking issues one blocking read across all cursors. A nil
// result with nil error means the wait elapsed with no data.
func (s *Store) ReadBlocking(ctx context.Context, cursors []Cursor, count int64, block time.Duration) ([]Batch, error) {
	streams := make([]string, 0, len(cursors)*2)
	for _, c := range cursors {
		streams = append(streams, c.Stream)
	}
	for _, c := range cursors {
		streams = append(streams, c.LastID)
	}

	res, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: streams,
		Count:   count,
		Block:   block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xread: %w", err)
	}

	batches := make([]Batch, 0, len(res))
	for _, xs := range res {
		batches = append(batches, Batch{Stream: xs.Stream, Messages: toMessages(xs.Messages)})
	}
	return batches, nil
}

// Len returns the number of entries in a stream.
func (s *Store) Len(ctx context.Context, stream string) (int64, error) {
	return s.rdb.XLen(ctx, stream).Result()
}

// Range returns every entry in the stream in append order.
func (s *Store) Range(ctx context.Context, stream string) ([]Message, error) {
	msgs, err := s.rdb.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("xrange %s: %w", stream, err)
	}
	return toMessages(msgs), nil
}

// RevRange returns the newest entries first, up to count.
func (s *Store) RevRange(ctx context.Context, stream string, count int64) ([]Message, error) {
	msgs, err := s.rdb.XRevRangeN(ctx, stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", stream, err)
	}
	return toMessages(msgs), nil
}

// Client exposes the underlying Redis client for components that need
// raw commands, like the consumer's distributed lock.
func (s *Store) Client() *redis.Client {
	return s.rdb
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func toMessages(in []redis.XMessage) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		fields := make(map[string]string, len(m.Values))
		for k, v := range m.Values {
			fields[k] = fmt.Sprint(v)
		}
		out = append(out, Message{ID: m.ID, Fields: fields})
	}
	return out
}
