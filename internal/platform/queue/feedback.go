package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Dequeue when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue: empty")

const deliveredKeyPrefix = "feedback:delivered:"

// FeedbackQueue is a FIFO list of JSON encoded feedback messages.
// Producers LPUSH and consumers BRPOP.
type FeedbackQueue struct {
	rdb  *redis.Client
	name string
}

func NewFeedbackQueue(rdb *redis.Client, name string) *FeedbackQueue {
	return &FeedbackQueue{rdb: rdb, name: name}
}

func (q *FeedbackQueue) Name() string { return q.name }

func (q *FeedbackQueue) Enqueue(ctx context.Context, fb *model.Feedback) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", q.name, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next message.
func (q *FeedbackQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.Feedback, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, ErrEmpty
	}
	fb := &model.Feedback{}
	if err := json.Unmarshal([]byte(res[1]), fb); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return fb, nil
}

// Requeue puts fb back at the consuming end so it is retried next.
func (q *FeedbackQueue) Requeue(ctx context.Context, fb *model.Feedback) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	return q.rdb.RPush(ctx, q.name, payload).Err()
}

// MarkDelivered records that id was sent. It returns false when another
// consumer already claimed it.
func (q *FeedbackQueue) MarkDelivered(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return q.rdb.SetNX(ctx, deliveredKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseDelivered undoes MarkDelivered after a failed send.
func (q *FeedbackQueue) ReleaseDelivered(ctx context.Context, id string) error {
	return q.rdb.Del(ctx, deliveredKeyPrefix+id).Err()
}
