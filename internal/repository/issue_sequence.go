package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// IssueSequence allocates monotonically increasing per-year sequence numbers
// for issue ids of the form CR-YYYY-NNN.
type IssueSequence interface {
	Next(ctx context.Context, year int) (int64, error)
}

// FormatIssueID renders the canonical id for a year and sequence number.
func FormatIssueID(year int, seq int64) string {
	return fmt.Sprintf("CR-%d-%03d", year, seq)
}

type redisIssueSequence struct {
	client *redis.Client
}

// NewRedisIssueSequence allocates ids through a Redis counter so concurrent
// instances never collide.
func NewRedisIssueSequence(client *redis.Client) IssueSequence {
	return &redisIssueSequence{client: client}
}

func (s *redisIssueSequence) Next(ctx context.Context, year int) (int64, error) {
	key := fmt.Sprintf("issue_seq:%d", year)
	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return seq, nil
}

type memoryIssueSequence struct {
	mu       sync.Mutex
	counters map[int]int64
}

// NewMemoryIssueSequence is the single-process fallback allocator.
func NewMemoryIssueSequence() IssueSequence {
	return &memoryIssueSequence{counters: make(map[int]int64)}
}

func (s *memoryIssueSequence) Next(ctx context.Context, year int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[year]++
	return s.counters[year], nil
}
