package onebot

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gouqi/novelai-bot/common/logger"
)

// Deduper 同一条消息可能因重连被重复推送
type Deduper interface {
	Seen(ctx context.Context, messageID string) bool
}

type RedisDeduper struct {
	Client redis.Cmdable
	TTL    time.Duration
	Prefix string
}

func (d *RedisDeduper) Seen(ctx context.Context, messageID string) bool {
	if messageID == "" || messageID == "0" {
		return false
	}
	ok, err := d.Client.SetNX(ctx, d.Prefix+messageID, "1", d.TTL).Result()
	if err != nil {
		// Redis 不可用时不去重
		logger.Warnf(ctx, "dedup setnx failed: %s", err.Error())
		return false
	}
	return !ok
}

type RingDeduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	ring  []string
	index int
}

func NewRingDeduper(size int) *RingDeduper {
	if size <= 0 {
		size = 1024
	}
	return &RingDeduper{
		seen: make(map[string]struct{}, size),
		ring: make([]string, size),
	}
}

func (d *RingDeduper) Seen(ctx context.Context, messageID string) bool {
	if messageID == "" || messageID == "0" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[messageID]; exists {
		return true
	}
	if old := d.ring[d.index]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.index] = messageID
	d.seen[messageID] = struct{}{}
	d.index = (d.index + 1) % len(d.ring)
	return false
}
