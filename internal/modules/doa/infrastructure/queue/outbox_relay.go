package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/domain/repository"
	"DoaLink/internal/modules/doa/infrastructure/mq"
	"DoaLink/pkg/zlog"

	"go.uber.org/zap"
)

// OutboxRelay 周期扫描 outbox 表，把聊天审计事件搬运到 Kafka
type OutboxRelay struct {
	repo         repository.ChatEventRepository
	pub          mq.Publisher
	defaultTopic string
	batchSize    int
	pollInterval time.Duration
}

func NewOutboxRelay(repo repository.ChatEventRepository, pub mq.Publisher, defaultTopic string, batchSize int, pollInterval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 200
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &OutboxRelay{
		repo:         repo,
		pub:          pub,
		defaultTopic: strings.TrimSpace(defaultTopic),
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	if r.repo == nil {
		return errors.New("chat event repo is nil")
	}
	if r.pub == nil {
		return errors.New("publisher is nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	backoff := r.pollInterval
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var wait time.Duration
		n, err := r.RunOnce(ctx)
		if err != nil {
			wait = backoff
			backoff = backoff * 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		} else {
			backoff = r.pollInterval
			if n == 0 {
				wait = r.pollInterval
			}
		}
		if wait == 0 {
			continue
		}

		// 等待期间也要响应退出信号
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	now := time.Now()
	events, err := r.repo.ClaimForPublish(ctx, now, r.batchSize)
	if err != nil {
		zlog.Warn("doa outbox relay claim failed", zap.Error(err))
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	for i := range events {
		ev := events[i]
		topic := r.defaultTopic
		if topic == "" {
			topic = strings.TrimSpace(ev.KafkaTopic)
		}
		if topic == "" {
			_ = r.repo.MarkPublishFailed(ctx, ev.Id, now.Add(5*time.Minute), "kafka topic is empty")
			continue
		}

		// 以会话ID为key，同一会话的事件落到同一分区保序
		key := []byte(ev.SessionId)
		if len(key) == 0 {
			key = []byte(strconv.FormatInt(ev.Id, 10))
		}

		res, pubErr := r.pub.Publish(ctx, mq.Message{
			Topic: topic,
			Key:   key,
			Value: []byte(ev.PayloadJson),
			Headers: map[string]string{
				"event_type": ev.EventType,
				"session_id": ev.SessionId,
				"dedup_key":  ev.DedupKey,
			},
		})
		if pubErr != nil {
			next := computeNextRetry(now, ev.RetryCount)
			_ = r.repo.MarkPublishFailed(ctx, ev.Id, next, pubErr.Error())
			continue
		}

		if err := r.repo.MarkPublished(ctx, ev.Id, topic, int(res.Partition), res.Offset, time.Now()); err != nil {
			zlog.Warn("doa outbox relay mark published failed", zap.Int64("id", ev.Id), zap.Error(err))
			continue
		}
		published++
	}

	return published, nil
}

func computeNextRetry(now time.Time, retryCount int) time.Time {
	if retryCount < 0 {
		retryCount = 0
	}
	d := 500 * time.Millisecond
	for i := 0; i < retryCount && d < 5*time.Minute; i++ {
		d = d * 2
	}
	if d > 5*time.Minute {
		d = 5 * time.Minute
	}
	return now.Add(d)
}
