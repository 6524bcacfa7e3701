package persistence

import (
	"context"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatEventRepositoryImpl struct {
	db *gorm.DB
}

func NewChatEventRepository(db *gorm.DB) repository.ChatEventRepository {
	return &chatEventRepositoryImpl{db: db}
}

func (r *chatEventRepositoryImpl) Append(ctx context.Context, ev *entity.DoaChatEvent) error {
	if ev == nil {
		return nil
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	// dedup_key 唯一索引，重复事件静默吞掉
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev).Error
}

func (r *chatEventRepositoryImpl) ClaimForPublish(ctx context.Context, now time.Time, limit int) ([]*entity.DoaChatEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var out []*entity.DoaChatEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []*entity.DoaChatEvent
		q := tx.Model(&entity.DoaChatEvent{}).
			Where("status IN ?", []int8{entity.EventStatusPending, entity.EventStatusFailed}).
			Where("(next_retry_at IS NULL OR next_retry_at <= ?)", now).
			Order("id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			out = []*entity.DoaChatEvent{}
			return nil
		}

		ids := make([]int64, 0, len(events))
		for i := range events {
			ids = append(ids, events[i].Id)
		}
		if err := tx.Model(&entity.DoaChatEvent{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"next_retry_at": now.Add(time.Minute)}).Error; err != nil {
			return err
		}

		out = events
		return nil
	})
	return out, err
}

func (r *chatEventRepositoryImpl) MarkPublished(ctx context.Context, id int64, topic string, partition int, offset int64, at time.Time) error {
	topic = strings.TrimSpace(topic)
	updates := map[string]any{
		"status":       entity.EventStatusPublished,
		"kafka_topic":  topic,
		"partition":    partition,
		"offset_val":   offset,
		"published_at": at,
		"last_error":   "",
	}
	return r.db.WithContext(ctx).Model(&entity.DoaChatEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *chatEventRepositoryImpl) MarkPublishFailed(ctx context.Context, id int64, nextRetryAt time.Time, reason string) error {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		reason = reason[:500]
	}
	updates := map[string]any{
		"status":        entity.EventStatusFailed,
		"retry_count":   gorm.Expr("retry_count + ?", 1),
		"next_retry_at": nextRetryAt,
		"last_error":    reason,
	}
	return r.db.WithContext(ctx).Model(&entity.DoaChatEvent{}).Where("id = ?", id).Updates(updates).Error
}
