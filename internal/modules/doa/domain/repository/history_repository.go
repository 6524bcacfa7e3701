package repository

import (
	"context"
	"time"

	"DoaLink/internal/modules/doa/domain/entity"
)

// HistoryRepository 会话历史存储（按 session_id 键控）
type HistoryRepository interface {
	// EnsureSession 会话不存在则建行，存在则只刷新 updated_at
	EnsureSession(ctx context.Context, sessionId, origin, title string) error

	// AppendMessage 追加一条消息
	AppendMessage(ctx context.Context, msg *entity.DoaChatMessage) error

	// ListMessages 按时间升序取全部历史
	ListMessages(ctx context.Context, sessionId string) ([]*entity.DoaChatMessage, error)

	// ListRecentMessages 取最近 limit 条，仍按时间升序返回
	ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.DoaChatMessage, error)

	// GetSession 查会话，不存在返回 nil
	GetSession(ctx context.Context, sessionId string) (*entity.DoaChatSession, error)
}

// ChatEventRepository 聊天审计事件 outbox
type ChatEventRepository interface {
	Append(ctx context.Context, ev *entity.DoaChatEvent) error
	ClaimForPublish(ctx context.Context, now time.Time, limit int) ([]*entity.DoaChatEvent, error)
	MarkPublished(ctx context.Context, id int64, topic string, partition int, offset int64, at time.Time) error
	MarkPublishFailed(ctx context.Context, id int64, nextRetryAt time.Time, reason string) error
}
