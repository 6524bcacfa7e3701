package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/domain/repository"

	"gorm.io/gorm"
)

type historyRepositoryImpl struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepositoryImpl{db: db}
}

func (r *historyRepositoryImpl) EnsureSession(ctx context.Context, sessionId, origin, title string) error {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return errors.New("session_id is empty")
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&entity.DoaChatSession{}).
		Where("session_id = ?", sessionId).
		Updates(map[string]interface{}{"updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&entity.DoaChatSession{
		SessionId: sessionId,
		Origin:    origin,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func (r *historyRepositoryImpl) AppendMessage(ctx context.Context, msg *entity.DoaChatMessage) error {
	if msg == nil {
		return nil
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *historyRepositoryImpl) ListMessages(ctx context.Context, sessionId string) ([]*entity.DoaChatMessage, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return []*entity.DoaChatMessage{}, nil
	}

	var messages []*entity.DoaChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *historyRepositoryImpl) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.DoaChatMessage, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return []*entity.DoaChatMessage{}, nil
	}
	if limit <= 0 {
		limit = 12
	}

	// 取最近limit条后翻回时间升序
	var messages []*entity.DoaChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *historyRepositoryImpl) GetSession(ctx context.Context, sessionId string) (*entity.DoaChatSession, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil, nil
	}

	var session entity.DoaChatSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Take(&session).Error
	if err == nil {
		return &session, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}
