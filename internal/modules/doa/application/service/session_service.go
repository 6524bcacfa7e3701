package service

import (
	"context"
	"fmt"
	"strings"

	"DoaLink/internal/modules/doa/application/dto/request"
	"DoaLink/internal/modules/doa/application/dto/respond"
	"DoaLink/internal/modules/doa/domain/repository"
	"DoaLink/internal/modules/doa/domain/session"
)

// SessionService 会话管理服务接口
type SessionService interface {
	// ResolveSession 解析/铸造会话ID（不落库，落库发生在首轮对话）
	ResolveSession(ctx context.Context, req request.ResolveSessionRequest, authenticatedUserID string) (*respond.SessionRespond, error)

	// ListMessages 按时间升序取会话全部历史
	ListMessages(ctx context.Context, sessionID string) ([]respond.MessageItem, error)
}

type sessionServiceImpl struct {
	resolver    *session.Resolver
	historyRepo repository.HistoryRepository
}

// NewSessionService 创建SessionService
func NewSessionService(resolver *session.Resolver, historyRepo repository.HistoryRepository) SessionService {
	return &sessionServiceImpl{
		resolver:    resolver,
		historyRepo: historyRepo,
	}
}

func (s *sessionServiceImpl) ResolveSession(ctx context.Context, req request.ResolveSessionRequest, authenticatedUserID string) (*respond.SessionRespond, error) {
	userID := strings.TrimSpace(authenticatedUserID)
	if userID == "" {
		userID = strings.TrimSpace(req.UserID)
	}

	res := s.resolver.Resolve(userID, req.SessionID)
	return &respond.SessionRespond{
		SessionID:      res.SessionID,
		IsNewSession:   res.IsNew,
		SessionUpdated: res.Updated,
	}, nil
}

func (s *sessionServiceImpl) ListMessages(ctx context.Context, sessionID string) ([]respond.MessageItem, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	messages, err := s.historyRepo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]respond.MessageItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, respond.MessageItem{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return items, nil
}
