package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/application/dto/request"
	"DoaLink/internal/modules/doa/application/dto/respond"
	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/domain/repository"
	"DoaLink/internal/modules/doa/domain/session"
	"DoaLink/internal/modules/doa/infrastructure/pipeline"
	"DoaLink/pkg/zlog"

	"go.uber.org/zap"
)

// greetingMessage 空对话时的固定欢迎语，不走检索也不走模型
const greetingMessage = `สวัสดีค่ะ 👋 ดิฉันคือผู้ช่วยตอบคำถามนโยบาย Delegation of Authority (DOA)

สามารถสอบถามสิทธิการอนุมัติค่าใช้จ่ายได้ใน 10 หมวดหมู่:
1. การเงิน (Finance)
2. การตลาด (Marketing)
3. ทรัพยากรบุคคล (Human Resources)
4. ธุรการ (Administration)
5. จัดซื้อจัดจ้าง (Procurement)
6. การลงทุน (Investment)
7. โลจิสติกส์และขนส่ง (Logistics & Shipping)
8. ภาษีนำเข้า-ส่งออก (Import/Export Taxes)
9. การบริจาคและสินค้าสำเร็จรูป (Donation & FG)
10. การฝึกอบรมและสัมมนา (Training & Seminar)

ดูนโยบายฉบับเต็มได้ที่ https://doa.toagroup.com/doa ค่ะ`

// ChatService DOA 问答服务接口
type ChatService interface {
	// Chat 非流式聊天
	Chat(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (*respond.ChatRespond, error)

	// ChatWithTools 带工具调用的聊天（模型自主决定是否检索）
	ChatWithTools(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (*respond.ChatRespond, error)

	// ChatStream 流式聊天（返回channel用于WebSocket推送）
	ChatStream(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (<-chan StreamEvent, error)
}

// StreamEvent 流式事件
type StreamEvent struct {
	Event string      // "delta" or "done" or "error"
	Data  interface{} // delta: {token: "..."}, done: ChatRespond, error: {error: "..."}
}

type chatServiceImpl struct {
	resolver     *session.Resolver
	historyRepo  repository.HistoryRepository
	eventRepo    repository.ChatEventRepository
	pipeline     *pipeline.ChatPipeline
	toolPipeline *pipeline.ChatPipeline
	eventTopic   string
}

// NewChatService 创建ChatService
func NewChatService(
	resolver *session.Resolver,
	historyRepo repository.HistoryRepository,
	eventRepo repository.ChatEventRepository,
	pipe *pipeline.ChatPipeline,
	toolPipe *pipeline.ChatPipeline,
	eventTopic string,
) ChatService {
	return &chatServiceImpl{
		resolver:     resolver,
		historyRepo:  historyRepo,
		eventRepo:    eventRepo,
		pipeline:     pipe,
		toolPipeline: toolPipe,
		eventTopic:   strings.TrimSpace(eventTopic),
	}
}

func (s *chatServiceImpl) Chat(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (*respond.ChatRespond, error) {
	return s.chat(ctx, req, authenticatedUserID, s.pipeline)
}

func (s *chatServiceImpl) ChatWithTools(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (*respond.ChatRespond, error) {
	pipe := s.toolPipeline
	if pipe == nil {
		pipe = s.pipeline
	}
	return s.chat(ctx, req, authenticatedUserID, pipe)
}

func (s *chatServiceImpl) chat(ctx context.Context, req request.ChatRequest, authenticatedUserID string, pipe *pipeline.ChatPipeline) (*respond.ChatRespond, error) {
	res := s.resolver.Resolve(authenticatedUserID, req.SessionID)

	question := lastUserMessage(req.Messages)
	if question == "" {
		// 空对话：直接返回欢迎语，不检索、不调模型、不落库
		return s.buildRespond(greetingMessage, "", res, respond.TimingInfo{}), nil
	}

	pipeReq := &pipeline.ChatRequest{
		SessionID:    res.SessionID,
		IsNewSession: res.IsNew,
		Origin:       sessionOrigin(authenticatedUserID),
		Question:     question,
	}

	result, err := pipe.Execute(ctx, pipeReq)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}

	s.appendTurnEvent(ctx, res.SessionID, question, result)

	return s.buildRespond(result.Answer, result.UsedDocument, res, result.Timing), nil
}

func (s *chatServiceImpl) ChatStream(ctx context.Context, req request.ChatRequest, authenticatedUserID string) (<-chan StreamEvent, error) {
	res := s.resolver.Resolve(authenticatedUserID, req.SessionID)
	question := lastUserMessage(req.Messages)

	eventChan := make(chan StreamEvent, 100)

	go func() {
		defer close(eventChan)

		if question == "" {
			eventChan <- StreamEvent{Event: "done", Data: s.buildRespond(greetingMessage, "", res, respond.TimingInfo{})}
			return
		}

		pipeReq := &pipeline.ChatRequest{
			SessionID:    res.SessionID,
			IsNewSession: res.IsNew,
			Origin:       sessionOrigin(authenticatedUserID),
			Question:     question,
		}

		streamReader, st, err := s.pipeline.ExecuteStream(ctx, pipeReq)
		if err != nil {
			// 内部错误只落日志，推给前端的永远是统一致歉文案
			zlog.Error("doa chat stream failed",
				zap.Error(err),
				zap.String("session_id", res.SessionID))
			eventChan <- StreamEvent{Event: "error", Data: map[string]string{"error": respond.ErrorContent}}
			return
		}

		llmStart := time.Now()
		fullAnswer := ""
		for {
			chunk, err := streamReader.Recv()
			if err != nil {
				break // EOF or error
			}
			token := chunk.Content
			fullAnswer += token
			eventChan <- StreamEvent{Event: "delta", Data: map[string]string{"token": token}}
		}
		llmMs := time.Since(llmStart).Milliseconds()

		result, err := s.pipeline.PersistStreamResult(ctx, st, fullAnswer, llmMs)
		if err != nil {
			zlog.Error("doa persist stream result failed",
				zap.Error(err),
				zap.String("session_id", res.SessionID))
			eventChan <- StreamEvent{Event: "error", Data: map[string]string{"error": respond.ErrorContent}}
			return
		}

		s.appendTurnEvent(ctx, res.SessionID, question, result)

		eventChan <- StreamEvent{Event: "done", Data: s.buildRespond(result.Answer, result.UsedDocument, res, result.Timing)}
	}()

	return eventChan, nil
}

func (s *chatServiceImpl) buildRespond(content, usedDoc string, res session.Resolution, timing respond.TimingInfo) *respond.ChatRespond {
	out := &respond.ChatRespond{
		Content:        content,
		Type:           "text",
		Timestamp:      respond.NowTimestamp(),
		SessionID:      res.SessionID,
		IsNewSession:   res.IsNew,
		SessionUpdated: res.Updated,
	}
	if usedDoc != "" || timing.TotalMs > 0 {
		out.Metadata = &respond.ChatMetadata{
			UsedDocument: usedDoc,
			Timing:       timing,
		}
	}
	return out
}

// appendTurnEvent 回合审计事件进 outbox，失败只记日志
func (s *chatServiceImpl) appendTurnEvent(ctx context.Context, sessionID, question string, result *pipeline.ChatResult) {
	if s.eventRepo == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"sessionId":    sessionID,
		"questionLen":  len(question),
		"answerLen":    len(result.Answer),
		"usedDocument": result.UsedDocument,
		"timing":       result.Timing,
	})
	if err != nil {
		return
	}

	ev := &entity.DoaChatEvent{
		EventType:   "chat_turn_completed",
		SessionId:   sessionID,
		DedupKey:    fmt.Sprintf("%s:%d", sessionID, time.Now().UnixNano()),
		PayloadJson: string(payload),
		Status:      entity.EventStatusPending,
		KafkaTopic:  s.eventTopic,
		CreatedAt:   time.Now(),
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		zlog.Warn("doa append turn event failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func sessionOrigin(authenticatedUserID string) string {
	if strings.TrimSpace(authenticatedUserID) != "" {
		return entity.SessionOriginAuthenticated
	}
	return entity.SessionOriginWidget
}

// lastUserMessage 取最后一条非空消息作为当前轮问题
func lastUserMessage(messages []request.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" || messages[i].Role == "system" {
			continue
		}
		if content := strings.TrimSpace(messages[i].Content); content != "" {
			return content
		}
	}
	return ""
}
