package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/infrastructure/assemble"
	"DoaLink/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// chatState Graph内部状态（在节点间传递）
type chatState struct {
	Req           *ChatRequest
	ExpandedQuery string
	Ctx           assemble.AssembledContext
	History       []*entity.DoaChatMessage
	PromptMsgs    []schema.Message
	Answer        string
	UsedDoc       string
	Start         time.Time
	ExpandMs      int64
	AssembleMs    int64
	LLMMs         int64
	Err           error
}

// Node 1: ExpandQuery - 同义词扩写
func (p *ChatPipeline) expandNode(ctx context.Context, req *ChatRequest, _ ...any) (*chatState, error) {
	st := &chatState{
		Req:   req,
		Start: time.Now(),
	}

	if strings.TrimSpace(req.SessionID) == "" {
		st.Err = fmt.Errorf("session_id is required")
		return st, nil
	}
	if strings.TrimSpace(req.Question) == "" {
		st.Err = fmt.Errorf("question is required")
		return st, nil
	}

	expandStart := time.Now()
	st.ExpandedQuery = p.expander.Expand(req.Question)
	st.ExpandMs = time.Since(expandStart).Milliseconds()

	zlog.Info("doa expand query done",
		zap.String("session_id", req.SessionID),
		zap.String("query", truncateTitle(req.Question)),
		zap.Int("expanded_len", len(st.ExpandedQuery)),
		zap.Bool("expanded", st.ExpandedQuery != req.Question))

	return st, nil
}

// Node 2: AssembleContext - 并发双路召回+拼装
func (p *ChatPipeline) assembleNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	assembleStart := time.Now()
	assembled, err := p.assembler.Assemble(ctx, st.ExpandedQuery)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Ctx = assembled
	st.AssembleMs = time.Since(assembleStart).Milliseconds()

	return st, nil
}

// Node 3: LoadHistory - 加载历史消息
// 历史读取失败则整轮失败，不带着残缺记忆去回答
func (p *ChatPipeline) loadHistoryNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	if st.Req.IsNewSession {
		st.History = []*entity.DoaChatMessage{}
		return st, nil
	}

	messages, err := p.historyRepo.ListRecentMessages(ctx, st.Req.SessionID, p.historyLimit)
	if err != nil {
		st.Err = fmt.Errorf("load history: %w", err)
		return st, nil
	}
	st.History = messages

	zlog.Info("doa load history done",
		zap.String("session_id", st.Req.SessionID),
		zap.Int("history_count", len(st.History)))

	return st, nil
}

// Node 4: BuildPrompt - 构建Prompt
func (p *ChatPipeline) buildPromptNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	promptMsgs := make([]schema.Message, 0, 1+len(st.History)+1)

	// 1. 系统提示词，注入两段上下文原文
	promptMsgs = append(promptMsgs, schema.Message{
		Role:    schema.System,
		Content: p.prompt.Render(st.Ctx.Overview, st.Ctx.Detail),
	})

	// 2. 历史消息按原顺序回放
	for _, msg := range st.History {
		role := schema.User
		if msg.Role == "assistant" {
			role = schema.Assistant
		} else if msg.Role == "system" {
			role = schema.System
		}
		promptMsgs = append(promptMsgs, schema.Message{
			Role:    role,
			Content: msg.Content,
		})
	}

	// 3. 当前用户问题
	promptMsgs = append(promptMsgs, schema.Message{
		Role:    schema.User,
		Content: st.Req.Question,
	})

	st.PromptMsgs = promptMsgs

	zlog.Info("doa build prompt done",
		zap.String("session_id", st.Req.SessionID),
		zap.Int("prompt_msgs", len(promptMsgs)),
		zap.Int("history_msgs", len(st.History)))

	return st, nil
}

// Node 5: ChatModel - 调用LLM（带工具则走两阶段工具流）
func (p *ChatPipeline) chatModelNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	llmStart := time.Now()

	var answer string
	var err error
	if len(p.tools) > 0 {
		answer, err = p.runToolTurn(ctx, st.PromptMsgs)
	} else {
		promptMsgs := make([]*schema.Message, len(st.PromptMsgs))
		for i := range st.PromptMsgs {
			promptMsgs[i] = &st.PromptMsgs[i]
		}
		var resp *schema.Message
		resp, err = p.chatModel.Generate(ctx, promptMsgs)
		if err == nil {
			answer = resp.Content
		}
	}
	if err != nil {
		st.Err = err
		return st, nil
	}

	st.Answer, st.UsedDoc = extractUsedDoc(answer)
	st.LLMMs = time.Since(llmStart).Milliseconds()

	zlog.Info("doa chat model done",
		zap.String("session_id", st.Req.SessionID),
		zap.Int("answer_len", len(st.Answer)),
		zap.String("used_doc", st.UsedDoc),
		zap.Int64("llm_ms", st.LLMMs))

	return st, nil
}

// Node 6: Persist - 持久化消息
// 模型已经成功产出，存储失败只记录日志，照样把回答还给用户
func (p *ChatPipeline) persistNode(ctx context.Context, st *chatState, _ ...any) (*ChatResult, error) {
	if st == nil {
		return &ChatResult{Err: fmt.Errorf("nil state")}, nil
	}
	if st.Err != nil {
		return p.buildFinalResult(st), nil
	}

	now := time.Now()

	// 1. 保存user消息
	userMsg := &entity.DoaChatMessage{
		SessionId: st.Req.SessionID,
		Role:      "user",
		Content:   st.Req.Question,
		CreatedAt: now,
	}
	if err := p.historyRepo.AppendMessage(ctx, userMsg); err != nil {
		zlog.Error("failed to save user message", zap.Error(err))
		// 不阻断流程
	}

	// 2. 保存assistant消息
	assistantMsg := &entity.DoaChatMessage{
		SessionId: st.Req.SessionID,
		Role:      "assistant",
		Content:   st.Answer,
		CreatedAt: now,
	}
	if err := p.historyRepo.AppendMessage(ctx, assistantMsg); err != nil {
		zlog.Error("failed to save assistant message", zap.Error(err))
	}

	// 3. 刷新session的updated_at
	if err := p.historyRepo.EnsureSession(ctx, st.Req.SessionID, st.Req.Origin, truncateTitle(st.Req.Question)); err != nil {
		zlog.Error("failed to touch session", zap.Error(err))
	}

	zlog.Info("doa persist done", zap.String("session_id", st.Req.SessionID))

	return p.buildFinalResult(st), nil
}

func (p *ChatPipeline) buildFinalResult(st *chatState) *ChatResult {
	result := &ChatResult{
		SessionID:    st.Req.SessionID,
		Answer:       st.Answer,
		UsedDocument: st.UsedDoc,
		Err:          st.Err,
	}
	result.Timing.ExpandMs = st.ExpandMs
	result.Timing.AssembleMs = st.AssembleMs
	result.Timing.LLMMs = st.LLMMs
	result.Timing.TotalMs = time.Since(st.Start).Milliseconds()
	return result
}

func truncateTitle(question string) string {
	runes := []rune(question)
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return question
}
