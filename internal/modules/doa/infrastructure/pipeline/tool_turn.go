package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DoaLink/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// turnPhase 工具调用轮次的显式状态
type turnPhase int

const (
	turnAwaitingFirstResponse turnPhase = iota
	turnExecutingTools
	turnAwaitingSecondResponse
	turnDone
	turnFailed
)

func (s turnPhase) String() string {
	switch s {
	case turnAwaitingFirstResponse:
		return "awaiting_first_response"
	case turnExecutingTools:
		return "executing_tools"
	case turnAwaitingSecondResponse:
		return "awaiting_second_response"
	case turnDone:
		return "done"
	case turnFailed:
		return "failed"
	}
	return "unknown"
}

// runToolTurn 两阶段工具调用：第一次带工具声明请求模型，
// 模型要求调用则本地执行工具并把结果回填，再请求第二次拿最终回答。
// 模型未要求调用时第一次的内容就是最终回答。
func (p *ChatPipeline) runToolTurn(ctx context.Context, promptMsgs []schema.Message) (string, error) {
	toolInfos := make([]*schema.ToolInfo, 0, len(p.tools))
	for _, t := range p.tools {
		info, err := t.Info(ctx)
		if err != nil || info == nil {
			continue
		}
		toolInfos = append(toolInfos, info)
	}
	if len(toolInfos) == 0 {
		return "", errors.New("no usable tools")
	}

	msgs := make([]*schema.Message, 0, len(promptMsgs)+4)
	for i := range promptMsgs {
		msgs = append(msgs, &promptMsgs[i])
	}

	phase := turnAwaitingFirstResponse
	var toolCalls []schema.ToolCall
	var answer string

	for phase != turnDone && phase != turnFailed {
		switch phase {
		case turnAwaitingFirstResponse:
			resp, err := p.chatModel.Generate(ctx, msgs, model.WithTools(toolInfos))
			if err != nil {
				phase = turnFailed
				return "", err
			}
			if len(resp.ToolCalls) == 0 {
				answer = resp.Content
				phase = turnDone
				break
			}
			msgs = append(msgs, resp)
			toolCalls = resp.ToolCalls
			phase = turnExecutingTools

		case turnExecutingTools:
			for _, tc := range toolCalls {
				name := strings.TrimSpace(tc.Function.Name)
				result, err := p.invokeChatTool(ctx, name, tc.Function.Arguments)
				if err != nil {
					phase = turnFailed
					return "", fmt.Errorf("tool %q: %w", name, err)
				}
				msgs = append(msgs, &schema.Message{
					Role:       schema.Tool,
					Content:    result,
					ToolCallID: tc.ID,
				})
				zlog.Info("doa tool executed",
					zap.String("tool", name),
					zap.Int("result_len", len(result)))
			}
			phase = turnAwaitingSecondResponse

		case turnAwaitingSecondResponse:
			resp, err := p.chatModel.Generate(ctx, msgs)
			if err != nil {
				phase = turnFailed
				return "", err
			}
			answer = resp.Content
			phase = turnDone
		}
	}

	return answer, nil
}

// invokeChatTool 未注册的工具名直接判错，整轮失败
func (p *ChatPipeline) invokeChatTool(ctx context.Context, name string, args string) (string, error) {
	for _, t := range p.tools {
		info, _ := t.Info(ctx)
		if info != nil && info.Name == name {
			if invokable, ok := t.(tool.InvokableTool); ok {
				return invokable.InvokableRun(ctx, args)
			}
			return "", errors.New("tool is not invokable")
		}
	}
	return "", errors.New("tool not found")
}
