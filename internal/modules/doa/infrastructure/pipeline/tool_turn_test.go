package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChatModel is a scripted test double for model.BaseChatModel.
type mockChatModel struct {
	responses []*schema.Message
	errs      []error
	calls     int
	seenMsgs  [][]*schema.Message
}

func (m *mockChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	m.seenMsgs = append(m.seenMsgs, msgs)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return &schema.Message{Role: schema.Assistant, Content: "fallback"}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

// mockTool is a test double for tool.InvokableTool.
type mockTool struct {
	name   string
	result string
	err    error
	args   string
	calls  int
}

func (m *mockTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: m.name, Desc: "test tool"}, nil
}

func (m *mockTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	m.calls++
	m.args = argumentsInJSON
	return m.result, m.err
}

func promptMsgs() []schema.Message {
	return []schema.Message{
		{Role: schema.System, Content: "system"},
		{Role: schema.User, Content: "คำถาม"},
	}
}

func TestRunToolTurnDirectAnswerWithoutToolCall(t *testing.T) {
	cm := &mockChatModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "ตอบได้เลยไม่ต้องใช้เครื่องมือ"},
	}}
	search := &mockTool{name: "doa_dual_search", result: "{}"}
	p := &ChatPipeline{chatModel: cm, tools: []tool.BaseTool{search}}

	answer, err := p.runToolTurn(context.Background(), promptMsgs())
	require.NoError(t, err)
	assert.Equal(t, "ตอบได้เลยไม่ต้องใช้เครื่องมือ", answer)
	assert.Equal(t, 1, cm.calls)
	assert.Equal(t, 0, search.calls)
}

func TestRunToolTurnExecutesToolThenSecondResponse(t *testing.T) {
	cm := &mockChatModel{responses: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{
					ID: "call-1",
					Function: schema.FunctionCall{
						Name:      "doa_dual_search",
						Arguments: `{"query":"ฝึกอบรม"}`,
					},
				},
			},
		},
		{Role: schema.Assistant, Content: "คำตอบจากผลค้นหา [USED_DOC: 5]"},
	}}
	search := &mockTool{name: "doa_dual_search", result: `{"found":true}`}
	p := &ChatPipeline{chatModel: cm, tools: []tool.BaseTool{search}}

	answer, err := p.runToolTurn(context.Background(), promptMsgs())
	require.NoError(t, err)
	assert.Equal(t, "คำตอบจากผลค้นหา [USED_DOC: 5]", answer)
	assert.Equal(t, 2, cm.calls)
	assert.Equal(t, 1, search.calls)
	assert.Equal(t, `{"query":"ฝึกอบรม"}`, search.args)

	// 第二次请求里带了工具结果消息
	second := cm.seenMsgs[1]
	require.NotEmpty(t, second)
	last := second[len(second)-1]
	assert.Equal(t, schema.Tool, last.Role)
	assert.Equal(t, `{"found":true}`, last.Content)
	assert.Equal(t, "call-1", last.ToolCallID)
}

func TestRunToolTurnUnknownToolFails(t *testing.T) {
	cm := &mockChatModel{responses: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call-1", Function: schema.FunctionCall{Name: "delete_everything"}},
			},
		},
	}}
	search := &mockTool{name: "doa_dual_search"}
	p := &ChatPipeline{chatModel: cm, tools: []tool.BaseTool{search}}

	_, err := p.runToolTurn(context.Background(), promptMsgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete_everything")
	assert.Contains(t, err.Error(), "tool not found")
	// 不再有第二次模型调用
	assert.Equal(t, 1, cm.calls)
	assert.Equal(t, 0, search.calls)
}

func TestRunToolTurnToolErrorFails(t *testing.T) {
	cm := &mockChatModel{responses: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call-1", Function: schema.FunctionCall{Name: "doa_dual_search", Arguments: "{}"}},
			},
		},
	}}
	search := &mockTool{name: "doa_dual_search", err: errors.New("milvus timeout")}
	p := &ChatPipeline{chatModel: cm, tools: []tool.BaseTool{search}}

	_, err := p.runToolTurn(context.Background(), promptMsgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus timeout")
	assert.Equal(t, 1, cm.calls)
}

func TestRunToolTurnFirstModelErrorFails(t *testing.T) {
	cm := &mockChatModel{errs: []error{errors.New("rate limited")}}
	search := &mockTool{name: "doa_dual_search"}
	p := &ChatPipeline{chatModel: cm, tools: []tool.BaseTool{search}}

	_, err := p.runToolTurn(context.Background(), promptMsgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
