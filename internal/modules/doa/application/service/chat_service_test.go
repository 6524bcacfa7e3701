package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"DoaLink/internal/modules/doa/application/dto/request"
	"DoaLink/internal/modules/doa/application/dto/respond"
	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/domain/retrieval"
	"DoaLink/internal/modules/doa/domain/session"
	"DoaLink/internal/modules/doa/infrastructure/assemble"
	"DoaLink/internal/modules/doa/infrastructure/expansion"
	"DoaLink/internal/modules/doa/infrastructure/llm"
	"DoaLink/internal/modules/doa/infrastructure/pipeline"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGreetingOnlyService() ChatService {
	// pipeline 为 nil：空对话必须在进 pipeline 之前短路，否则测试会 panic
	return NewChatService(session.NewResolver(24*time.Hour), nil, nil, nil, nil, "")
}

func TestChatEmptyMessagesReturnsGreeting(t *testing.T) {
	svc := newGreetingOnlyService()

	out, err := svc.Chat(context.Background(), request.ChatRequest{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text", out.Type)
	assert.Contains(t, out.Content, "Delegation of Authority")
	assert.Contains(t, out.Content, "https://doa.toagroup.com/doa")
	assert.True(t, out.IsNewSession)
	assert.True(t, strings.HasPrefix(out.SessionID, "widget_"))
	assert.NotEmpty(t, out.Timestamp)
	assert.Nil(t, out.Metadata)
}

func TestChatBlankMessagesAlsoGreet(t *testing.T) {
	svc := newGreetingOnlyService()

	out, err := svc.Chat(context.Background(), request.ChatRequest{
		Messages: []request.ChatMessage{
			{Role: "user", Content: "   "},
			{Role: "assistant", Content: "คำตอบเก่า"},
		},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, out.Content, "Delegation of Authority")
}

func TestChatGreetingKeepsAuthenticatedSession(t *testing.T) {
	svc := newGreetingOnlyService()

	out, err := svc.Chat(context.Background(), request.ChatRequest{}, "user-77")
	require.NoError(t, err)
	assert.Equal(t, "user-77", out.SessionID)
	assert.False(t, out.IsNewSession)
}

func TestGreetingListsAllCategories(t *testing.T) {
	for i := 1; i <= 10; i++ {
		assert.Contains(t, greetingMessage, "\n"+strconv.Itoa(i)+". ")
	}
}

type stubRetriever struct {
	docs []retrieval.Document
	err  error
}

func (s *stubRetriever) Search(ctx context.Context, query string) ([]retrieval.Document, error) {
	return s.docs, s.err
}

type stubChatModel struct{}

func (s *stubChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: "ok"}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type stubHistoryRepo struct{}

func (s *stubHistoryRepo) EnsureSession(ctx context.Context, sessionId, origin, title string) error {
	return nil
}

func (s *stubHistoryRepo) AppendMessage(ctx context.Context, msg *entity.DoaChatMessage) error {
	return nil
}

func (s *stubHistoryRepo) ListMessages(ctx context.Context, sessionId string) ([]*entity.DoaChatMessage, error) {
	return nil, nil
}

func (s *stubHistoryRepo) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.DoaChatMessage, error) {
	return nil, nil
}

func (s *stubHistoryRepo) GetSession(ctx context.Context, sessionId string) (*entity.DoaChatSession, error) {
	return nil, nil
}

func TestChatStreamMasksInternalErrors(t *testing.T) {
	failing := &stubRetriever{err: errors.New("milvus connection refused")}
	assembler := assemble.NewAssembler(failing, failing, 0, 0, 0)
	pipe, err := pipeline.NewChatPipeline(&stubHistoryRepo{}, expansion.NewExpander(nil), assembler, &stubChatModel{}, llm.ChatModelMeta{}, nil, 0)
	require.NoError(t, err)

	svc := NewChatService(session.NewResolver(24*time.Hour), &stubHistoryRepo{}, nil, pipe, nil, "")

	events, err := svc.ChatStream(context.Background(), request.ChatRequest{
		Messages: []request.ChatMessage{{Role: "user", Content: "MD อนุมัติได้เท่าไหร่"}},
	}, "")
	require.NoError(t, err)

	var got []StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Event)

	// 前端只能看到统一文案，检索层的报错不外泄
	data, ok := got[0].Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, respond.ErrorContent, data["error"])
	assert.NotContains(t, data["error"], "milvus")
}

func TestLastUserMessage(t *testing.T) {
	msgs := []request.ChatMessage{
		{Role: "user", Content: "คำถามแรก"},
		{Role: "assistant", Content: "คำตอบ"},
		{Role: "user", Content: "คำถามล่าสุด"},
	}
	assert.Equal(t, "คำถามล่าสุด", lastUserMessage(msgs))

	// assistant/system 不算当前轮问题
	msgs = append(msgs, request.ChatMessage{Role: "assistant", Content: "คำตอบใหม่"})
	assert.Equal(t, "คำถามล่าสุด", lastUserMessage(msgs))

	assert.Equal(t, "", lastUserMessage(nil))
}
