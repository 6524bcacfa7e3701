package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"DoaLink/internal/modules/doa/domain/entity"
	"DoaLink/internal/modules/doa/infrastructure/assemble"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistoryRepo struct {
	history    []*entity.DoaChatMessage
	listErr    error
	listCalls  int
	appended   []*entity.DoaChatMessage
	appendErr  error
	sessions   []string
	titles     []string
	ensureErr  error
	gotSession string
}

func (m *mockHistoryRepo) EnsureSession(ctx context.Context, sessionId, origin, title string) error {
	m.sessions = append(m.sessions, sessionId)
	m.titles = append(m.titles, title)
	return m.ensureErr
}

func (m *mockHistoryRepo) AppendMessage(ctx context.Context, msg *entity.DoaChatMessage) error {
	m.appended = append(m.appended, msg)
	return m.appendErr
}

func (m *mockHistoryRepo) ListMessages(ctx context.Context, sessionId string) ([]*entity.DoaChatMessage, error) {
	return m.history, m.listErr
}

func (m *mockHistoryRepo) ListRecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.DoaChatMessage, error) {
	m.listCalls++
	m.gotSession = sessionId
	return m.history, m.listErr
}

func (m *mockHistoryRepo) GetSession(ctx context.Context, sessionId string) (*entity.DoaChatSession, error) {
	return nil, nil
}

func newNodePipeline(repo *mockHistoryRepo) *ChatPipeline {
	return &ChatPipeline{
		historyRepo:  repo,
		prompt:       NewPromptTemplate(""),
		historyLimit: 12,
	}
}

func TestBuildPromptOrdersHistoryBeforeCurrentQuestion(t *testing.T) {
	p := newNodePipeline(&mockHistoryRepo{})
	st := &chatState{
		Req: &ChatRequest{SessionID: "s1", Question: "MD อนุมัติได้เท่าไหร่"},
		Ctx: assemble.AssembledContext{Overview: "OVERVIEW-CTX", Detail: "DETAIL-CTX"},
		History: []*entity.DoaChatMessage{
			{Role: "user", Content: "คำถามแรก"},
			{Role: "assistant", Content: "คำตอบแรก"},
		},
		Start: time.Now(),
	}

	st, err := p.buildPromptNode(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, st.Err)
	require.Len(t, st.PromptMsgs, 4)

	assert.Equal(t, schema.System, st.PromptMsgs[0].Role)
	assert.Contains(t, st.PromptMsgs[0].Content, "OVERVIEW-CTX")
	assert.Contains(t, st.PromptMsgs[0].Content, "DETAIL-CTX")

	assert.Equal(t, schema.User, st.PromptMsgs[1].Role)
	assert.Equal(t, "คำถามแรก", st.PromptMsgs[1].Content)
	assert.Equal(t, schema.Assistant, st.PromptMsgs[2].Role)
	assert.Equal(t, "คำตอบแรก", st.PromptMsgs[2].Content)

	assert.Equal(t, schema.User, st.PromptMsgs[3].Role)
	assert.Equal(t, "MD อนุมัติได้เท่าไหร่", st.PromptMsgs[3].Content)
}

func TestLoadHistoryReadFailureFailsTurn(t *testing.T) {
	p := newNodePipeline(&mockHistoryRepo{listErr: errors.New("mysql gone")})
	st := &chatState{Req: &ChatRequest{SessionID: "s1", Question: "q"}, Start: time.Now()}

	st, err := p.loadHistoryNode(context.Background(), st)
	require.NoError(t, err)
	require.Error(t, st.Err)
	assert.Contains(t, st.Err.Error(), "load history")
}

func TestLoadHistoryNewSessionSkipsStore(t *testing.T) {
	repo := &mockHistoryRepo{history: []*entity.DoaChatMessage{{Role: "user", Content: "old"}}}
	p := newNodePipeline(repo)
	st := &chatState{Req: &ChatRequest{SessionID: "s1", Question: "q", IsNewSession: true}, Start: time.Now()}

	st, err := p.loadHistoryNode(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, st.Err)
	assert.Empty(t, st.History)
	assert.Zero(t, repo.listCalls)
}

func TestPersistSavesUserThenAssistant(t *testing.T) {
	repo := &mockHistoryRepo{}
	p := newNodePipeline(repo)
	st := &chatState{
		Req:    &ChatRequest{SessionID: "s1", Origin: entity.SessionOriginWidget, Question: "q"},
		Answer: "a",
		Start:  time.Now(),
	}

	result, err := p.persistNode(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	require.Len(t, repo.appended, 2)
	assert.Equal(t, "user", repo.appended[0].Role)
	assert.Equal(t, "q", repo.appended[0].Content)
	assert.Equal(t, "assistant", repo.appended[1].Role)
	assert.Equal(t, "a", repo.appended[1].Content)
	assert.Equal(t, []string{"s1"}, repo.sessions)
}

func TestPersistSkippedWhenTurnFailed(t *testing.T) {
	repo := &mockHistoryRepo{}
	p := newNodePipeline(repo)
	st := &chatState{
		Req:   &ChatRequest{SessionID: "s1", Question: "q"},
		Err:   errors.New("tool \"delete_everything\": tool not found"),
		Start: time.Now(),
	}

	result, err := p.persistNode(context.Background(), st)
	require.NoError(t, err)
	require.Error(t, result.Err)
	// 失败的回合什么都不落库
	assert.Empty(t, repo.appended)
	assert.Empty(t, repo.sessions)
}

func TestPersistWriteFailureStillReturnsAnswer(t *testing.T) {
	repo := &mockHistoryRepo{appendErr: errors.New("mysql gone")}
	p := newNodePipeline(repo)
	st := &chatState{
		Req:    &ChatRequest{SessionID: "s1", Question: "q"},
		Answer: "คำตอบ",
		Start:  time.Now(),
	}

	result, err := p.persistNode(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, "คำตอบ", result.Answer)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "สั้น", truncateTitle("สั้น"))

	long := "ขอทราบวงเงินอนุมัติของผู้จัดการฝ่ายการตลาดสำหรับงานเลี้ยงปีใหม่"
	got := truncateTitle(long)
	runes := []rune(got)
	assert.Len(t, runes, 33)
	assert.Equal(t, "...", string(runes[30:]))
}
