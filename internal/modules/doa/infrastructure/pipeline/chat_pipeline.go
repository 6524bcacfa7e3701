package pipeline

import (
	"context"
	"fmt"

	"DoaLink/internal/modules/doa/application/dto/respond"
	"DoaLink/internal/modules/doa/domain/repository"
	"DoaLink/internal/modules/doa/infrastructure/assemble"
	"DoaLink/internal/modules/doa/infrastructure/expansion"
	"DoaLink/internal/modules/doa/infrastructure/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChatRequest Chat Pipeline 输入请求
type ChatRequest struct {
	SessionID    string // 已解析完成的会话ID（必填）
	IsNewSession bool   // 本次请求是否新建了会话
	Origin       string // authenticated / anonymous-widget
	Question     string // 当前轮用户消息（必填）
}

// ChatResult Chat Pipeline 输出结果
type ChatResult struct {
	SessionID    string
	Answer       string
	UsedDocument string // [USED_DOC: n] 提取结果，可空
	Timing       respond.TimingInfo
	Err          error
}

// ChatPipeline DOA 问答 Pipeline（基于Eino Graph）
type ChatPipeline struct {
	historyRepo  repository.HistoryRepository
	expander     *expansion.Expander
	assembler    *assemble.Assembler
	chatModel    model.BaseChatModel
	chatMeta     llm.ChatModelMeta
	tools        []tool.BaseTool
	prompt       PromptTemplate
	historyLimit int
	r            compose.Runnable[*ChatRequest, *ChatResult]
}

// NewChatPipeline 创建Chat Pipeline
func NewChatPipeline(
	historyRepo repository.HistoryRepository,
	expander *expansion.Expander,
	assembler *assemble.Assembler,
	chatModel model.BaseChatModel,
	chatMeta llm.ChatModelMeta,
	tools []tool.BaseTool,
	historyLimit int,
) (*ChatPipeline, error) {
	if historyRepo == nil || expander == nil || assembler == nil || chatModel == nil {
		return nil, fmt.Errorf("required dependencies are nil")
	}
	if historyLimit <= 0 {
		historyLimit = 12
	}

	p := &ChatPipeline{
		historyRepo:  historyRepo,
		expander:     expander,
		assembler:    assembler,
		chatModel:    chatModel,
		chatMeta:     chatMeta,
		tools:        tools,
		prompt:       NewPromptTemplate(""),
		historyLimit: historyLimit,
	}

	// 构建Eino Graph
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r

	return p, nil
}

func (p *ChatPipeline) SetTools(tools []tool.BaseTool) {
	p.tools = tools
}

func (p *ChatPipeline) SetPromptTemplate(t PromptTemplate) {
	p.prompt = t
}

// Execute 执行Chat Pipeline（非流式）
func (p *ChatPipeline) Execute(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if p.r == nil {
		return nil, fmt.Errorf("pipeline runnable is nil")
	}
	return p.r.Invoke(ctx, req)
}

// ExecuteStream 执行Chat Pipeline（流式）返回StreamReader
func (p *ChatPipeline) ExecuteStream(ctx context.Context, req *ChatRequest) (*schema.StreamReader[*schema.Message], *chatState, error) {
	if req == nil {
		return nil, nil, fmt.Errorf("request is nil")
	}

	// 手动执行前4个节点
	st, err := p.expandNode(ctx, req)
	if err != nil || st.Err != nil {
		return nil, nil, getError(err, st.Err)
	}

	st, err = p.assembleNode(ctx, st)
	if err != nil || st.Err != nil {
		return nil, nil, getError(err, st.Err)
	}

	st, err = p.loadHistoryNode(ctx, st)
	if err != nil || st.Err != nil {
		return nil, nil, getError(err, st.Err)
	}

	st, err = p.buildPromptNode(ctx, st)
	if err != nil || st.Err != nil {
		return nil, nil, getError(err, st.Err)
	}

	promptMsgs := make([]*schema.Message, len(st.PromptMsgs))
	for i := range st.PromptMsgs {
		promptMsgs[i] = &st.PromptMsgs[i]
	}

	streamReader, err := p.chatModel.Stream(ctx, promptMsgs)
	if err != nil {
		return nil, nil, err
	}

	return streamReader, st, nil
}

// PersistStreamResult 持久化流式结果
func (p *ChatPipeline) PersistStreamResult(ctx context.Context, st *chatState, fullAnswer string, llmMs int64) (*ChatResult, error) {
	st.Answer, st.UsedDoc = extractUsedDoc(fullAnswer)
	st.LLMMs = llmMs

	result, err := p.persistNode(ctx, st)
	if err != nil || (result != nil && result.Err != nil) {
		return nil, getError(err, result.Err)
	}

	return result, nil
}

// buildGraph 构建Eino Graph（6个节点）
func (p *ChatPipeline) buildGraph(ctx context.Context) (compose.Runnable[*ChatRequest, *ChatResult], error) {
	const (
		ExpandQuery = "ExpandQuery"
		Assemble    = "AssembleContext"
		LoadHistory = "LoadHistory"
		BuildPrompt = "BuildPrompt"
		ChatModel   = "ChatModel"
		Persist     = "Persist"
	)

	g := compose.NewGraph[*ChatRequest, *ChatResult]()

	_ = g.AddLambdaNode(ExpandQuery, compose.InvokableLambdaWithOption(p.expandNode), compose.WithNodeName(ExpandQuery))
	_ = g.AddLambdaNode(Assemble, compose.InvokableLambdaWithOption(p.assembleNode), compose.WithNodeName(Assemble))
	_ = g.AddLambdaNode(LoadHistory, compose.InvokableLambdaWithOption(p.loadHistoryNode), compose.WithNodeName(LoadHistory))
	_ = g.AddLambdaNode(BuildPrompt, compose.InvokableLambdaWithOption(p.buildPromptNode), compose.WithNodeName(BuildPrompt))
	_ = g.AddLambdaNode(ChatModel, compose.InvokableLambdaWithOption(p.chatModelNode), compose.WithNodeName(ChatModel))
	_ = g.AddLambdaNode(Persist, compose.InvokableLambdaWithOption(p.persistNode), compose.WithNodeName(Persist))

	_ = g.AddEdge(compose.START, ExpandQuery)
	_ = g.AddEdge(ExpandQuery, Assemble)
	_ = g.AddEdge(Assemble, LoadHistory)
	_ = g.AddEdge(LoadHistory, BuildPrompt)
	_ = g.AddEdge(BuildPrompt, ChatModel)
	_ = g.AddEdge(ChatModel, Persist)
	_ = g.AddEdge(Persist, compose.END)

	return g.Compile(ctx, compose.WithGraphName("DoaChatPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func getError(err1, err2 error) error {
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return fmt.Errorf("unknown error")
}
