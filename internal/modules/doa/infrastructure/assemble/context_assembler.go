package assemble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DoaLink/internal/modules/doa/domain/retrieval"
	"DoaLink/pkg/zlog"

	"go.uber.org/zap"
)

const (
	DefaultOverviewBudget = 8000
	DefaultDetailBudget   = 12000
	DefaultDetailTopN     = 5
)

// AssembledContext 注入 prompt 的两段上下文（已截断、已清洗）
type AssembledContext struct {
	Overview string `json:"overview"`
	Detail   string `json:"detail"`
}

// ContextCache 可选的上下文缓存（redis 实现），miss 返回 false
type ContextCache interface {
	Get(ctx context.Context, query string) (AssembledContext, bool)
	Set(ctx context.Context, query string, val AssembledContext)
}

// Assembler 双集合上下文装配器。overview 和 detail 并发检索，
// 任一失败则整轮失败，不会只用成功的一半拼上下文。
type Assembler struct {
	overview retrieval.Retriever
	detail   retrieval.Retriever

	overviewBudget int
	detailBudget   int
	detailTopN     int

	cache ContextCache
}

func NewAssembler(overview, detail retrieval.Retriever, overviewBudget, detailBudget, detailTopN int) *Assembler {
	if overviewBudget <= 0 {
		overviewBudget = DefaultOverviewBudget
	}
	if detailBudget <= 0 {
		detailBudget = DefaultDetailBudget
	}
	if detailTopN <= 0 {
		detailTopN = DefaultDetailTopN
	}
	return &Assembler{
		overview:       overview,
		detail:         detail,
		overviewBudget: overviewBudget,
		detailBudget:   detailBudget,
		detailTopN:     detailTopN,
	}
}

// SetCache 挂上缓存，缓存故障降级为直查
func (a *Assembler) SetCache(cache ContextCache) {
	a.cache = cache
}

type searchResult struct {
	docs []retrieval.Document
	err  error
}

// Assemble 并发检索两个集合并装配上下文。
// 耗时上界是 max(两路延迟)，不是两路之和。
func (a *Assembler) Assemble(ctx context.Context, expandedQuery string) (AssembledContext, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, expandedQuery); ok {
			return cached, nil
		}
	}

	start := time.Now()

	overviewCh := make(chan searchResult, 1)
	detailCh := make(chan searchResult, 1)

	go func() {
		docs, err := a.overview.Search(ctx, expandedQuery)
		overviewCh <- searchResult{docs: docs, err: err}
	}()
	go func() {
		docs, err := a.detail.Search(ctx, expandedQuery)
		detailCh <- searchResult{docs: docs, err: err}
	}()

	overviewRes := <-overviewCh
	detailRes := <-detailCh

	if overviewRes.err != nil {
		return AssembledContext{}, fmt.Errorf("overview search: %w", overviewRes.err)
	}
	if detailRes.err != nil {
		return AssembledContext{}, fmt.Errorf("detail search: %w", detailRes.err)
	}

	result := AssembledContext{
		Overview: Sanitize(Clamp(buildOverviewContext(overviewRes.docs), a.overviewBudget)),
		Detail:   Sanitize(Clamp(a.buildDetailContext(detailRes.docs), a.detailBudget)),
	}

	zlog.Info("doa context assembled",
		zap.Int("overview_docs", len(overviewRes.docs)),
		zap.Int("detail_docs", len(detailRes.docs)),
		zap.Int("overview_len", len(result.Overview)),
		zap.Int("detail_len", len(result.Detail)),
		zap.Int64("assemble_ms", time.Since(start).Milliseconds()))

	if a.cache != nil {
		a.cache.Set(ctx, expandedQuery, result)
	}
	return result, nil
}

// buildOverviewContext 原文拼接，空行分隔，不做元数据格式化
func buildOverviewContext(docs []retrieval.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}

// buildDetailContext 取前 N 条渲染成标签块
func (a *Assembler) buildDetailContext(docs []retrieval.Document) string {
	if len(docs) > a.detailTopN {
		docs = docs[:a.detailTopN]
	}
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, FormatDetailBlock(doc))
	}
	return strings.Join(blocks, "\n\n")
}
