package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"DoaLink/internal/modules/doa/domain/retrieval"
	"DoaLink/pkg/zlog"

	"go.uber.org/zap"
)

// 检索范围
const (
	SearchTypeOverview = "overview"
	SearchTypeDetail   = "detail"
	SearchTypeBoth     = "both"
)

const detailItemContentLimit = 800

// broadKeywords 命中则只查概览（问的是"有哪些"这类宏观问题）
var broadKeywords = []string{
	"การตลาด", "marketing",
	"พนักงาน", "employee",
	"การเงิน", "finance",
	"ธุรการ", "admin",
	"จัดซื้อ", "procurement",
	"ลงทุน", "investment",
	"logistics", "shipping",
	"มีอะไรบ้าง", "ประเภท", "หมวดหมู่",
}

// specificKeywords 命中则双路都查（问的是具体条目的审批权限）
var specificKeywords = []string{
	"งานเลี้ยงปีใหม่", "new year",
	"เงินเดือน", "payroll",
	"ฝึกอบรม", "training",
	"ค่าเดินทาง", "travel",
	"ประกันสุขภาพ", "insurance",
	"ลาป่วย", "sick leave",
}

// DualSearchArgs doa_dual_search 工具入参
type DualSearchArgs struct {
	Query              string `json:"query"`
	SearchType         string `json:"searchType"`
	Category           string `json:"category"`
	BusinessActivityNo string `json:"businessActivityNo"`
}

// DualSearchResult doa_dual_search 工具出参（序列化为 JSON 返回给模型）
type DualSearchResult struct {
	Found        bool           `json:"found"`
	SearchType   string         `json:"searchType"`
	Query        string         `json:"query"`
	Overview     []OverviewItem `json:"overview,omitempty"`
	Details      []DetailItem   `json:"details,omitempty"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	Message      string         `json:"message,omitempty"`
	UserGuidance string         `json:"userGuidance,omitempty"`
}

// OverviewItem 概览命中条目
type OverviewItem struct {
	Category   string  `json:"category,omitempty"`
	TotalItems string  `json:"totalItems,omitempty"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// DetailItem 明细命中条目
type DetailItem struct {
	No               string  `json:"no,omitempty"`
	Category         string  `json:"category,omitempty"`
	BusinessActivity string  `json:"businessActivity,omitempty"`
	Group            string  `json:"group,omitempty"`
	Content          string  `json:"content"`
	Score            float32 `json:"score"`
}

// DualSearch DOA 双集合检索核心，被工具层（MCP/eino）共用
type DualSearch struct {
	overview retrieval.Retriever
	detail   retrieval.Retriever
}

func NewDualSearch(overview, detail retrieval.Retriever) *DualSearch {
	return &DualSearch{overview: overview, detail: detail}
}

// Run 执行双路检索，返回 JSON 字符串
func (d *DualSearch) Run(ctx context.Context, args DualSearchArgs) (string, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	// 可选过滤条件直接拼进查询，向量检索自己会对齐语义
	augmented := query
	if c := strings.TrimSpace(args.Category); c != "" {
		augmented += " category:" + c
	}
	if no := strings.TrimSpace(args.BusinessActivityNo); no != "" {
		augmented += " No.:" + no
	}

	searchType := normalizeSearchType(args.SearchType, query)

	start := time.Now()
	var (
		wg           sync.WaitGroup
		overviewDocs []retrieval.Document
		detailDocs   []retrieval.Document
		overviewErr  error
		detailErr    error
	)
	if searchType == SearchTypeOverview || searchType == SearchTypeBoth {
		wg.Add(1)
		go func() {
			defer wg.Done()
			overviewDocs, overviewErr = d.overview.Search(ctx, augmented)
		}()
	}
	if searchType == SearchTypeDetail || searchType == SearchTypeBoth {
		wg.Add(1)
		go func() {
			defer wg.Done()
			detailDocs, detailErr = d.detail.Search(ctx, augmented)
		}()
	}
	wg.Wait()

	if overviewErr != nil {
		return "", fmt.Errorf("overview search: %w", overviewErr)
	}
	if detailErr != nil {
		return "", fmt.Errorf("detail search: %w", detailErr)
	}

	result := d.buildResult(query, searchType, overviewDocs, detailDocs)

	zlog.Info("doa dual search done",
		zap.String("search_type", searchType),
		zap.Int("query_len", len(query)),
		zap.Int("overview_hits", len(overviewDocs)),
		zap.Int("detail_hits", len(detailDocs)),
		zap.Int64("search_ms", time.Since(start).Milliseconds()))

	b, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeSearchType 明确传了类型就照用，否则按关键词猜测宽泛/具体
func normalizeSearchType(searchType, query string) string {
	switch strings.TrimSpace(strings.ToLower(searchType)) {
	case SearchTypeOverview:
		return SearchTypeOverview
	case SearchTypeDetail:
		return SearchTypeDetail
	case SearchTypeBoth:
		return SearchTypeBoth
	}

	lower := strings.ToLower(query)
	for _, kw := range specificKeywords {
		if strings.Contains(lower, kw) {
			return SearchTypeBoth
		}
	}
	for _, kw := range broadKeywords {
		if strings.Contains(lower, kw) {
			return SearchTypeOverview
		}
	}
	return SearchTypeBoth
}

func (d *DualSearch) buildResult(query, searchType string, overviewDocs, detailDocs []retrieval.Document) DualSearchResult {
	result := DualSearchResult{
		Found:      len(overviewDocs) > 0 || len(detailDocs) > 0,
		SearchType: searchType,
		Query:      query,
	}

	if !result.Found {
		result.Message = "ไม่พบข้อมูลที่ตรงกับคำค้นหา"
		result.Suggestions = []string{
			"ลองใช้คำค้นหาที่กว้างขึ้น เช่น ชื่อหมวดหมู่ (การเงิน, การตลาด, ธุรการ)",
			"ระบุชื่อกิจกรรมทางธุรกิจให้ตรงกับเอกสาร DOA",
			"ตรวจสอบนโยบายฉบับเต็มที่ https://doa.toagroup.com/doa",
		}
		return result
	}

	for _, doc := range overviewDocs {
		result.Overview = append(result.Overview, OverviewItem{
			Category:   doc.Meta.Str(retrieval.MetaCategory),
			TotalItems: doc.Meta.Str(retrieval.MetaTotalItems),
			Content:    truncateRunes(doc.Content, detailItemContentLimit),
			Score:      doc.Score,
		})
	}
	for _, doc := range detailDocs {
		result.Details = append(result.Details, DetailItem{
			No:               doc.Meta.Str(retrieval.MetaNo),
			Category:         doc.Meta.Str(retrieval.MetaCategory),
			BusinessActivity: doc.Meta.Str(retrieval.MetaBusinessActivity),
			Group:            doc.Meta.Str(retrieval.MetaGroup),
			Content:          truncateRunes(doc.Content, detailItemContentLimit),
			Score:            doc.Score,
		})
	}

	// 只命中概览时引导用户往下钻
	if len(result.Overview) > 0 && len(result.Details) == 0 {
		result.UserGuidance = "นี่คือภาพรวมหมวดหมู่ หากต้องการทราบสิทธิการอนุมัติของรายการใด กรุณาระบุชื่อกิจกรรมทางธุรกิจหรือหมวดหมู่ให้ชัดเจนขึ้น"
	}

	return result
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
