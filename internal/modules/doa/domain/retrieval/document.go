package retrieval

import (
	"context"
	"fmt"
)

// Document 一条向量检索命中（只读）
type Document struct {
	ID      string
	Content string
	Score   float32
	Meta    Meta
}

// Retriever 检索能力：按相关度降序返回，允许为空
type Retriever interface {
	Search(ctx context.Context, query string) ([]Document, error)
}

// Meta 文档元数据的类型化访问层。
// 源数据的 key 大小写/存在性不稳定，统一在这里做一次规范化查找，缺失返回空串。
type Meta map[string]any

// Str 按 key 取字符串值，缺失或为 nil 返回 ""
func (m Meta) Str(key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// DOA 元数据字段名（以检索边界为准，下游不再各自猜 key）
const (
	MetaNo               = "No."
	MetaCategory         = "Category"
	MetaTotalItems       = "totalItems"
	MetaBusinessActivity = "Business Activity"
	MetaGroup            = "group"
	MetaSubGroup         = "sub group"
	MetaRemarks          = "remarks"
	MetaFormURL          = "form_url"
	MetaCoApproval       = "co_approval"
	MetaApprovalDetails  = "approval_details"
	MetaNote             = "note"
)
