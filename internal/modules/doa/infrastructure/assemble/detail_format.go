package assemble

import (
	"fmt"
	"sort"
	"strings"

	"DoaLink/internal/modules/doa/domain/retrieval"
)

// 占位值，出现时整行跳过
var placeholderValues = map[string]struct{}{
	"":       {},
	"-":      {},
	"ไม่มี":  {},
	"ไม่ระบุ": {},
}

func isPlaceholder(v string) bool {
	_, ok := placeholderValues[strings.TrimSpace(v)]
	return ok
}

const perDocContentLimit = 2000

// FormatDetailBlock 把一条 detail 文档渲染成带标签的泰文块
func FormatDetailBlock(doc retrieval.Document) string {
	meta := doc.Meta

	no := meta.Str(retrieval.MetaNo)
	if no == "" {
		no = "ไม่ระบุ"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- เอกสารที่ %s ---\n", no))
	sb.WriteString(fmt.Sprintf("หมวด: %s\n", orUnspecified(meta.Str(retrieval.MetaCategory))))
	sb.WriteString(fmt.Sprintf("กิจกรรม: %s\n", orUnspecified(meta.Str(retrieval.MetaBusinessActivity))))
	sb.WriteString(fmt.Sprintf("กลุ่ม: %s\n", orUnspecified(meta.Str(retrieval.MetaGroup))))

	if approvals := formatApprovals(meta); approvals != "" {
		sb.WriteString("\nสิทธิการอนุมัติ:\n")
		sb.WriteString(approvals)
	}

	appendLabeled(&sb, "Co Approval", meta.Str(retrieval.MetaCoApproval))
	appendLabeled(&sb, "หมายเหตุ", meta.Str(retrieval.MetaRemarks))
	appendLabeled(&sb, "Form URL", meta.Str(retrieval.MetaFormURL))
	appendLabeled(&sb, "Note", meta.Str(retrieval.MetaNote))

	content := doc.Content
	if runes := []rune(content); len(runes) > perDocContentLimit {
		content = string(runes[:perDocContentLimit]) + "..."
	}
	sb.WriteString(fmt.Sprintf("\nรายละเอียด: %s\n", content))

	return sb.String()
}

// formatApprovals 渲染审批权限列表，占位值跳过。
// approval_details 是 职位 -> 审批额度 的开放映射，按职位名排序保证输出稳定。
func formatApprovals(meta retrieval.Meta) string {
	raw, ok := meta[retrieval.MetaApprovalDetails]
	if !ok || raw == nil {
		return ""
	}
	details, ok := raw.(map[string]any)
	if !ok {
		return ""
	}

	positions := make([]string, 0, len(details))
	for pos := range details {
		positions = append(positions, pos)
	}
	sort.Strings(positions)

	var sb strings.Builder
	for _, pos := range positions {
		authority := ""
		if v := details[pos]; v != nil {
			authority = fmt.Sprintf("%v", v)
		}
		if isPlaceholder(authority) || isPlaceholder(pos) {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: %s\n", pos, authority))
	}
	return sb.String()
}

func appendLabeled(sb *strings.Builder, label, value string) {
	if isPlaceholder(value) {
		return
	}
	sb.WriteString(fmt.Sprintf("%s: %s\n", label, value))
}

func orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return "ไม่ระบุ"
	}
	return v
}
