package pipeline

import (
	"regexp"
	"strings"
)

var usedDocPattern = regexp.MustCompile(`\[USED_DOC:\s*([^\]]+)\]`)

// extractUsedDoc 从回答末尾提取 [USED_DOC: n] 标记，返回清理后的回答与文档编号
func extractUsedDoc(answer string) (string, string) {
	matches := usedDocPattern.FindStringSubmatch(answer)
	if matches == nil {
		return answer, ""
	}
	cleaned := strings.TrimSpace(usedDocPattern.ReplaceAllString(answer, ""))
	return cleaned, strings.TrimSpace(matches[1])
}
