package respond

import "time"

// ErrorContent 统一对外错误文案（不向前端泄露内部错误）
const ErrorContent = "เกิดข้อผิดพลาดในการประมวลผล กรุณาลองใหม่อีกครั้ง"

// ChatRespond 聊天成功响应
type ChatRespond struct {
	Content        string        `json:"content"`
	Type           string        `json:"type"`
	Timestamp      string        `json:"timestamp"`
	SessionID      string        `json:"sessionId"`
	IsNewSession   bool          `json:"isNewSession"`
	SessionUpdated bool          `json:"sessionUpdated"`
	Metadata       *ChatMetadata `json:"metadata,omitempty"`
}

// ChatMetadata 附加元数据（引用文档、耗时）
type ChatMetadata struct {
	UsedDocument string     `json:"usedDocument,omitempty"`
	Timing       TimingInfo `json:"timing"`
}

// ErrorRespond 聊天失败响应
type ErrorRespond struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// TimingInfo 耗时统计
type TimingInfo struct {
	ExpandMs   int64 `json:"expand_ms"`
	AssembleMs int64 `json:"assemble_ms"`
	LLMMs      int64 `json:"llm_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// MessageItem 会话历史消息条目
type MessageItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionRespond 会话解析响应
type SessionRespond struct {
	SessionID      string `json:"sessionId"`
	IsNewSession   bool   `json:"isNewSession"`
	SessionUpdated bool   `json:"sessionUpdated"`
}

// NowTimestamp 响应时间戳（ISO8601，UTC）
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewErrorRespond 构造统一错误响应
func NewErrorRespond() ErrorRespond {
	return ErrorRespond{
		Content:   ErrorContent,
		Type:      "error",
		Timestamp: NowTimestamp(),
	}
}
