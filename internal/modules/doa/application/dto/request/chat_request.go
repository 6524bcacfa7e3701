package request

// ChatMessage 对话消息（与前端 widget 协议一致）
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 聊天请求体
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	SessionID string        `json:"sessionId"`
}

// ResolveSessionRequest 会话解析请求体
type ResolveSessionRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}
