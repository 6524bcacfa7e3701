package http

import (
	"net/http"
	"strings"

	doaRequest "DoaLink/internal/modules/doa/application/dto/request"
	doaRespond "DoaLink/internal/modules/doa/application/dto/respond"
	"DoaLink/internal/modules/doa/application/service"
	"DoaLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler DOA 问答 HTTP Handler。
// 响应走 widget 协议信封，失败时统一 500 + 泰语致歉文案，不向前端透出内部错误。
type ChatHandler struct {
	svc service.ChatService
}

// NewChatHandler 创建ChatHandler
func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 处理DOA聊天请求
//
// 路由: POST /api/doa/chat
// 鉴权: 可选JWT（匿名走widget会话）
// 请求体: ChatRequest
// 响应体: ChatRespond / ErrorRespond
func (h *ChatHandler) Chat(c *gin.Context) {
	h.handleChat(c, false)
}

// ChatWithTools 处理带工具调用的DOA聊天请求
//
// 路由: POST /api/doa/chat/tools
func (h *ChatHandler) ChatWithTools(c *gin.Context) {
	h.handleChat(c, true)
}

func (h *ChatHandler) handleChat(c *gin.Context, withTools bool) {
	var req doaRequest.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("doa chat bind error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, doaRespond.NewErrorRespond())
		return
	}

	// 登录态可选，没有JWT就走匿名widget会话
	uuid := strings.TrimSpace(c.GetString("uuid"))

	// 只记录会话ID和消息条数，不落文档内容
	zlog.Info("doa chat request",
		zap.String("session_id", req.SessionID),
		zap.Bool("authenticated", uuid != ""),
		zap.Bool("with_tools", withTools),
		zap.Int("messages", len(req.Messages)))

	var data *doaRespond.ChatRespond
	var err error
	if withTools {
		data, err = h.svc.ChatWithTools(c.Request.Context(), req, uuid)
	} else {
		data, err = h.svc.Chat(c.Request.Context(), req, uuid)
	}
	if err != nil {
		zlog.Error("doa chat failed",
			zap.Error(err),
			zap.String("session_id", req.SessionID))
		c.JSON(http.StatusInternalServerError, doaRespond.NewErrorRespond())
		return
	}

	c.JSON(http.StatusOK, data)
}
