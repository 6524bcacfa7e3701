package http

import (
	"strings"

	doaRequest "DoaLink/internal/modules/doa/application/dto/request"
	"DoaLink/internal/modules/doa/application/service"
	"DoaLink/pkg/back"
	"DoaLink/pkg/xerr"
	"DoaLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler 会话管理 HTTP Handler
type SessionHandler struct {
	svc service.SessionService
}

// NewSessionHandler 创建SessionHandler
func NewSessionHandler(svc service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ResolveSession 解析/铸造会话ID
//
// 路由: POST /api/doa/sessions/resolve
// 鉴权: 可选JWT
func (h *SessionHandler) ResolveSession(c *gin.Context) {
	var req doaRequest.ResolveSessionRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("doa resolve session bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	uuid := strings.TrimSpace(c.GetString("uuid"))

	data, err := h.svc.ResolveSession(c.Request.Context(), req, uuid)
	if err != nil {
		zlog.Error("doa resolve session failed", zap.Error(err))
	}
	back.Result(c, data, err)
}

// ListMessages 按时间升序取会话历史
//
// 路由: GET /api/doa/sessions/:id/messages
// 鉴权: 可选JWT
func (h *SessionHandler) ListMessages(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.svc.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		zlog.Error("doa list messages failed", zap.Error(err), zap.String("session_id", sessionID))
	}
	back.Result(c, data, err)
}
