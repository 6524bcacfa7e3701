package websocket

import (
	"context"
	"net/http"
	"strings"

	doaRequest "DoaLink/internal/modules/doa/application/dto/request"
	"DoaLink/internal/modules/doa/application/service"
	"DoaLink/pkg/util"
	"DoaLink/pkg/ws"
	"DoaLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// widget 会嵌到各业务站点里，Origin 不做白名单
		return true
	},
}

// ChatWSHandler DOA 流式问答 WebSocket Handler
type ChatWSHandler struct {
	hub *ws.Hub
	svc service.ChatService
}

// NewChatWSHandler 创建 WebSocket Handler
func NewChatWSHandler(hub *ws.Hub, svc service.ChatService) *ChatWSHandler {
	return &ChatWSHandler{hub: hub, svc: svc}
}

// Chat 流式问答接口
//
// WebSocket URL: ws://host/ws/doa/chat
//
// 客户端发送：
//
//	{"action": "chat", "data": {"messages": [...], "sessionId": "widget_xxx_yyy"}}
//
// 服务端响应：
//
//	{"event": "delta", "data": {"token": "..."}}
//	{"event": "done",  "data": ChatRespond}
//	{"event": "error", "data": {"error": "..."}}
func (h *ChatWSHandler) Chat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error("doa websocket upgrade failed", zap.Error(err))
		return
	}

	// 登录态可选，中间件解析成功则带uuid；匿名连接给一个连接级ID
	uuid := strings.TrimSpace(c.GetString("uuid"))
	clientID := uuid
	if clientID == "" {
		clientID = "widget-conn-" + util.GenerateShortUUID()
	}

	// 写全部走 Hub 的写泵，读循环里可以边读边推流
	client := ws.NewClient(clientID, conn)
	h.hub.Register(client)
	go client.WritePump()
	defer h.hub.Unregister(client)

	zlog.Info("doa websocket connected",
		zap.Bool("authenticated", uuid != ""),
		zap.String("client_id", clientID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	for {
		var wsMsg struct {
			Action string                 `json:"action"`
			Data   doaRequest.ChatRequest `json:"data"`
		}

		if err := conn.ReadJSON(&wsMsg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zlog.Warn("doa websocket read error", zap.Error(err))
			}
			break
		}

		if wsMsg.Action != "chat" {
			h.pushEvent(clientID, "error", map[string]string{"error": "unsupported action: " + wsMsg.Action})
			continue
		}

		eventChan, err := h.svc.ChatStream(context.Background(), wsMsg.Data, uuid)
		if err != nil {
			zlog.Error("doa chat stream failed",
				zap.Error(err),
				zap.String("session_id", wsMsg.Data.SessionID))
			h.pushEvent(clientID, "error", map[string]string{"error": "chat stream failed"})
			continue
		}

		for ev := range eventChan {
			h.pushEvent(clientID, ev.Event, ev.Data)
		}
	}
}

func (h *ChatWSHandler) pushEvent(clientID, event string, data interface{}) {
	if err := h.hub.SendJSON(clientID, map[string]interface{}{
		"event": event,
		"data":  data,
	}); err != nil {
		zlog.Warn("doa websocket push failed", zap.String("client_id", clientID), zap.Error(err))
	}
}
