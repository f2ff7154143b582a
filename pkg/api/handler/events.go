package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lanheader/Archery/pkg/core/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// EventsHandler 审批事件WebSocket推送处理器
// 每个连接独立订阅事件总线，连接断开即退订
type EventsHandler struct {
	publisher *events.Publisher
	upgrader  websocket.Upgrader
}

// NewEventsHandler 创建EventsHandler
func NewEventsHandler(pub *events.Publisher) *EventsHandler {
	return &EventsHandler{
		publisher: pub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 鉴权由上游网关处理
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream 推送审批迁移事件流
// GET /ws/audit-events
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	msgs, err := h.publisher.Subscribe(ctx)
	if err != nil {
		log.Printf("订阅审批事件失败: %v", err)
		return
	}

	// 读循环仅用于感知客户端关闭
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := events.DecodeEvent(msg)
			if err != nil {
				msg.Ack()
				log.Printf("解析审批事件失败: %v", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
