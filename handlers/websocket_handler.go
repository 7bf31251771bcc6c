package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/websocket"
)

// upgrader апгрейдит HTTP→WebSocket с проверкой Origin по ALLOWED_ORIGINS
func (h *Handler) upgrader() *gorillaws.Upgrader {
	return &gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin проверяет, разрешен ли Origin для подключения
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.Config.AllowsAllOrigins() {
		return true
	}
	for _, allowed := range h.Config.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	h.Logger.Warn("отклонен origin", zap.String("origin", origin))
	return false
}

// ServeWs подключает виджет к живым обновлениям настроек его компании.
func (h *Handler) ServeWs(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "обновления недоступны"})
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.Logger.Debug("ошибка апгрейда WebSocket", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, t.ID.String(), t.PublicKey)
	if !h.Hub.Register(client) {
		// Hub остановлен: сообщаем виджету причину, прежде чем закрыть соединение
		if msg, err := websocket.NewErrorMessage("обновления недоступны"); err == nil {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			conn.WriteMessage(gorillaws.TextMessage, msg)
		}
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
