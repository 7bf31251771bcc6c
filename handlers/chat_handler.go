package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/kafka"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// Chat отвечает на сообщение посетителя виджета.
func (h *Handler) Chat(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "пустое сообщение"})
		return
	}
	if req.CompanyID != "" && req.CompanyID != t.ID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "companyId не соответствует ключу виджета"})
		return
	}
	req.History = models.LastN(req.History, models.HistoryLimit)

	reply, err := h.Responder.Reply(c.Request.Context(), t, req)
	if err != nil {
		h.Logger.Error("ошибка генерации ответа",
			zap.String("company_id", t.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "ассистент временно недоступен"})
		return
	}

	h.publish(c.Request.Context(), kafka.Event{
		Type:      kafka.EventChatExchanged,
		CompanyID: t.ID.String(),
		PublicKey: t.PublicKey,
		Payload: gin.H{
			"message":     req.Message,
			"reply":       reply,
			"historySize": len(req.History),
			"pageContext": req.PageContext,
		},
	})

	c.JSON(http.StatusOK, models.ChatResponse{Message: reply})
}
