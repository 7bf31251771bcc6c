package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/kafka"
	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/websocket"
)

// SaveSettings применяет изменения из панели настроек виджета.
func (h *Handler) SaveSettings(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "нет изменений"})
		return
	}

	cfg, version, err := h.Store.UpdateConfig(c.Request.Context(), t.ID, patch)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "виджет не найден"})
		return
	}
	if err != nil {
		h.Logger.Error("ошибка сохранения настроек", zap.String("company_id", t.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось сохранить настройки"})
		return
	}
	t.Config = cfg
	t.Version = version
	settings := t.PublicConfig()

	if h.Hub != nil {
		if msg, err := websocket.NewSettingsUpdatedMessage(version, settings); err == nil {
			h.Hub.BroadcastTo(t.ID.String(), msg)
		} else {
			h.Logger.Error("ошибка при создании WebSocket сообщения", zap.Error(err))
		}
	}

	h.publish(c.Request.Context(), kafka.Event{
		Type:      kafka.EventSettingsUpdated,
		CompanyID: t.ID.String(),
		PublicKey: t.PublicKey,
		Payload:   gin.H{"version": version, "patch": patch},
	})

	h.Logger.Info("настройки виджета обновлены",
		zap.String("company_id", t.ID.String()),
		zap.Int("version", version),
	)
	c.JSON(http.StatusOK, models.SettingsResponse{
		OK:        true,
		Version:   version,
		PublicKey: t.PublicKey,
		Settings:  settings,
	})
}
