package websocket

import (
	"encoding/json"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// Типы сообщений для виджета
const (
	TypeSettingsUpdated = "settings_updated"
	TypeError           = "error"
)

// WebSocketMessage представляет сообщение для WebSocket
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage создает новое сообщение с указанным типом и данными
func NewMessage(messageType string, payload any) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(WebSocketMessage{
		Type:    messageType,
		Payload: payloadJSON,
	})
}

// SettingsUpdated: полезная нагрузка settings_updated
type SettingsUpdated struct {
	Version  int                 `json:"version"`
	Settings models.WidgetConfig `json:"settings"`
}

// NewSettingsUpdatedMessage создает сообщение об изменении настроек виджета
func NewSettingsUpdatedMessage(version int, settings models.WidgetConfig) ([]byte, error) {
	return NewMessage(TypeSettingsUpdated, SettingsUpdated{Version: version, Settings: settings})
}

// NewErrorMessage создает сообщение об ошибке
func NewErrorMessage(errorText string) ([]byte, error) {
	payload := struct {
		Error string `json:"error"`
	}{
		Error: errorText,
	}

	return NewMessage(TypeError, payload)
}
