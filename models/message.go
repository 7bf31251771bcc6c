package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"

	// HistoryLimit: сколько последних сообщений уходит в историю чата
	HistoryLimit = 10
)

// Message представляет собой сообщение в переписке виджета
type Message struct {
	Sender    string `json:"sender"` // "user" или "bot"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// NewMessage создает сообщение с текущим временем
func NewMessage(sender, text string) Message {
	return Message{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

// LastN возвращает последние n сообщений истории (копию).
func LastN(history []Message, n int) []Message {
	if n <= 0 {
		return []Message{}
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// PageContext: метаданные страницы из data-page-context (только чтение).
// Все ключи, кроме cartValue, сохраняются в Extra и уходят в чат как есть.
type PageContext struct {
	CartValue decimal.Decimal `json:"-"`
	Extra     map[string]any  `json:"-"`
}

func (p *PageContext) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["cartValue"]; ok {
		if err := p.CartValue.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("cartValue: %w", err)
		}
		delete(raw, "cartValue")
	}
	if len(raw) == 0 {
		return nil
	}
	p.Extra = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		p.Extra[k] = val
	}
	return nil
}

func (p PageContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+1)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["cartValue"] = json.RawMessage(p.CartValue.String())
	return json.Marshal(out)
}

// ChatRequest: тело POST /widget/chat
type ChatRequest struct {
	Message     string       `json:"message" binding:"required,max=4000"`
	History     []Message    `json:"history"`
	PageContext *PageContext `json:"pageContext,omitempty"`
	CompanyID   string       `json:"companyId,omitempty"`
}

// ChatResponse: ответ POST /widget/chat
type ChatResponse struct {
	Message string `json:"message"`
}

// SettingsResponse: ответ POST /widget/settings
type SettingsResponse struct {
	OK        bool         `json:"ok"`
	Version   int          `json:"version"`
	PublicKey string       `json:"public_key"`
	Settings  WidgetConfig `json:"settings"`
}
