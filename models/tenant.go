package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant представляет собой компанию, встроившую виджет
type Tenant struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	PublicKey     string       `json:"publicKey"`               // PUB_xxx, не секрет
	SigningSecret string       `json:"signingSecret,omitempty"` // для подписи конфигурации
	Config        WidgetConfig `json:"config"`
	Version       int          `json:"version"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// PublicConfig возвращает конфигурацию, которую отдаём виджету.
func (t *Tenant) PublicConfig() WidgetConfig {
	cfg := t.Config.Clone()
	cfg.Company.ID = t.ID.String()
	if cfg.Company.Name == "" {
		cfg.Company.Name = t.Name
	}
	return cfg.Normalize()
}

// Redacted возвращает копию без секрета подписи.
func (t Tenant) Redacted() Tenant {
	t.SigningSecret = ""
	return t
}

// Admin представляет собой администратора платформы
type Admin struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
