package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// WidgetConfig представляет конфигурацию виджета арендатора (tenant)
type WidgetConfig struct {
	Theme           Theme           `json:"theme"`
	Behavior        Behavior        `json:"behavior"`
	Features        Features        `json:"features"`
	I18n            I18n            `json:"i18n"`
	Integrations    map[string]any  `json:"integrations,omitempty"`
	VisibilityRules VisibilityRules `json:"visibility_rules"`
	Company         Company         `json:"company"`
}

type Theme struct {
	PrimaryColor string `json:"primaryColor"`
	TextColor    string `json:"textColor"`
	Position     string `json:"position"` // "left" | "right"
	ZIndex       int    `json:"zIndex"`
	BorderRadius int    `json:"borderRadius"` // px
	FontFamily   string `json:"fontFamily"`
}

type Behavior struct {
	OpenOnInactivityMs int  `json:"openOnInactivityMs"` // 0 отключает
	StartOpen          bool `json:"startOpen"`
}

type Features struct {
	Chat          bool `json:"chat"`
	ExitIntent    bool `json:"exitIntent"`
	Inactivity    bool `json:"inactivity"`
	SettingsPanel bool `json:"settingsPanel"`
}

type I18n struct {
	Title             string `json:"title"`
	WelcomeMessage    string `json:"welcomeMessage"`
	Placeholder       string `json:"placeholder"`
	SendLabel         string `json:"sendLabel"`
	FallbackReply     string `json:"fallbackReply"`
	ErrorMessage      string `json:"errorMessage"`
	SettingsSaveError string `json:"settingsSaveError"`
}

// VisibilityRules решает, показывать ли виджет на странице
type VisibilityRules struct {
	IncludePaths []string        `json:"includePaths"`
	ExcludePaths []string        `json:"excludePaths"`
	MinCartValue decimal.Decimal `json:"minCartValue"`
}

type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultConfig возвращает настройки, с которыми виджет работает без бэкенда.
func DefaultConfig() WidgetConfig {
	return WidgetConfig{
		Theme: Theme{
			PrimaryColor: "#0A84FF",
			TextColor:    "#FFFFFF",
			Position:     PositionRight,
			ZIndex:       2147483000,
			BorderRadius: 16,
			FontFamily:   `system-ui, -apple-system, "Segoe UI", Roboto, sans-serif`,
		},
		Behavior: Behavior{
			OpenOnInactivityMs: 0,
			StartOpen:          false,
		},
		Features: Features{
			Chat:          true,
			ExitIntent:    true,
			Inactivity:    false,
			SettingsPanel: false,
		},
		I18n: I18n{
			Title:             "Answer24",
			WelcomeMessage:    "Hi! How can we help you today?",
			Placeholder:       "Type your message...",
			SendLabel:         "Send",
			FallbackReply:     "Thanks for your message! We'll get back to you shortly.",
			ErrorMessage:      "Sorry, something went wrong. Please try again.",
			SettingsSaveError: "Could not save settings. Please try again.",
		},
		VisibilityRules: VisibilityRules{
			IncludePaths: []string{},
			ExcludePaths: []string{},
			MinCartValue: decimal.Zero,
		},
		Company: Company{Name: "Answer24"},
	}
}

// Normalize заполняет пустые поля темы и текстов значениями по умолчанию.
// Пустое приветствие допустимо: оно отключает приветственное сообщение.
func (c WidgetConfig) Normalize() WidgetConfig {
	def := DefaultConfig()

	if c.Theme.PrimaryColor == "" {
		c.Theme.PrimaryColor = def.Theme.PrimaryColor
	}
	if c.Theme.TextColor == "" {
		c.Theme.TextColor = def.Theme.TextColor
	}
	pos := strings.ToLower(strings.TrimSpace(c.Theme.Position))
	if pos != PositionLeft {
		pos = PositionRight
	}
	c.Theme.Position = pos
	if c.Theme.ZIndex <= 0 {
		c.Theme.ZIndex = def.Theme.ZIndex
	}
	if c.Theme.BorderRadius < 0 {
		c.Theme.BorderRadius = 0
	}
	if c.Theme.FontFamily == "" {
		c.Theme.FontFamily = def.Theme.FontFamily
	}
	if c.Behavior.OpenOnInactivityMs < 0 {
		c.Behavior.OpenOnInactivityMs = 0
	}

	fillString(&c.I18n.Title, def.I18n.Title)
	fillString(&c.I18n.Placeholder, def.I18n.Placeholder)
	fillString(&c.I18n.SendLabel, def.I18n.SendLabel)
	fillString(&c.I18n.FallbackReply, def.I18n.FallbackReply)
	fillString(&c.I18n.ErrorMessage, def.I18n.ErrorMessage)
	fillString(&c.I18n.SettingsSaveError, def.I18n.SettingsSaveError)
	fillString(&c.Company.Name, def.Company.Name)

	if c.VisibilityRules.IncludePaths == nil {
		c.VisibilityRules.IncludePaths = []string{}
	}
	if c.VisibilityRules.ExcludePaths == nil {
		c.VisibilityRules.ExcludePaths = []string{}
	}
	return c
}

// Clone возвращает копию без общих слайсов и карт.
func (c WidgetConfig) Clone() WidgetConfig {
	out := c
	out.VisibilityRules.IncludePaths = append([]string(nil), c.VisibilityRules.IncludePaths...)
	out.VisibilityRules.ExcludePaths = append([]string(nil), c.VisibilityRules.ExcludePaths...)
	if c.Integrations != nil {
		out.Integrations = make(map[string]any, len(c.Integrations))
		for k, v := range c.Integrations {
			out.Integrations[k] = v
		}
	}
	return out
}

func fillString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}
