package models

// SettingsPatch: изменения настроек, присланные панелью настроек виджета
// или переданные в Init как overrides. nil означает «не менять».
type SettingsPatch struct {
	CompanyName        *string `json:"companyName,omitempty" binding:"omitempty,max=120"`
	Title              *string `json:"title,omitempty" binding:"omitempty,max=120"`
	WelcomeMessage     *string `json:"welcomeMessage,omitempty" binding:"omitempty,max=500"`
	PrimaryColor       *string `json:"primaryColor,omitempty" binding:"omitempty,hexcolor"`
	Position           *string `json:"position,omitempty" binding:"omitempty,oneof=left right"`
	OpenOnInactivityMs *int    `json:"openOnInactivityMs,omitempty" binding:"omitempty,min=0"`
	Chat               *bool   `json:"chat,omitempty"`
	ExitIntent         *bool   `json:"exitIntent,omitempty"`
	Inactivity         *bool   `json:"inactivity,omitempty"`
	SettingsPanel      *bool   `json:"settingsPanel,omitempty"`
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p SettingsPatch) IsEmpty() bool {
	return p.CompanyName == nil && p.Title == nil && p.WelcomeMessage == nil &&
		p.PrimaryColor == nil && p.Position == nil && p.OpenOnInactivityMs == nil &&
		p.Chat == nil && p.ExitIntent == nil && p.Inactivity == nil && p.SettingsPanel == nil
}

// Apply возвращает новую конфигурацию с применёнными изменениями.
func (p SettingsPatch) Apply(cfg WidgetConfig) WidgetConfig {
	out := cfg.Clone()

	if p.CompanyName != nil {
		out.Company.Name = *p.CompanyName
	}
	if p.Title != nil {
		out.I18n.Title = *p.Title
	}
	if p.WelcomeMessage != nil {
		out.I18n.WelcomeMessage = *p.WelcomeMessage
	}
	if p.PrimaryColor != nil {
		out.Theme.PrimaryColor = *p.PrimaryColor
	}
	if p.Position != nil {
		out.Theme.Position = *p.Position
	}
	if p.OpenOnInactivityMs != nil {
		out.Behavior.OpenOnInactivityMs = *p.OpenOnInactivityMs
	}
	if p.Chat != nil {
		out.Features.Chat = *p.Chat
	}
	if p.ExitIntent != nil {
		out.Features.ExitIntent = *p.ExitIntent
	}
	if p.Inactivity != nil {
		out.Features.Inactivity = *p.Inactivity
	}
	if p.SettingsPanel != nil {
		out.Features.SettingsPanel = *p.SettingsPanel
	}
	return out.Normalize()
}

// String и Bool: помощники для сборки патчей.
func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }

func Int(i int) *int { return &i }
