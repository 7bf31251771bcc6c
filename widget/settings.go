package widget

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// settingsReply: ответ POST /widget/settings; settings может отсутствовать.
type settingsReply struct {
	OK        bool                 `json:"ok"`
	Version   int                  `json:"version"`
	PublicKey string               `json:"public_key"`
	Settings  *models.WidgetConfig `json:"settings"`
}

// ToggleSettings открывает или закрывает панель настроек и возвращает новое состояние.
// Панель строится один раз при первом открытии, дальше меняется только display.
func (w *Widget) ToggleSettings() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.mounted || !w.settings.Features.SettingsPanel {
		return false
	}

	cfg := w.settings
	build := !w.settingsBuilt
	w.settingsBuilt = true
	w.settingsOpen = !w.settingsOpen
	open := w.settingsOpen

	w.page.mutate(func(doc *goquery.Document) {
		if build {
			doc.Find("#" + idHeader).AfterNodes(renderSettings(cfg))
		}
		setStyle(doc.Find("#"+idSettings), "display", displayFor(open))
	})
	return open
}

// SettingsOpen сообщает, открыта ли панель настроек.
func (w *Widget) SettingsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settingsOpen
}

// SaveSettings отправляет изменения на сервер и применяет их к уже отрисованному виджету.
// При ошибке странице показывается alert с i18n.settingsSaveError.
func (w *Widget) SaveSettings(ctx context.Context, patch models.SettingsPatch) error {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return ErrNotMounted
	}
	gen := w.mountGen
	saveError := w.settings.I18n.SettingsSaveError
	reqCtx, cancel := w.requestContextLocked(ctx)
	w.mu.Unlock()
	defer cancel()

	var resp settingsReply
	if err := w.api.postJSON(reqCtx, "/widget/settings", patch, &resp); err != nil {
		w.opts.logger.Warn("не удалось сохранить настройки виджета",
			zap.String("public_key", w.opts.publicKey),
			zap.Error(err),
		)
		w.page.Alert(saveError)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.mountGen {
		return ErrNotMounted
	}

	merged := w.settings
	if resp.Settings != nil {
		merged = resp.Settings.Clone()
		if merged.Company.ID == "" {
			merged.Company.ID = w.settings.Company.ID
		}
	}
	// отправленные значения важнее ответа сервера
	w.settings = patch.Apply(merged)

	if !w.settings.Features.SettingsPanel {
		w.settingsOpen = false
	}

	cfg := w.settings
	w.page.mutate(func(doc *goquery.Document) { restyle(doc, cfg) })
	w.syncInactivityLocked()

	w.opts.logger.Debug("настройки виджета сохранены", zap.Int("version", resp.Version))
	return nil
}

// SubmitSettingsForm читает значения формы настроек и сохраняет их.
func (w *Widget) SubmitSettingsForm(ctx context.Context) error {
	var patch models.SettingsPatch
	built := false

	w.page.mutate(func(doc *goquery.Document) {
		form := doc.Find("#" + idSettings)
		if form.Length() == 0 {
			return
		}
		built = true

		input := func(name string) *string {
			v, ok := form.Find(`input[name="` + name + `"]`).Attr("value")
			if !ok {
				return nil
			}
			v = strings.TrimSpace(v)
			return &v
		}
		checked := func(name string) *bool {
			box := form.Find(`input[name="` + name + `"]`)
			if box.Length() == 0 {
				return nil
			}
			_, on := box.Attr("checked")
			return &on
		}

		patch.CompanyName = input("companyName")
		patch.WelcomeMessage = input("welcomeMessage")
		patch.PrimaryColor = input("primaryColor")
		patch.Chat = checked("chat")
		patch.ExitIntent = checked("exitIntent")
		patch.Inactivity = checked("inactivity")
	})

	if !built {
		return ErrNotMounted
	}
	return w.SaveSettings(ctx, patch)
}

// SetSettingsField имитирует ввод значения в текстовое поле формы настроек.
func (w *Widget) SetSettingsField(name, value string) {
	w.page.mutate(func(doc *goquery.Document) {
		doc.Find("#"+idSettings+` input[name="`+name+`"]`).SetAttr("value", value)
	})
}

// SetSettingsToggle отмечает или снимает флажок формы настроек.
func (w *Widget) SetSettingsToggle(name string, on bool) {
	w.page.mutate(func(doc *goquery.Document) {
		box := doc.Find("#" + idSettings + ` input[name="` + name + `"]`)
		if on {
			box.SetAttr("checked", "")
		} else {
			box.RemoveAttr("checked")
		}
	})
}
