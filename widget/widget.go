// Package widget реализует встраиваемый виджет Answer24: загрузка конфигурации, отрисовка,
// триггеры вовлечения, чат и панель настроек. Всё состояние принадлежит экземпляру
// Widget, созданному на одно монтирование.
package widget

import (
	"context"
	"errors"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNotMounted   = errors.New("widget is not mounted")
	ErrChatDisabled = errors.New("chat is disabled for this widget")
	ErrSendInFlight = errors.New("previous message is still being sent")
)

// Widget: контроллер одного экземпляра виджета на странице.
type Widget struct {
	page *Page
	opts options
	api  *apiClient

	mu              sync.Mutex
	config          models.WidgetConfig // как пришла с сервера (или по умолчанию)
	settings        models.WidgetConfig // рабочие настройки: config + overrides + сохранения
	messages        []models.Message
	mounted         bool
	mountGen        int
	isOpen          bool
	sending         bool
	exitIntentShown bool
	settingsBuilt   bool
	settingsOpen    bool

	inactivityTimer Timer
	inactivityGen   int

	// base отменяется при размонтировании и прерывает запросы в полёте
	base   context.Context
	cancel context.CancelFunc
}

// New создает виджет для страницы. Ничего не рисует до Init.
func New(page *Page, opts ...Option) *Widget {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = &HTTPConfigLoader{
			APIBase:   o.apiBase,
			PublicKey: o.publicKey,
			Secret:    o.secret,
			Verifier:  o.verifier,
			Client:    o.httpClient,
			Timeout:   o.timeout,
		}
	}

	base, cancel := context.WithCancel(context.Background())
	return &Widget{
		page: page,
		opts: o,
		api: &apiClient{
			base:      o.apiBase,
			publicKey: o.publicKey,
			http:      o.httpClient,
			timeout:   o.timeout,
		},
		config:   models.DefaultConfig(),
		settings: models.DefaultConfig(),
		base:     base,
		cancel:   cancel,
	}
}

// Init загружает конфигурацию, применяет overrides, проверяет правила видимости,
// отрисовывает виджет, взводит триггеры и отправляет Answer24:ready.
// Ошибка загрузки не фатальна: используются настройки по умолчанию.
// Повторный вызов полностью заменяет прежний экземпляр.
func (w *Widget) Init(ctx context.Context, overrides *models.SettingsPatch) error {
	cfg, err := w.opts.source.Load(ctx)
	if err != nil {
		w.opts.logger.Warn("не удалось загрузить конфигурацию виджета, используются настройки по умолчанию",
			zap.String("public_key", w.opts.publicKey),
			zap.Error(err),
		)
		cfg = models.DefaultConfig()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	settings := cfg.Clone()
	if overrides != nil {
		settings = overrides.Apply(settings)
	}

	w.mu.Lock()
	w.resetLocked()
	w.config = cfg
	w.settings = settings

	if !Visible(settings.VisibilityRules, w.page.Path(), w.opts.pageContext) {
		w.mu.Unlock()
		w.opts.logger.Info("виджет скрыт правилами видимости", zap.String("path", w.page.Path()))
		return nil
	}

	w.isOpen = settings.Behavior.StartOpen
	root := renderWidget(settings, w.isOpen)
	w.page.mutate(func(doc *goquery.Document) { mount(doc, root) })
	w.mounted = true
	if w.inactivityEnabledLocked() {
		w.armInactivityLocked()
	}
	detail := w.detailLocked()
	w.mu.Unlock()

	w.page.Dispatch(Event{Name: EventReady, Detail: detail})
	return nil
}

// resetLocked снимает прежний экземпляр: таймеры, запросы, DOM и состояние.
func (w *Widget) resetLocked() {
	w.stopInactivityLocked()
	w.inactivityGen++
	w.mountGen++
	w.cancel()
	w.base, w.cancel = context.WithCancel(context.Background())

	if w.mounted {
		w.page.mutate(unmount)
	}
	w.mounted = false
	w.isOpen = false
	w.sending = false
	w.exitIntentShown = false
	w.settingsBuilt = false
	w.settingsOpen = false
	w.messages = nil
}

// Unmount убирает виджет со страницы и отменяет запросы в полёте.
func (w *Widget) Unmount() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

// Open открывает панель чата. Событие отправляется только при смене состояния.
func (w *Widget) Open() {
	w.setOpen(true)
}

// Close закрывает панель чата.
func (w *Widget) Close() {
	w.setOpen(false)
}

// Toggle: нажатие на кнопку запуска.
func (w *Widget) Toggle() {
	w.mu.Lock()
	open := w.isOpen
	w.mu.Unlock()
	w.setOpen(!open)
}

func (w *Widget) setOpen(open bool) {
	w.mu.Lock()
	if !w.mounted || w.isOpen == open {
		w.mu.Unlock()
		return
	}
	w.isOpen = open
	w.page.mutate(func(doc *goquery.Document) { setOpen(doc, open) })
	detail := w.detailLocked()
	w.mu.Unlock()

	name := EventClose
	if open {
		name = EventOpen
	}
	w.page.Dispatch(Event{Name: name, Detail: detail})
}

func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isOpen
}

func (w *Widget) Mounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted
}

// Config возвращает конфигурацию в том виде, в каком она была загружена.
func (w *Widget) Config() models.WidgetConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config.Clone()
}

// Settings возвращает рабочие настройки.
func (w *Widget) Settings() models.WidgetConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.Clone()
}

// Messages возвращает копию переписки.
func (w *Widget) Messages() []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Message(nil), w.messages...)
}

func (w *Widget) detailLocked() EventDetail {
	return EventDetail{CompanyID: w.settings.Company.ID, PublicKey: w.opts.publicKey}
}

// requestContext связывает контекст вызова с жизнью монтирования: Unmount или
// повторный Init отменяют запрос. Вызывать под w.mu.
func (w *Widget) requestContextLocked(ctx context.Context) (context.Context, context.CancelFunc) {
	base := w.base
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
