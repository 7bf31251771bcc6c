package widget

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/signature"
)

// DefaultTimeout: таймаут каждого сетевого запроса виджета
const DefaultTimeout = config.WidgetFetchTimeout

type options struct {
	publicKey   string
	apiBase     string
	pageContext *models.PageContext
	source      ConfigSource
	secret      []byte
	verifier    signature.Verifier
	httpClient  *http.Client
	timeout     time.Duration
	clock       Clock
	logger      *zap.Logger
}

type Option func(*options)

func defaultOptions() options {
	return options{
		verifier:   signature.HMAC{},
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		clock:      realClock{},
		logger:     zap.NewNop(),
	}
}

// WithPublicKey задаёт публичный ключ арендатора (data-public-key).
func WithPublicKey(key string) Option {
	return func(o *options) { o.publicKey = strings.TrimSpace(key) }
}

// WithAPIBase задаёт API_BASE, например https://api.answer24.nl/api/v1.
func WithAPIBase(base string) Option {
	return func(o *options) { o.apiBase = strings.TrimRight(base, "/") }
}

func WithPageContext(pc *models.PageContext) Option {
	return func(o *options) { o.pageContext = pc }
}

// WithConfigSource подменяет загрузку конфигурации по HTTP.
func WithConfigSource(src ConfigSource) Option {
	return func(o *options) { o.source = src }
}

// WithSigningSecret включает проверку подписи конфигурации.
func WithSigningSecret(secret []byte) Option {
	return func(o *options) { o.secret = secret }
}

func WithVerifier(v signature.Verifier) Option {
	return func(o *options) { o.verifier = v }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
