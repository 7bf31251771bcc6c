package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/signature"
)

const maxConfigSize = 1 << 20

var ErrMissingPublicKey = errors.New("widget public key is not set")

// ConfigSource загружает конфигурацию виджета.
type ConfigSource interface {
	Load(ctx context.Context) (models.WidgetConfig, error)
}

// StaticSource отдаёт заранее известную конфигурацию.
type StaticSource struct {
	Config models.WidgetConfig
}

func (s StaticSource) Load(context.Context) (models.WidgetConfig, error) {
	return s.Config.Clone().Normalize(), nil
}

// HTTPConfigLoader загружает конфигурацию с GET {APIBase}/widget/config?key=...
// Если задан Secret, тело ответа обязано быть подписано (X-Answer24-Signature).
type HTTPConfigLoader struct {
	APIBase   string
	PublicKey string
	Secret    []byte
	Verifier  signature.Verifier
	Client    *http.Client
	Timeout   time.Duration
}

func (l *HTTPConfigLoader) Load(ctx context.Context) (models.WidgetConfig, error) {
	if l.PublicKey == "" {
		return models.WidgetConfig{}, ErrMissingPublicKey
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	endpoint := l.APIBase + "/widget/config?key=" + url.QueryEscape(l.PublicKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.WidgetConfig{}, fmt.Errorf("create config request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.WidgetConfig{}, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigSize))
	if err != nil {
		return models.WidgetConfig{}, fmt.Errorf("read config: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.WidgetConfig{}, &StatusError{Code: resp.StatusCode, Body: short(string(body))}
	}

	if len(l.Secret) > 0 {
		v := l.Verifier
		if v == nil {
			v = signature.HMAC{}
		}
		if err := signature.Check(v, body, resp.Header.Get(signature.Header), l.Secret); err != nil {
			return models.WidgetConfig{}, err
		}
	}

	// поля, которых нет в ответе, остаются значениями по умолчанию
	cfg := models.DefaultConfig()
	if err := json.Unmarshal(body, &cfg); err != nil {
		return models.WidgetConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg.Normalize(), nil
}
