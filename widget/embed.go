package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

var ErrNoEmbed = errors.New("answer24 script tag with data-public-key not found")

const embedSelector = "script[data-public-key]"

// Embed: параметры, прочитанные из тега <script> виджета.
type Embed struct {
	PublicKey   string
	APIBase     string
	PageContext *models.PageContext

	// PageContextErr: data-page-context не разобран, PageContext остался nil.
	PageContextErr error
}

// ReadEmbed находит тег виджета на странице и читает его data-атрибуты.
// Без data-api-base адрес API берётся из src скрипта: origin + /api/v1.
// Битый data-page-context не ошибка: он попадает в PageContextErr.
func ReadEmbed(page *Page) (Embed, error) {
	script := page.Find(embedSelector).First()
	if script.Length() == 0 {
		return Embed{}, ErrNoEmbed
	}

	var e Embed
	e.PublicKey, _ = script.Attr("data-public-key")
	e.PublicKey = strings.TrimSpace(e.PublicKey)
	if e.PublicKey == "" {
		return Embed{}, ErrMissingPublicKey
	}

	if raw, ok := script.Attr("data-page-context"); ok && strings.TrimSpace(raw) != "" {
		var pc models.PageContext
		if err := json.Unmarshal([]byte(raw), &pc); err != nil {
			e.PageContextErr = fmt.Errorf("parse data-page-context: %w", err)
		} else {
			e.PageContext = &pc
		}
	}

	if base, ok := script.Attr("data-api-base"); ok && strings.TrimSpace(base) != "" {
		e.APIBase = strings.TrimRight(strings.TrimSpace(base), "/")
	} else if src, ok := script.Attr("src"); ok {
		u, err := url.Parse(src)
		if err == nil && u.Scheme != "" && u.Host != "" {
			e.APIBase = u.Scheme + "://" + u.Host + "/api/v1"
		}
	}
	return e, nil
}

// FromEmbed создает виджет по тегу <script data-public-key=...> страницы.
// Опции opts применяются после прочитанных из тега и могут их переопределить.
func FromEmbed(page *Page, opts ...Option) (*Widget, error) {
	e, err := ReadEmbed(page)
	if err != nil {
		return nil, err
	}

	all := []Option{WithPublicKey(e.PublicKey), WithPageContext(e.PageContext)}
	if e.APIBase != "" {
		all = append(all, WithAPIBase(e.APIBase))
	}
	all = append(all, opts...)
	w := New(page, all...)

	if e.PageContextErr != nil {
		w.opts.logger.Warn("контекст страницы пропущен",
			zap.String("public_key", e.PublicKey),
			zap.Error(e.PageContextErr),
		)
	}
	return w, nil
}
