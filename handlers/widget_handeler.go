package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/signature"
	"github.com/tech-monarch/schepen-kring-sub003/widget"
)

// GetWidgetConfig отдаёт конфигурацию виджета, подписанную секретом арендатора.
func (h *Handler) GetWidgetConfig(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	body, err := json.Marshal(t.PublicConfig())
	if err != nil {
		h.Logger.Error("ошибка сериализации конфигурации", zap.String("company_id", t.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
		return
	}

	c.Header(signature.Header, signature.Sign(body, []byte(t.SigningSecret)))
	c.Header("Cache-Control", "no-store")
	c.Header("ETag", `"v`+strconv.Itoa(t.Version)+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// PreviewWidget рисует виджет на пустой странице с путём ?path= и корзиной ?cartValue=.
// Заголовок X-Answer24-Visible сообщает, прошёл ли виджет правила видимости.
func (h *Handler) PreviewWidget(c *gin.Context) {
	t, ok := tenant(c)
	if !ok {
		return
	}

	var pc *models.PageContext
	if raw := c.Query("cartValue"); raw != "" {
		cart, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный cartValue"})
			return
		}
		pc = &models.PageContext{CartValue: cart}
	}

	page := widget.NewPage(c.DefaultQuery("path", "/"))
	w := widget.New(page,
		widget.WithPublicKey(t.PublicKey),
		widget.WithConfigSource(widget.StaticSource{Config: t.PublicConfig()}),
		widget.WithPageContext(pc),
		widget.WithLogger(h.Logger),
	)
	if err := w.Init(c.Request.Context(), nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	visible := w.Mounted()

	doc, err := page.HTML()
	w.Unmount()
	if err != nil {
		h.Logger.Error("ошибка рендера превью", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
		return
	}

	c.Header("X-Answer24-Visible", strconv.FormatBool(visible))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}
