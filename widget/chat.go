package widget

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// SendMessage отправляет сообщение пользователя в чат и ждёт ответ бота.
// Сообщение пользователя и плейсхолдер "..." появляются сразу. При ошибке
// плейсхолдер заменяется сообщением об ошибке, в историю оно не попадает.
// Пока предыдущее сообщение не получило ответ, новое не отправляется.
func (w *Widget) SendMessage(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	w.mu.Lock()
	switch {
	case !w.mounted:
		w.mu.Unlock()
		return models.Message{}, ErrNotMounted
	case !w.settings.Features.Chat:
		w.mu.Unlock()
		return models.Message{}, ErrChatDisabled
	case w.sending:
		w.mu.Unlock()
		return models.Message{}, ErrSendInFlight
	}
	w.sending = true

	// история: предыдущие сообщения, само сообщение уходит в поле message
	history := models.LastN(w.messages, models.HistoryLimit)
	userMsg := models.NewMessage(models.SenderUser, text)
	w.messages = append(w.messages, userMsg)

	cfg := w.settings
	placeholder := renderTyping()
	w.page.mutate(func(doc *goquery.Document) {
		appendMessage(doc, renderBubble(cfg, models.SenderUser, text))
		appendMessage(doc, placeholder)
	})

	req := models.ChatRequest{
		Message:     text,
		History:     history,
		PageContext: w.opts.pageContext,
		CompanyID:   cfg.Company.ID,
	}
	gen := w.mountGen
	reqCtx, cancel := w.requestContextLocked(ctx)
	w.mu.Unlock()
	defer cancel()

	var resp models.ChatResponse
	err := w.api.postJSON(reqCtx, "/widget/chat", req, &resp)

	w.mu.Lock()
	defer w.mu.Unlock()

	// виджет размонтирован или переинициализирован, пока шёл запрос
	if gen != w.mountGen {
		if err == nil {
			err = ErrNotMounted
		}
		return models.Message{}, err
	}
	w.sending = false

	if err != nil {
		w.opts.logger.Warn("ошибка отправки сообщения в чат",
			zap.String("public_key", w.opts.publicKey),
			zap.Error(err),
		)
		w.page.mutate(func(doc *goquery.Document) {
			removeNode(placeholder)
			appendMessage(doc, renderBubble(cfg, "error", cfg.I18n.ErrorMessage))
		})
		return models.Message{}, err
	}

	reply := strings.TrimSpace(resp.Message)
	if reply == "" {
		reply = cfg.I18n.FallbackReply
	}
	botMsg := models.NewMessage(models.SenderBot, reply)
	w.messages = append(w.messages, botMsg)
	w.page.mutate(func(doc *goquery.Document) {
		removeNode(placeholder)
		appendMessage(doc, renderBubble(cfg, models.SenderBot, reply))
	})
	return botMsg, nil
}

// SubmitInput отправляет текст из поля ввода и очищает его (Enter или кнопка "Send").
func (w *Widget) SubmitInput(ctx context.Context) (models.Message, error) {
	var text string
	w.page.mutate(func(doc *goquery.Document) {
		input := doc.Find("#" + idInput)
		text, _ = input.Attr("value")
		if strings.TrimSpace(text) != "" {
			input.SetAttr("value", "")
		}
	})
	return w.SendMessage(ctx, text)
}

// SetInput имитирует ввод текста в поле сообщения.
func (w *Widget) SetInput(text string) {
	w.page.mutate(func(doc *goquery.Document) {
		doc.Find("#"+idInput).SetAttr("value", text)
	})
}

func removeNode(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
