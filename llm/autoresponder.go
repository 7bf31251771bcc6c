package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// Responder отвечает посетителям в чате виджета от имени компании-арендатора.
type Responder struct {
	completer Completer
	logger    *zap.Logger
}

func NewResponder(c Completer, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{completer: c, logger: logger}
}

// systemPrompt описывает ассистенту компанию и страницу, с которой пишет посетитель.
func systemPrompt(tenant *models.Tenant, pc *models.PageContext) string {
	cfg := tenant.PublicConfig()

	var b strings.Builder
	fmt.Fprintf(&b, "You are the customer support assistant of %s. ", cfg.Company.Name)
	b.WriteString("Answer briefly, politely and in the language of the visitor. ")
	b.WriteString("If you do not know the answer, offer to pass the question to a colleague.")

	if pc != nil {
		if pc.CartValue.GreaterThan(decimal.Zero) {
			fmt.Fprintf(&b, "\nThe visitor's cart value is %s.", pc.CartValue.StringFixed(2))
		}
		keys := make([]string, 0, len(pc.Extra))
		for k := range pc.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\nPage %s: %v", k, pc.Extra[k])
		}
	}
	return b.String()
}

// buildMessages собирает system + последние сообщения истории + текущее сообщение.
func buildMessages(tenant *models.Tenant, req models.ChatRequest) []openai.ChatCompletionMessage {
	history := models.LastN(req.History, models.HistoryLimit)

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(tenant, req.PageContext),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Sender == models.SenderBot {
			role = openai.ChatMessageRoleAssistant
		}
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})
	return msgs
}

// Reply генерирует ответ на сообщение посетителя. Пустая строка означает,
// что модель ничего не ответила и виджет покажет fallbackReply.
func (r *Responder) Reply(ctx context.Context, tenant *models.Tenant, req models.ChatRequest) (string, error) {
	raw, err := r.completer.Complete(ctx, buildMessages(tenant, req))
	if err != nil {
		r.logger.Error("ошибка при генерации ответа",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	reply := sanitize(raw)
	if reply == "" {
		r.logger.Warn("LLM вернула пустой ответ", zap.String("tenant_id", tenant.ID.String()))
	}
	return reply, nil
}
