package llm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxReplyRunes: ответ длиннее обрезается, чтобы не растягивать пузырь виджета.
const maxReplyRunes = 2000

var (
	// локальные модели (LM Studio, Ollama) присылают рассуждения в <think>...</think>
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// sanitize готовит текст модели к показу в виджете.
func sanitize(resp string) string {
	resp = thinkBlock.ReplaceAllString(resp, "")
	resp = strings.ReplaceAll(resp, "\r\n", "\n")
	resp = blankLines.ReplaceAllString(resp, "\n\n")
	resp = strings.TrimSpace(resp)

	if utf8.RuneCountInString(resp) > maxReplyRunes {
		runes := []rune(resp)
		resp = strings.TrimSpace(string(runes[:maxReplyRunes])) + "…"
	}
	return resp
}
