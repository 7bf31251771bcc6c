package widget

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// Идентификаторы и классы узлов виджета
const (
	idRoot           = "answer24-root"
	idLauncher       = "answer24-launcher"
	idPanel          = "answer24-panel"
	idHeader         = "answer24-header"
	idTitle          = "answer24-title"
	idClose          = "answer24-close"
	idSettingsToggle = "answer24-settings-toggle"
	idMessages       = "answer24-messages"
	idInputRow       = "answer24-input-row"
	idInput          = "answer24-input"
	idSend           = "answer24-send"
	idSettings       = "answer24-settings"
	idSettingsSave   = "answer24-settings-save"

	classMsg     = "answer24-msg"
	classUser    = "answer24-msg-user"
	classBot     = "answer24-msg-bot"
	classError   = "answer24-msg-error"
	classTyping  = "answer24-typing"
	classWelcome = "answer24-welcome"
)

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func el(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// css собирает inline-стиль из пар "свойство", "значение".
func css(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pairs[i])
		b.WriteByte(':')
		b.WriteString(pairs[i+1])
		b.WriteByte(';')
	}
	return b.String()
}

// setStyle меняет одно свойство inline-стиля; пустое значение удаляет его.
func setStyle(sel *goquery.Selection, prop, val string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		var out []string
		found := false
		for _, decl := range strings.Split(style, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			k = strings.TrimSpace(k)
			if k == prop {
				found = true
				if val == "" {
					continue
				}
				v = val
			}
			out = append(out, k+":"+strings.TrimSpace(v))
		}
		if !found && val != "" {
			out = append(out, prop+":"+val)
		}
		s.SetAttr("style", strings.Join(out, ";")+";")
	})
}

// styleProp читает свойство inline-стиля.
func styleProp(sel *goquery.Selection, prop string) string {
	style, _ := sel.Attr("style")
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func px(n int) string { return strconv.Itoa(n) + "px" }

func sideProps(position string) (string, string) {
	if position == models.PositionLeft {
		return "left", "right"
	}
	return "right", "left"
}

func displayFor(open bool) string {
	if open {
		return "flex"
	}
	return "none"
}

// renderWidget строит дерево виджета по настройкам. Результат не привязан к документу.
func renderWidget(cfg models.WidgetConfig, open bool) *html.Node {
	side, _ := sideProps(cfg.Theme.Position)
	z := strconv.Itoa(cfg.Theme.ZIndex)

	launcher := el("button", []html.Attribute{
		attr("id", idLauncher),
		attr("type", "button"),
		attr("aria-label", "Open "+cfg.I18n.Title),
		attr("aria-expanded", strconv.FormatBool(open)),
		attr("style", css(
			"position", "fixed",
			"bottom", "20px",
			side, "20px",
			"width", "56px",
			"height", "56px",
			"border-radius", "50%",
			"border", "none",
			"cursor", "pointer",
			"background", cfg.Theme.PrimaryColor,
			"color", cfg.Theme.TextColor,
			"z-index", z,
			"font-family", cfg.Theme.FontFamily,
		)),
	}, text("💬"))

	headerChildren := []*html.Node{
		el("span", []html.Attribute{attr("id", idTitle)}, text(cfg.Company.Name)),
	}
	if cfg.Features.SettingsPanel {
		headerChildren = append(headerChildren, settingsToggle())
	}
	headerChildren = append(headerChildren, el("button", []html.Attribute{
		attr("id", idClose),
		attr("type", "button"),
		attr("aria-label", "Close"),
		attr("style", css("background", "transparent", "border", "none", "color", "inherit", "cursor", "pointer")),
	}, text("×")))

	header := el("div", []html.Attribute{
		attr("id", idHeader),
		attr("style", css(
			"display", "flex",
			"align-items", "center",
			"justify-content", "space-between",
			"gap", "8px",
			"padding", "14px 16px",
			"font-weight", "600",
			"background", cfg.Theme.PrimaryColor,
			"color", cfg.Theme.TextColor,
		)),
	}, headerChildren...)

	messages := el("div", []html.Attribute{
		attr("id", idMessages),
		attr("role", "log"),
		attr("aria-live", "polite"),
		attr("style", css("flex", "1", "overflow-y", "auto", "padding", "12px", "display", "flex", "flex-direction", "column", "gap", "8px")),
	})
	if cfg.I18n.WelcomeMessage != "" {
		messages.AppendChild(welcomeBubble(cfg))
	}

	panelChildren := []*html.Node{header, messages}
	if cfg.Features.Chat {
		panelChildren = append(panelChildren, el("div", []html.Attribute{
			attr("id", idInputRow),
			attr("style", css("display", "flex", "gap", "8px", "padding", "10px", "border-top", "1px solid #E5E7EB")),
		},
			el("input", []html.Attribute{
				attr("id", idInput),
				attr("type", "text"),
				attr("autocomplete", "off"),
				attr("placeholder", cfg.I18n.Placeholder),
				attr("style", css("flex", "1", "padding", "8px 10px", "border", "1px solid #D1D5DB", "border-radius", px(min(cfg.Theme.BorderRadius, 10)))),
			}),
			el("button", []html.Attribute{
				attr("id", idSend),
				attr("type", "button"),
				attr("style", css(
					"padding", "8px 14px",
					"border", "none",
					"cursor", "pointer",
					"border-radius", px(min(cfg.Theme.BorderRadius, 10)),
					"background", cfg.Theme.PrimaryColor,
					"color", cfg.Theme.TextColor,
				)),
			}, text(cfg.I18n.SendLabel)),
		))
	}

	panel := el("div", []html.Attribute{
		attr("id", idPanel),
		attr("role", "dialog"),
		attr("aria-label", cfg.I18n.Title),
		attr("aria-hidden", strconv.FormatBool(!open)),
		attr("style", css(
			"position", "fixed",
			"bottom", "88px",
			side, "20px",
			"width", "360px",
			"max-width", "calc(100vw - 40px)",
			"height", "520px",
			"max-height", "calc(100vh - 120px)",
			"display", displayFor(open),
			"flex-direction", "column",
			"overflow", "hidden",
			"background", "#FFFFFF",
			"box-shadow", "0 12px 32px rgba(0,0,0,0.18)",
			"border-radius", px(cfg.Theme.BorderRadius),
			"z-index", z,
			"font-family", cfg.Theme.FontFamily,
		)),
	}, panelChildren...)

	return el("div", []html.Attribute{
		attr("id", idRoot),
		attr("data-company-id", cfg.Company.ID),
		attr("data-position", cfg.Theme.Position),
	}, launcher, panel)
}

func settingsToggle() *html.Node {
	return el("button", []html.Attribute{
		attr("id", idSettingsToggle),
		attr("type", "button"),
		attr("aria-label", "Settings"),
		attr("style", css("background", "transparent", "border", "none", "color", "inherit", "cursor", "pointer")),
	}, text("⚙"))
}

func welcomeBubble(cfg models.WidgetConfig) *html.Node {
	n := renderBubble(cfg, models.SenderBot, cfg.I18n.WelcomeMessage)
	appendClass(n, classWelcome)
	return n
}

// renderBubble строит пузырь сообщения; sender: "user", "bot" или "error".
func renderBubble(cfg models.WidgetConfig, sender, body string) *html.Node {
	class := classMsg + " "
	style := []string{
		"max-width", "80%",
		"padding", "8px 12px",
		"border-radius", px(min(cfg.Theme.BorderRadius, 14)),
		"white-space", "pre-wrap",
		"word-break", "break-word",
	}
	switch sender {
	case models.SenderUser:
		class += classUser
		style = append(style, "align-self", "flex-end", "background", cfg.Theme.PrimaryColor, "color", cfg.Theme.TextColor)
	case models.SenderBot:
		class += classBot
		style = append(style, "align-self", "flex-start", "background", "#F3F4F6", "color", "#111827")
	default:
		class += classError
		style = append(style, "align-self", "flex-start", "background", "#FEE2E2", "color", "#991B1B")
	}
	return el("div", []html.Attribute{
		attr("class", class),
		attr("data-sender", sender),
		attr("style", css(style...)),
	}, text(body))
}

func renderTyping() *html.Node {
	return el("div", []html.Attribute{
		attr("class", classMsg+" "+classBot+" "+classTyping),
		attr("aria-label", "typing"),
		attr("style", css("align-self", "flex-start", "padding", "8px 12px", "background", "#F3F4F6", "color", "#6B7280")),
	}, text("..."))
}

// renderSettings строит форму панели настроек, заполненную текущими значениями.
func renderSettings(cfg models.WidgetConfig) *html.Node {
	field := func(label, name, typ, value string) *html.Node {
		return el("label", []html.Attribute{attr("style", css("display", "flex", "flex-direction", "column", "gap", "4px", "font-size", "13px"))},
			text(label),
			el("input", []html.Attribute{attr("name", name), attr("type", typ), attr("value", value)}),
		)
	}
	toggle := func(label, name string, on bool) *html.Node {
		attrs := []html.Attribute{attr("name", name), attr("type", "checkbox")}
		if on {
			attrs = append(attrs, attr("checked", ""))
		}
		return el("label", []html.Attribute{attr("style", css("display", "flex", "gap", "6px", "font-size", "13px"))},
			el("input", attrs),
			text(label),
		)
	}

	return el("div", []html.Attribute{
		attr("id", idSettings),
		attr("style", css("display", "none", "flex-direction", "column", "gap", "10px", "padding", "12px", "border-bottom", "1px solid #E5E7EB")),
	},
		field("Company name", "companyName", "text", cfg.Company.Name),
		field("Welcome message", "welcomeMessage", "text", cfg.I18n.WelcomeMessage),
		field("Primary color", "primaryColor", "color", cfg.Theme.PrimaryColor),
		toggle("Chat", "chat", cfg.Features.Chat),
		toggle("Open on exit intent", "exitIntent", cfg.Features.ExitIntent),
		toggle("Open on inactivity", "inactivity", cfg.Features.Inactivity),
		el("button", []html.Attribute{
			attr("id", idSettingsSave),
			attr("type", "button"),
			attr("style", css("border", "none", "padding", "8px", "cursor", "pointer", "background", cfg.Theme.PrimaryColor, "color", cfg.Theme.TextColor)),
		}, text("Save")),
	)
}

func appendClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = a.Val + " " + class
			return
		}
	}
	n.Attr = append(n.Attr, attr("class", class))
}

// mount вставляет дерево в body, заменяя прежний экземпляр виджета.
func mount(doc *goquery.Document, root *html.Node) {
	doc.Find("#" + idRoot).Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		return
	}
	body.Nodes[0].AppendChild(root)
}

func unmount(doc *goquery.Document) {
	doc.Find("#" + idRoot).Remove()
}

func setOpen(doc *goquery.Document, open bool) {
	panel := doc.Find("#" + idPanel)
	setStyle(panel, "display", displayFor(open))
	panel.SetAttr("aria-hidden", strconv.FormatBool(!open))
	doc.Find("#"+idLauncher).SetAttr("aria-expanded", strconv.FormatBool(open))
}

func appendMessage(doc *goquery.Document, n *html.Node) {
	list := doc.Find("#" + idMessages)
	if list.Length() == 0 {
		return
	}
	list.Nodes[0].AppendChild(n)
}

// restyle обновляет цвета, позицию и тексты уже отрисованного виджета без перерисовки.
func restyle(doc *goquery.Document, cfg models.WidgetConfig) {
	side, other := sideProps(cfg.Theme.Position)

	for _, id := range []string{idLauncher, idPanel} {
		sel := doc.Find("#" + id)
		setStyle(sel, other, "")
		setStyle(sel, side, "20px")
	}
	for _, sel := range []*goquery.Selection{
		doc.Find("#" + idLauncher),
		doc.Find("#" + idHeader),
		doc.Find("#" + idSend),
		doc.Find("#" + idSettingsSave),
		doc.Find("." + classUser),
	} {
		setStyle(sel, "background", cfg.Theme.PrimaryColor)
		setStyle(sel, "color", cfg.Theme.TextColor)
	}

	doc.Find("#"+idRoot).SetAttr("data-position", cfg.Theme.Position)
	doc.Find("#" + idTitle).SetText(cfg.Company.Name)
	doc.Find("#"+idInput).SetAttr("placeholder", cfg.I18n.Placeholder)

	welcome := doc.Find("." + classWelcome)
	switch {
	case cfg.I18n.WelcomeMessage == "":
		welcome.Remove()
	case welcome.Length() > 0:
		welcome.SetText(cfg.I18n.WelcomeMessage)
	default:
		doc.Find("#" + idMessages).PrependNodes(welcomeBubble(cfg))
	}

	setSettingsAvailable(doc, cfg.Features.SettingsPanel)
}

// setSettingsAvailable показывает кнопку настроек или прячет её вместе с открытой панелью.
func setSettingsAvailable(doc *goquery.Document, enabled bool) {
	toggle := doc.Find("#" + idSettingsToggle)
	if !enabled {
		setStyle(toggle, "display", "none")
		setStyle(doc.Find("#"+idSettings), "display", "none")
		return
	}
	if toggle.Length() == 0 {
		doc.Find("#" + idClose).BeforeNodes(settingsToggle())
		return
	}
	setStyle(toggle, "display", "")
}
