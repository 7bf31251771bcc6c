package widget

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Названия событий, которые виджет отправляет странице
const (
	EventReady = "Answer24:ready"
	EventOpen  = "Answer24:open"
	EventClose = "Answer24:close"
)

// EventDetail: полезная нагрузка событий виджета
type EventDetail struct {
	CompanyID string `json:"companyId"`
	PublicKey string `json:"publicKey"`
}

type Event struct {
	Name   string
	Detail EventDetail
}

// Page описывает хост-страницу, в которую встраивается виджет: документ, путь,
// подписчики событий и обработчик alert.
type Page struct {
	mu   sync.Mutex
	doc  *goquery.Document
	path string

	lmu       sync.Mutex
	listeners map[string][]func(Event)
	alert     func(string)
}

const blankDocument = `<!DOCTYPE html><html><head></head><body></body></html>`

// NewPage создает пустую страницу с указанным путём.
func NewPage(path string) *Page {
	p, err := ParsePage(strings.NewReader(blankDocument), path)
	if err != nil {
		// пустой документ всегда разбирается
		panic(err)
	}
	return p
}

// ParsePage разбирает HTML хост-страницы.
func ParsePage(r io.Reader, path string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if path == "" {
		path = "/"
	}
	return &Page{
		doc:       doc,
		path:      path,
		listeners: make(map[string][]func(Event)),
	}, nil
}

func (p *Page) Path() string { return p.path }

// On подписывает fn на событие name.
func (p *Page) On(name string, fn func(Event)) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	p.listeners[name] = append(p.listeners[name], fn)
}

// Dispatch вызывает подписчиков события синхронно.
func (p *Page) Dispatch(ev Event) {
	p.lmu.Lock()
	fns := append(([]func(Event))(nil), p.listeners[ev.Name]...)
	p.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SetAlertHandler задаёт обработчик блокирующих сообщений (аналог alert()).
func (p *Page) SetAlertHandler(fn func(string)) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	p.alert = fn
}

func (p *Page) Alert(msg string) {
	p.lmu.Lock()
	fn := p.alert
	p.lmu.Unlock()

	if fn != nil {
		fn(msg)
	}
}

// Find выполняет CSS-селектор по документу.
func (p *Page) Find(selector string) *goquery.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find(selector)
}

// HTML сериализует документ целиком.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	for _, n := range p.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render page: %w", err)
		}
	}
	return buf.String(), nil
}

func (p *Page) mutate(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}
