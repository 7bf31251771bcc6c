package widget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/signature"
)

const (
	testKey    = "PUB_0123456789abcdef0123456789abcdef"
	testSecret = "s3cr3t"
)

// fakeClock: ручные часы, таймеры срабатывают только в Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// backend: тестовый сервер API виджета.
type backend struct {
	t      *testing.T
	srv    *httptest.Server
	config models.WidgetConfig
	secret []byte

	mu       sync.Mutex
	chats    []models.ChatRequest
	patches  []models.SettingsPatch
	authSeen []string

	chatHandler     http.HandlerFunc
	settingsHandler http.HandlerFunc
}

func newBackend(t *testing.T, cfg models.WidgetConfig) *backend {
	t.Helper()
	b := &backend{t: t, config: cfg, secret: []byte(testSecret)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/widget/config", b.serveConfig)
	mux.HandleFunc("/api/v1/widget/chat", func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.chats = append(b.chats, req)
		b.authSeen = append(b.authSeen, r.Header.Get("Authorization"))
		h := b.chatHandler
		b.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}
		writeJSON(w, models.ChatResponse{Message: "echo: " + req.Message})
	})
	mux.HandleFunc("/api/v1/widget/settings", func(w http.ResponseWriter, r *http.Request) {
		var patch models.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.patches = append(b.patches, patch)
		h := b.settingsHandler
		b.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}
		writeJSON(w, models.SettingsResponse{
			OK:        true,
			Version:   len(b.patches) + 1,
			PublicKey: testKey,
			Settings:  patch.Apply(b.config),
		})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) serveConfig(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") != testKey {
		http.Error(w, `{"error":"unknown key"}`, http.StatusNotFound)
		return
	}
	body, err := json.Marshal(b.config)
	if err != nil {
		b.t.Errorf("marshal config: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(signature.Header, signature.Sign(body, b.secret))
	w.Write(body)
}

func (b *backend) apiBase() string { return b.srv.URL + "/api/v1" }

func (b *backend) chatRequests() []models.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ChatRequest(nil), b.chats...)
}

func (b *backend) settingsPatches() []models.SettingsPatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.SettingsPatch(nil), b.patches...)
}

func (b *backend) authHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authSeen...)
}

func (b *backend) setChatHandler(h http.HandlerFunc) {
	b.mu.Lock()
	b.chatHandler = h
	b.mu.Unlock()
}

func (b *backend) setSettingsHandler(h http.HandlerFunc) {
	b.mu.Lock()
	b.settingsHandler = h
	b.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func tenantConfig() models.WidgetConfig {
	cfg := models.DefaultConfig()
	cfg.Theme.PrimaryColor = "#112233"
	cfg.Company = models.Company{ID: "7c1f3a52-1111-4222-8333-944455556666", Name: "Schepen Kring"}
	return cfg
}

// eventLog считает события виджета по имени.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func recordEvents(p *Page) *eventLog {
	l := &eventLog{}
	for _, name := range []string{EventReady, EventOpen, EventClose} {
		p.On(name, func(ev Event) {
			l.mu.Lock()
			l.events = append(l.events, ev)
			l.mu.Unlock()
		})
	}
	return l
}

func (l *eventLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

func (l *eventLog) last(name string) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Name == name {
			return l.events[i], true
		}
	}
	return Event{}, false
}

func newTestWidget(t *testing.T, b *backend, path string, opts ...Option) (*Widget, *Page) {
	t.Helper()
	page := NewPage(path)
	all := []Option{
		WithPublicKey(testKey),
		WithAPIBase(b.apiBase()),
		WithSigningSecret(b.secret),
		WithTimeout(2 * time.Second),
	}
	return New(page, append(all, opts...)...), page
}
