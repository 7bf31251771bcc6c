package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/kafka"
	"github.com/tech-monarch/schepen-kring-sub003/limiter"
	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeReplier отвечает эхом или заданной ошибкой и запоминает запросы.
type fakeReplier struct {
	mu   sync.Mutex
	reqs []models.ChatRequest
	err  error
}

func (f *fakeReplier) Reply(_ context.Context, t *models.Tenant, req models.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return t.Name + ": " + req.Message, nil
}

func (f *fakeReplier) requests() []models.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChatRequest(nil), f.reqs...)
}

// recorder: kafka.Publisher в памяти.
type recorder struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) published() []kafka.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Event(nil), r.events...)
}

type testEnv struct {
	router    *gin.Engine
	handler   *Handler
	store     *database.MemoryStore
	tenant    *models.Tenant
	replier   *fakeReplier
	publisher *recorder
	hub       *websocket.Hub
	stopHub   context.CancelFunc
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins:   []string{"*"},
		ChatRateLimit:    100,
		ChatRateWindow:   time.Minute,
		ChatRateStrategy: "fixed",
		JWTSecret:        "test-jwt-secret",
	}
	for _, m := range mutate {
		m(cfg)
	}

	store := database.NewMemoryStore()
	tenantCfg := models.DefaultConfig()
	tenantCfg.Theme.PrimaryColor = "#112233"
	tenant, err := store.Create(context.Background(), "Schepen Kring", tenantCfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	env := &testEnv{
		store:     store,
		tenant:    tenant,
		replier:   &fakeReplier{},
		publisher: &recorder{},
		hub:       hub,
		stopHub:   cancel,
	}
	env.handler = New(Deps{
		Config:    cfg,
		Store:     store,
		Responder: env.replier,
		Limiter:   limiter.NewMemory(),
		Publisher: env.publisher,
		Hub:       hub,
	})
	env.router = gin.New()
	env.handler.Register(env.router)
	return env
}

// rewire пересобирает обработчик и роутер с изменёнными зависимостями.
func (e *testEnv) rewire(mutate func(*Deps)) {
	deps := e.handler.Deps
	mutate(&deps)
	e.handler = New(deps)
	e.router = gin.New()
	e.handler.Register(e.router)
}

// do выполняет запрос; body сериализуется в JSON, если это не nil.
func (e *testEnv) do(method, target, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) widgetAuth() string {
	return "Bearer " + e.tenant.PublicKey
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, want, w.Body.String())
	}
}

func (e *testEnv) waitClients(t *testing.T, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.hub.ClientCount(e.tenant.ID.String()) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("websocket clients != %d", want)
}

