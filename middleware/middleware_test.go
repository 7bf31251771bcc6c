package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret")
	token, err := tokens.Generate("admin@answer24.nl", "admin")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Email != "admin@answer24.nl" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := NewTokens("other").Validate(token); err == nil {
		t.Error("token signed with another key accepted")
	}
}

func TestTokensExpired(t *testing.T) {
	tokens := NewTokens("secret")
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.nowFunc = func() time.Time { return issued }
	token, err := tokens.Generate("admin@answer24.nl", "admin")
	if err != nil {
		t.Fatal(err)
	}

	tokens.nowFunc = func() time.Time { return issued.Add(25 * time.Hour) }
	if _, err := tokens.Validate(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestAdminAuth(t *testing.T) {
	tokens := NewTokens("secret")
	token, _ := tokens.Generate("admin@answer24.nl", "admin")

	r := gin.New()
	r.GET("/admin", AdminAuth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextAdminEmail))
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != "admin@answer24.nl" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func tenantRouter(t *testing.T) (*gin.Engine, *models.Tenant, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	tenant, err := store.Create(context.Background(), "Schepen Kring", models.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	r.GET("/w", PublicKeyAuth(store, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, TenantFrom(c).Name)
	})
	return r, tenant, store
}

func TestPublicKeyAuth(t *testing.T) {
	r, tenant, _ := tenantRouter(t)

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"missing", "/w", "", http.StatusUnauthorized},
		{"unknown", "/w", "Bearer PUB_unknown", http.StatusNotFound},
		{"bearer", "/w", "Bearer " + tenant.PublicKey, http.StatusOK},
		{"query", "/w?key=" + tenant.PublicKey, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestPublicKeyAuthInactiveTenant(t *testing.T) {
	r, tenant, store := tenantRouter(t)
	if err := store.SetActive(tenant.ID, false); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/w", nil)
	req.Header.Set("Authorization", "Bearer "+tenant.PublicKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

type countingLimiter struct {
	allowed int
	err     error
	keys    []string
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	l.allowed++
	return l.allowed <= limit, nil
}

func TestRateLimit(t *testing.T) {
	lim := &countingLimiter{}
	r := gin.New()
	r.POST("/chat", RateLimit(lim, 2, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		codes = append(codes, w.Code)
		if i == 2 && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
		}
	}
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i, codes[i], want[i])
		}
	}
	if lim.keys[0] != "ratelimit:/chat:ip:192.0.2.1" {
		t.Errorf("key = %q", lim.keys[0])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	lim := &countingLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/chat", RateLimit(lim, 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestRateLimitPerTenant(t *testing.T) {
	store := database.NewMemoryStore()
	tenant, _ := store.Create(context.Background(), "A", models.DefaultConfig())
	lim := &countingLimiter{}

	r := gin.New()
	r.POST("/chat", PublicKeyAuth(store, zap.NewNop()), RateLimit(lim, 5, time.Minute, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer "+tenant.PublicKey)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(lim.keys) != 1 || lim.keys[0] != "ratelimit:/chat:widget:"+tenant.PublicKey {
		t.Errorf("keys = %v", lim.keys)
	}
}
