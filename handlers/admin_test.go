package handlers

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

const (
	adminEmail    = "admin@answer24.nl"
	adminPassword = "correct horse battery staple"
)

func withAdmin(t *testing.T) func(*config.Config) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return func(c *config.Config) {
		c.AdminEmail = adminEmail
		c.AdminPasswordHash = string(hash)
	}
}

func login(t *testing.T, env *testEnv) string {
	t.Helper()
	w := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "Admin@Answer24.nl",
		"password": adminPassword,
	})
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Token string       `json:"token"`
		Admin models.Admin `json:"admin"`
	}
	decode(t, w, &resp)
	if resp.Token == "" || resp.Admin.Email != adminEmail || resp.Admin.Role != RoleAdmin {
		t.Fatalf("login response = %+v", resp)
	}
	return "Bearer " + resp.Token
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, withAdmin(t))
	auth := login(t, env)

	claims, err := env.handler.Tokens.Validate(auth[len("Bearer "):])
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Email != adminEmail {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name   string
		admin  bool
		body   map[string]string
		status int
	}{
		{"wrong password", true, map[string]string{"email": adminEmail, "password": "nope"}, http.StatusUnauthorized},
		{"wrong email", true, map[string]string{"email": "eve@example.com", "password": adminPassword}, http.StatusUnauthorized},
		{"not an email", true, map[string]string{"email": "admin", "password": adminPassword}, http.StatusBadRequest},
		{"missing password", true, map[string]string{"email": adminEmail}, http.StatusBadRequest},
		{"admin not configured", false, map[string]string{"email": adminEmail, "password": adminPassword}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env *testEnv
			if tt.admin {
				env = newTestEnv(t, withAdmin(t))
			} else {
				env = newTestEnv(t)
			}
			w := env.do(http.MethodPost, "/api/v1/auth/login", "", tt.body)
			expectStatus(t, w, tt.status)
		})
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, withAdmin(t))

	w := env.do(http.MethodGet, "/api/v1/admin/tenants", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	// публичный ключ виджета не даёт доступа к админке
	w = env.do(http.MethodGet, "/api/v1/admin/tenants", env.widgetAuth(), nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestAdminTenantLifecycle(t *testing.T) {
	env := newTestEnv(t, withAdmin(t))
	auth := login(t, env)

	w := env.do(http.MethodPost, "/api/v1/admin/tenants", auth, map[string]any{
		"name": "Jachtwerf Noord",
		"config": map[string]any{
			"theme": map[string]any{"primaryColor": "#004488", "position": "left"},
		},
	})
	expectStatus(t, w, http.StatusCreated)
	var created models.Tenant
	decode(t, w, &created)
	if created.PublicKey == "" || created.SigningSecret == "" || created.Version != 1 {
		t.Fatalf("created = %+v", created)
	}
	if created.Config.Theme.Position != models.PositionLeft || created.Config.I18n.Title == "" {
		t.Errorf("config not normalized: %+v", created.Config)
	}

	// список без секретов
	w = env.do(http.MethodGet, "/api/v1/admin/tenants?page=1&pageSize=1", auth, nil)
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Items      []models.Tenant `json:"items"`
		TotalItems int             `json:"totalItems"`
		TotalPages int             `json:"totalPages"`
	}
	decode(t, w, &list)
	if list.TotalItems != 2 || list.TotalPages != 2 || len(list.Items) != 1 {
		t.Errorf("list = %+v", list)
	}
	for _, item := range list.Items {
		if item.SigningSecret != "" {
			t.Error("list leaked a signing secret")
		}
	}

	w = env.do(http.MethodGet, "/api/v1/admin/tenants/"+created.ID.String(), auth, nil)
	expectStatus(t, w, http.StatusOK)
	var got models.Tenant
	decode(t, w, &got)
	if got.SigningSecret != created.SigningSecret {
		t.Error("get did not return the signing secret")
	}

	w = env.do(http.MethodPost, "/api/v1/admin/tenants/"+created.ID.String()+"/rotate-key", auth, nil)
	expectStatus(t, w, http.StatusOK)
	var rotated models.Tenant
	decode(t, w, &rotated)
	if rotated.PublicKey == created.PublicKey || rotated.SigningSecret == created.SigningSecret {
		t.Error("keys not rotated")
	}

	// старый ключ больше не работает
	w = env.do(http.MethodGet, "/api/v1/widget/config?key="+created.PublicKey, "", nil)
	expectStatus(t, w, http.StatusNotFound)
	w = env.do(http.MethodGet, "/api/v1/widget/config?key="+rotated.PublicKey, "", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestAdminTenantNotFound(t *testing.T) {
	env := newTestEnv(t, withAdmin(t))
	auth := login(t, env)

	w := env.do(http.MethodGet, "/api/v1/admin/tenants/not-a-uuid", auth, nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodGet, "/api/v1/admin/tenants/00000000-0000-4000-8000-000000000000", auth, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(http.MethodPost, "/api/v1/admin/tenants/00000000-0000-4000-8000-000000000000/rotate-key", auth, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(http.MethodPost, "/api/v1/admin/tenants", auth, map[string]string{})
	expectStatus(t, w, http.StatusBadRequest)
}
