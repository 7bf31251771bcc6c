package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/kafka"
	"github.com/tech-monarch/schepen-kring-sub003/limiter"
	"github.com/tech-monarch/schepen-kring-sub003/middleware"
	"github.com/tech-monarch/schepen-kring-sub003/models"
	"github.com/tech-monarch/schepen-kring-sub003/websocket"
)

// Replier генерирует ответ чата виджета (llm.Responder).
type Replier interface {
	Reply(ctx context.Context, tenant *models.Tenant, req models.ChatRequest) (string, error)
}

// Deps: зависимости обработчиков.
type Deps struct {
	Config    *config.Config
	Store     database.TenantStore
	Responder Replier
	Limiter   limiter.Limiter
	Publisher kafka.Publisher
	Hub       *websocket.Hub
	Tokens    *middleware.Tokens
	Logger    *zap.Logger
}

// Handler обслуживает API виджета и администратора.
type Handler struct {
	Deps

	// фоновые публикации событий
	inflight sync.WaitGroup
}

func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = kafka.Noop{}
	}
	if deps.Limiter == nil {
		deps.Limiter = limiter.NewMemory()
	}
	if deps.Tokens == nil {
		deps.Tokens = middleware.NewTokens(deps.Config.JWTSecret)
	}
	return &Handler{Deps: deps}
}

// PaginationResponse стандартная структура ответа с пагинацией
type PaginationResponse struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// Register регистрирует все маршруты.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/ping", Ping)

	api := r.Group(config.APIPrefix)
	{
		// Эндпоинт для авторизации админов (публичный)
		api.POST("/auth/login", h.Login)

		widget := api.Group("/widget")
		widget.Use(middleware.PublicKeyAuth(h.Store, h.Logger))
		{
			widget.GET("/config", h.GetWidgetConfig)
			widget.GET("/preview", h.PreviewWidget)
			widget.GET("/ws", h.ServeWs)
			widget.POST("/chat",
				middleware.RateLimit(h.Limiter, h.Config.ChatRateLimit, h.Config.ChatRateWindow, h.Logger),
				h.Chat,
			)
			widget.POST("/settings", h.SaveSettings)
		}

		// Защищенные маршруты
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(h.Tokens))
		{
			admin.GET("/tenants", h.ListTenants)
			admin.POST("/tenants", h.CreateTenant)
			admin.GET("/tenants/:id", h.GetTenant)
			admin.POST("/tenants/:id/rotate-key", h.RotateTenantKey)
		}
	}
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// publish отправляет событие в фоне, чтобы медленный брокер не задерживал ответ.
// Ошибка только логируется.
func (h *Handler) publish(ctx context.Context, ev kafka.Event) {
	ctx = context.WithoutCancel(ctx)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, config.PublishTimeout)
		defer cancel()

		if err := h.Publisher.Publish(ctx, ev); err != nil {
			h.Logger.Warn("не удалось опубликовать событие",
				zap.String("type", ev.Type),
				zap.String("company_id", ev.CompanyID),
				zap.Error(err),
			)
		}
	}()
}

// Wait ждёт завершения фоновых публикаций.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// tenant возвращает арендатора из контекста (PublicKeyAuth).
func tenant(c *gin.Context) (*models.Tenant, bool) {
	t := middleware.TenantFrom(c)
	if t == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "виджет не авторизован"})
		return nil, false
	}
	return t, true
}
