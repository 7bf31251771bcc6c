package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/middleware"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// ListTenants возвращает страницу арендаторов без секретов
func (h *Handler) ListTenants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(config.DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > config.MaxPageSize {
		pageSize = config.DefaultPageSize
	}

	tenants, totalItems, err := h.Store.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.Logger.Error("ошибка получения арендаторов", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения арендаторов"})
		return
	}

	items := make([]models.Tenant, len(tenants))
	for i, t := range tenants {
		items[i] = t.Redacted()
	}

	// Рассчитываем общее количество страниц
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	})
}

// CreateTenant создает арендатора с новым публичным ключом и секретом подписи
func (h *Handler) CreateTenant(c *gin.Context) {
	var body struct {
		Name   string          `json:"name" binding:"required,max=120"`
		Config json.RawMessage `json:"config"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// поля, которых нет в запросе, берутся по умолчанию
	cfg := models.DefaultConfig()
	if len(body.Config) > 0 {
		if err := json.Unmarshal(body.Config, &cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная конфигурация: " + err.Error()})
			return
		}
	}

	t, err := h.Store.Create(c.Request.Context(), body.Name, cfg)
	if err != nil {
		h.Logger.Error("ошибка создания арендатора", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания арендатора"})
		return
	}

	h.Logger.Info("создан арендатор",
		zap.String("company_id", t.ID.String()),
		zap.String("admin", c.GetString(middleware.ContextAdminEmail)),
	)
	c.JSON(http.StatusCreated, t)
}

// GetTenant возвращает арендатора вместе с секретом подписи
func (h *Handler) GetTenant(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		return
	}

	t, err := h.Store.GetByID(c.Request.Context(), id)
	if h.storeError(c, err) {
		return
	}
	c.JSON(http.StatusOK, t)
}

// RotateTenantKey выпускает новый публичный ключ и секрет. Старый ключ перестаёт работать сразу.
func (h *Handler) RotateTenantKey(c *gin.Context) {
	id, ok := tenantID(c)
	if !ok {
		return
	}

	t, err := h.Store.RotateKeys(c.Request.Context(), id)
	if h.storeError(c, err) {
		return
	}

	h.Logger.Info("ключи арендатора перевыпущены", zap.String("company_id", t.ID.String()))
	c.JSON(http.StatusOK, t)
}

func tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := database.StringToUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный ID"})
		return uuid.Nil, false
	}
	return id, true
}

// storeError отвечает клиенту, если err != nil.
func (h *Handler) storeError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "арендатор не найден"})
	default:
		h.Logger.Error("ошибка хранилища", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
	}
	return true
}
