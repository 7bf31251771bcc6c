package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

const ContextTenant = "tenant"

// PublicKeyAuth находит арендатора по публичному ключу виджета.
// Ключ берётся из Authorization: Bearer, а если заголовка нет, из ?key=
// (браузер не умеет ставить заголовки на WebSocket и на <script>-загрузку конфигурации).
func PublicKeyAuth(store database.TenantStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := bearer(c)
		if !ok {
			key = c.Query("key")
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "публичный ключ не указан"})
			return
		}

		tenant, err := store.GetByPublicKey(c.Request.Context(), key)
		if errors.Is(err, database.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "виджет не найден"})
			return
		}
		if err != nil {
			logger.Error("ошибка поиска арендатора", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.Set(ContextTenant, tenant)
		c.Next()
	}
}

// TenantFrom возвращает арендатора, найденного PublicKeyAuth.
func TenantFrom(c *gin.Context) *models.Tenant {
	v, ok := c.Get(ContextTenant)
	if !ok {
		return nil
	}
	t, _ := v.(*models.Tenant)
	return t
}
