package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tech-monarch/schepen-kring-sub003/limiter"
)

// RateLimit ограничивает запросы limit штуками за window на публичный ключ
// (или IP, если арендатор не определён). Ошибка лимитера запрос не блокирует.
func RateLimit(l limiter.Limiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if t := TenantFrom(c); t != nil {
			key = "widget:" + t.PublicKey
		}
		key = "ratelimit:" + c.FullPath() + ":" + key

		allowed, err := l.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("лимитер недоступен, запрос пропущен", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "слишком много запросов"})
			return
		}
		c.Next()
	}
}
