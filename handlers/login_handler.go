package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

const RoleAdmin = "admin"

// Login обрабатывает авторизацию админов
func (h *Handler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.Config.AdminEmail == "" || h.Config.AdminPasswordHash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "вход администратора не настроен"})
		return
	}

	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(credentials.Email)),
		[]byte(strings.ToLower(h.Config.AdminEmail)),
	) == 1
	// хеш сравниваем всегда, чтобы время ответа не выдавало email
	passErr := bcrypt.CompareHashAndPassword([]byte(h.Config.AdminPasswordHash), []byte(credentials.Password))
	if !emailOK || passErr != nil {
		h.Logger.Info("неудачная попытка входа", zap.String("email", credentials.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "неверные учетные данные"})
		return
	}

	token, err := h.Tokens.Generate(h.Config.AdminEmail, RoleAdmin)
	if err != nil {
		h.Logger.Error("ошибка генерации токена", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения данных пользователя"})
		return
	}

	h.Logger.Info("успешная авторизация администратора", zap.String("email", h.Config.AdminEmail))
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": models.Admin{Email: h.Config.AdminEmail, Role: RoleAdmin},
	})
}
