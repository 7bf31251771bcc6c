package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/tech-monarch/schepen-kring-sub003/config"
)

// Ключи контекста gin
const (
	ContextAdminEmail = "adminEmail"
	ContextRole       = "role"
)

// JWTClaims определяет структуру данных токена
type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens выпускает и проверяет JWT администраторов.
type Tokens struct {
	key     []byte
	nowFunc func() time.Time
}

// NewTokens создает выпускающего токены с ключом подписи secret
func NewTokens(secret string) *Tokens {
	return &Tokens{key: []byte(secret), nowFunc: time.Now}
}

// Generate генерирует JWT токен
func (t *Tokens) Generate(email, role string) (string, error) {
	now := t.nowFunc()

	claims := &JWTClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    config.TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Validate проверяет и парсит JWT токен
func (t *Tokens) Validate(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем, что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("недействительный токен")
	}

	// сроки проверяем сами, чтобы работали подменённые часы
	now := t.nowFunc()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, errors.New("токен истёк")
	}
	if !claims.VerifyIssuer(config.TokenIssuer, true) {
		return nil, errors.New("неверный издатель токена")
	}
	return claims, nil
}

// AdminAuth проверяет JWT токен администратора
func AdminAuth(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "неверный или устаревший токен"})
			return
		}

		c.Set(ContextAdminEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// bearer достаёт токен из заголовка Authorization: Bearer <token>
func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
