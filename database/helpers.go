// database/helpers.go
package database

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tech-monarch/schepen-kring-sub003/config"
)

// PublicKeyPrefix: префикс публичного ключа виджета.
const PublicKeyPrefix = "PUB_"

// GeneratePublicKey возвращает PUB_ + 32 hex-символа.
func GeneratePublicKey() string {
	return PublicKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateSigningSecret возвращает 32 случайных байта в hex.
func GenerateSigningSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// normalizePage приводит номер и размер страницы к допустимым значениям.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > config.MaxPageSize {
		size = config.DefaultPageSize
	}
	return page, size
}
