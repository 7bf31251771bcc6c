// Package signature подписывает и проверяет конфигурацию виджета (HMAC-SHA256).
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Header: заголовок ответа /widget/config с подписью тела.
const Header = "X-Answer24-Signature"

var ErrInvalidSignature = errors.New("invalid config signature")

// Verifier проверяет подпись тела ответа общим секретом.
type Verifier interface {
	Verify(body []byte, signature string, secret []byte) bool
}

// HMAC реализует Verifier через HMAC-SHA256 в hex.
type HMAC struct{}

// Sign возвращает hex(HMAC-SHA256(body, secret)).
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает подпись за постоянное время. Допускается префикс "sha256=".
func (HMAC) Verify(body []byte, signature string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Check возвращает ErrInvalidSignature, если подпись отсутствует или не совпадает.
func Check(v Verifier, body []byte, signature string, secret []byte) error {
	if signature == "" || !v.Verify(body, signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}
