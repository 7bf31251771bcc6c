// database/store.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

var ErrNotFound = errors.New("tenant not found")

// TenantStore хранит арендаторов виджета и их конфигурацию.
type TenantStore interface {
	// GetByPublicKey ищет только активных арендаторов.
	GetByPublicKey(ctx context.Context, publicKey string) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// List возвращает страницу арендаторов (новые первыми) и общее количество.
	List(ctx context.Context, page, size int) ([]models.Tenant, int, error)
	Create(ctx context.Context, name string, cfg models.WidgetConfig) (*models.Tenant, error)
	// UpdateConfig атомарно применяет patch к сохранённой конфигурации
	// и возвращает её новое состояние и версию.
	UpdateConfig(ctx context.Context, id uuid.UUID, patch models.SettingsPatch) (models.WidgetConfig, int, error)
	// RotateKeys выпускает новый публичный ключ и секрет подписи.
	RotateKeys(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// newTenant собирает нового арендатора с ключами.
func newTenant(name string, cfg models.WidgetConfig) (*models.Tenant, error) {
	secret, err := GenerateSigningSecret()
	if err != nil {
		return nil, err
	}
	if cfg.Company.Name == "" {
		cfg.Company.Name = name
	}
	return &models.Tenant{
		ID:            uuid.New(),
		Name:          name,
		PublicKey:     GeneratePublicKey(),
		SigningSecret: secret,
		Config:        cfg.Normalize(),
		Version:       1,
		Active:        true,
	}, nil
}
