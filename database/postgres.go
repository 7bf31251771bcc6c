// database/postgres.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// PGStore: TenantStore поверх PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const tenantColumns = `id, name, public_key, signing_secret, config, version, active, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var (
		t   models.Tenant
		raw []byte
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.PublicKey, &t.SigningSecret, &raw,
		&t.Version, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cfg := models.DefaultConfig()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode config of tenant %s: %w", t.ID, err)
		}
	}
	t.Config = cfg.Normalize()
	return &t, nil
}

// ─────────────────────────── чтение

func (s *PGStore) GetByPublicKey(ctx context.Context, publicKey string) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE public_key = $1 AND active`
	t, err := scanTenant(s.pool.QueryRow(ctx, q, publicKey))
	if err != nil {
		return nil, fmt.Errorf("GetByPublicKey: %w", err)
	}
	return t, nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (s *PGStore) List(ctx context.Context, page, size int) ([]models.Tenant, int, error) {
	page, size = normalizePage(page, size)

	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	// 1) общее количество
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List count: %w", err)
	}

	// 2) страница
	q := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.pool.Query(ctx, q, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	tenants := make([]models.Tenant, 0, size)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List scan: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List rows: %w", err)
	}
	return tenants, total, nil
}

// ─────────────────────────── запись

func (s *PGStore) Create(ctx context.Context, name string, cfg models.WidgetConfig) (*models.Tenant, error) {
	t, err := newTenant(name, cfg)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(t.Config)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO tenants (id, name, public_key, signing_secret, config, version, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	if err := s.pool.QueryRow(ctx, q,
		t.ID, t.Name, t.PublicKey, t.SigningSecret, raw, t.Version, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return t, nil
}

// UpdateConfig читает конфигурацию под блокировкой строки (FOR UPDATE), применяет patch
// и сохраняет в той же транзакции: параллельные сохранения не затирают друг друга.
func (s *PGStore) UpdateConfig(ctx context.Context, id uuid.UUID, patch models.SettingsPatch) (models.WidgetConfig, int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	var (
		cfg     models.WidgetConfig
		version int
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, `SELECT config FROM tenants WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		current := models.DefaultConfig()
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decode config: %w", err)
			}
		}
		cfg = patch.Apply(current.Normalize())

		updated, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		const q = `
			UPDATE tenants
			SET config = $2, version = version + 1, updated_at = now()
			WHERE id = $1
			RETURNING version`
		return tx.QueryRow(ctx, q, id, updated).Scan(&version)
	})
	if err != nil {
		return models.WidgetConfig{}, 0, fmt.Errorf("UpdateConfig: %w", err)
	}
	return cfg, version, nil
}

func (s *PGStore) RotateKeys(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	secret, err := GenerateSigningSecret()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.DBQueryTimeout)
	defer cancel()

	q := `
		UPDATE tenants
		SET public_key = $2, signing_secret = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + tenantColumns
	t, err := scanTenant(s.pool.QueryRow(ctx, q, id, GeneratePublicKey(), secret))
	if err != nil {
		return nil, fmt.Errorf("RotateKeys: %w", err)
	}
	return t, nil
}
