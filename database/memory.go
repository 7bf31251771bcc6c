// database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// MemoryStore хранит арендаторов в памяти процесса (разработка без DATABASE_URL, тесты).
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Tenant
	byKey   map[string]uuid.UUID
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*models.Tenant),
		byKey:   make(map[string]uuid.UUID),
		nowFunc: time.Now,
	}
}

// copyTenant отдаёт наружу копию, чтобы вызывающий не менял хранилище.
func copyTenant(t *models.Tenant) *models.Tenant {
	out := *t
	out.Config = t.Config.Clone()
	return &out
}

func (s *MemoryStore) GetByPublicKey(_ context.Context, publicKey string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[publicKey]
	if !ok {
		return nil, ErrNotFound
	}
	t := s.byID[id]
	if !t.Active {
		return nil, ErrNotFound
	}
	return copyTenant(t), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTenant(t), nil
}

func (s *MemoryStore) List(_ context.Context, page, size int) ([]models.Tenant, int, error) {
	page, size = normalizePage(page, size)

	s.mu.RLock()
	all := make([]*models.Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		all = append(all, t)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * size
	if start >= total {
		return []models.Tenant{}, total, nil
	}
	end := min(start+size, total)

	out := make([]models.Tenant, 0, end-start)
	for _, t := range all[start:end] {
		out = append(out, *copyTenant(t))
	}
	return out, total, nil
}

func (s *MemoryStore) Create(_ context.Context, name string, cfg models.WidgetConfig) (*models.Tenant, error) {
	t, err := newTenant(name, cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	t.CreatedAt, t.UpdatedAt = now, now
	s.byID[t.ID] = t
	s.byKey[t.PublicKey] = t.ID
	return copyTenant(t), nil
}

func (s *MemoryStore) UpdateConfig(_ context.Context, id uuid.UUID, patch models.SettingsPatch) (models.WidgetConfig, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return models.WidgetConfig{}, 0, ErrNotFound
	}
	t.Config = patch.Apply(t.Config)
	t.Version++
	t.UpdatedAt = s.nowFunc()
	return t.Config.Clone(), t.Version, nil
}

func (s *MemoryStore) RotateKeys(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	secret, err := GenerateSigningSecret()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.byKey, t.PublicKey)
	t.PublicKey = GeneratePublicKey()
	t.SigningSecret = secret
	t.UpdatedAt = s.nowFunc()
	s.byKey[t.PublicKey] = t.ID
	return copyTenant(t), nil
}

// SetActive включает или отключает арендатора.
func (s *MemoryStore) SetActive(id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	t.Active = active
	return nil
}
