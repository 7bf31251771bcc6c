package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// lockstepStore задерживает каждое чтение тенанта, пока его не прочитают все
// ожидаемые запросы: так оба сохранения стартуют с одной и той же версией.
type lockstepStore struct {
	*database.MemoryStore
	readers sync.WaitGroup
}

func (s *lockstepStore) GetByPublicKey(ctx context.Context, key string) (*models.Tenant, error) {
	t, err := s.MemoryStore.GetByPublicKey(ctx, key)
	s.readers.Done()

	all := make(chan struct{})
	go func() {
		s.readers.Wait()
		close(all)
	}()
	select {
	case <-all:
	case <-time.After(2 * time.Second):
	}
	return t, err
}

func TestSaveSettingsConcurrentPatchesKeepBothFields(t *testing.T) {
	env := newTestEnv(t)

	store := &lockstepStore{MemoryStore: env.store}
	store.readers.Add(2)

	env.rewire(func(d *Deps) { d.Store = store })

	patches := []models.SettingsPatch{
		{CompanyName: models.String("Schepen Kring BV")},
		{PrimaryColor: models.String("#FF6600")},
	}

	var wg sync.WaitGroup
	codes := make([]int, len(patches))
	for i, p := range patches {
		wg.Add(1)
		go func(i int, p models.SettingsPatch) {
			defer wg.Done()
			codes[i] = env.do(http.MethodPost, "/api/v1/widget/settings", env.widgetAuth(), p).Code
		}(i, p)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: status = %d", i, code)
		}
	}

	stored, err := env.store.GetByID(context.Background(), env.tenant.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Config.Company.Name != "Schepen Kring BV" {
		t.Errorf("company name = %q, lost by a concurrent save", stored.Config.Company.Name)
	}
	if stored.Config.Theme.PrimaryColor != "#FF6600" {
		t.Errorf("primary color = %q, lost by a concurrent save", stored.Config.Theme.PrimaryColor)
	}
	if stored.Version != 3 {
		t.Errorf("version = %d, want 3", stored.Version)
	}
}

func TestSaveSettingsRespondsWithStoredConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// изменение, сделанное в обход этого запроса, должно попасть в ответ
	if _, _, err := env.store.UpdateConfig(ctx, env.tenant.ID, models.SettingsPatch{
		Title: models.String("Support"),
	}); err != nil {
		t.Fatal(err)
	}

	w := env.do(http.MethodPost, "/api/v1/widget/settings", env.widgetAuth(), models.SettingsPatch{
		PrimaryColor: models.String("#FF6600"),
	})
	expectStatus(t, w, http.StatusOK)

	var resp models.SettingsResponse
	decode(t, w, &resp)
	if resp.Version != 3 {
		t.Errorf("version = %d, want 3", resp.Version)
	}
	if resp.Settings.I18n.Title != "Support" || resp.Settings.Theme.PrimaryColor != "#FF6600" {
		t.Errorf("settings = %+v", resp.Settings)
	}
}
