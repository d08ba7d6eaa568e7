package reg

import (
	"context"
	"errors"
	"testing"

	"github.com/iamwavecut/cmdbot/internal/db"
)

type memStore struct {
	data   map[int64]db.ChatSettings
	gets   int
	setErr error
}

func (m *memStore) GetSettings(_ context.Context, chatID int64) (*db.ChatSettings, error) {
	m.gets++
	if cs, ok := m.data[chatID]; ok {
		return &cs, nil
	}
	return db.DefaultSettings(chatID), nil
}

func (m *memStore) SetSettings(_ context.Context, cs *db.ChatSettings) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[cs.ChatID] = *cs
	return nil
}

func TestSettingsCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memStore{data: map[int64]db.ChatSettings{}}
	settings := NewSettings(store)

	if lang := settings.Language(ctx, 1); lang != db.DefaultLanguage {
		t.Fatalf("unexpected default language: %s", lang)
	}
	settings.Language(ctx, 1)
	if store.gets != 1 {
		t.Fatalf("expected one store read, got %d", store.gets)
	}

	if err := settings.Set(ctx, &db.ChatSettings{ChatID: 1, Language: "en_US"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if lang := settings.Language(ctx, 1); lang != "en_US" || store.gets != 1 {
		t.Fatalf("unexpected cached language: %s (%d reads)", lang, store.gets)
	}

	cs, _ := settings.Get(ctx, 1)
	cs.Language = "mutated"
	if lang := settings.Language(ctx, 1); lang != "en_US" {
		t.Fatalf("cache leaked a mutable pointer: %s", lang)
	}

	store.setErr = errors.New("disk full")
	if err := settings.Set(ctx, &db.ChatSettings{ChatID: 1, Language: "zh_CN"}); err == nil {
		t.Fatalf("expected set error")
	}
	if settings.Language(ctx, 1) != "en_US" || store.gets != 2 {
		t.Fatalf("failed write should invalidate the cache entry")
	}
}
