package reg

import (
	"context"
	"sync"

	"github.com/iamwavecut/cmdbot/internal/db"
)

// SettingsStore is the persistence behind the cache.
type SettingsStore interface {
	GetSettings(ctx context.Context, chatID int64) (*db.ChatSettings, error)
	SetSettings(ctx context.Context, settings *db.ChatSettings) error
}

// Settings is a write-through cache of per chat settings.
type Settings struct {
	store SettingsStore
	mu    sync.RWMutex
	cache map[int64]*db.ChatSettings
}

func NewSettings(store SettingsStore) *Settings {
	return &Settings{
		store: store,
		cache: map[int64]*db.ChatSettings{},
	}
}

func (r *Settings) Get(ctx context.Context, chatID int64) (*db.ChatSettings, error) {
	r.mu.RLock()
	cs, ok := r.cache[chatID]
	r.mu.RUnlock()
	if ok {
		copied := *cs
		return &copied, nil
	}

	cs, err := r.store.GetSettings(ctx, chatID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[chatID] = cs
	r.mu.Unlock()
	copied := *cs
	return &copied, nil
}

// Language returns the chat language, or the default one when the store fails.
func (r *Settings) Language(ctx context.Context, chatID int64) string {
	cs, err := r.Get(ctx, chatID)
	if err != nil || cs.Language == "" {
		return db.DefaultLanguage
	}
	return cs.Language
}

func (r *Settings) Set(ctx context.Context, cs *db.ChatSettings) error {
	if err := r.store.SetSettings(ctx, cs); err != nil {
		r.Remove(cs.ChatID)
		return err
	}
	copied := *cs
	r.mu.Lock()
	r.cache[cs.ChatID] = &copied
	r.mu.Unlock()
	return nil
}

func (r *Settings) Remove(chatID int64) {
	r.mu.Lock()
	delete(r.cache, chatID)
	r.mu.Unlock()
}
