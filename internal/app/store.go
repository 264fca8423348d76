package app

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage keys. Each key holds one independent JSON-serialized value, the way
// the mobile shell keeps them in device storage.
const (
	KeyUser     = "mathflix:user"
	KeySessions = "mathflix:sessions"
	KeyQuizzes  = "mathflix:quizzes"
)

// KeyValueStore abstracts how app state is persisted (in-memory, file, Redis,
// Postgres). Get reports false when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

func loadValue[T any](ctx context.Context, store KeyValueStore, key string, out *T) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func saveValue(ctx context.Context, store KeyValueStore, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
