package store

import (
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
)

// Memory keeps entries in a fixed-size in-process cache. Nothing survives a
// restart, so every record is re-verified against its provider on the first
// cycle. Useful for oneshot runs and tests.
type Memory struct {
	cache *freecache.Cache
}

type memoryEntry struct {
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMemory sizes the backing cache in bytes. Sizes below the backend's
// floor of 512KiB are raised to it.
func NewMemory(size int) *Memory {
	if size < 512*1024 {
		size = 512 * 1024
	}
	return &Memory{cache: freecache.NewCache(size)}
}

func (m *Memory) Get(k Key) (Entry, bool, error) {
	raw, err := m.cache.Get([]byte(k.String()))
	if err != nil {
		if err == freecache.ErrNotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get %s: %w", k, err)
	}

	var e memoryEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode %s: %w", k, err)
	}
	return Entry{Address: e.Address, UpdatedAt: e.UpdatedAt}, true, nil
}

func (m *Memory) Commit(k Key, e Entry) error {
	raw, err := json.Marshal(memoryEntry{Address: e.Address, UpdatedAt: e.UpdatedAt})
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	if err := m.cache.Set([]byte(k.String()), raw, 0); err != nil {
		return fmt.Errorf("set %s: %w", k, err)
	}
	return nil
}

func (m *Memory) Remove(k Key) error {
	m.cache.Del([]byte(k.String()))
	return nil
}

func (m *Memory) Close() error {
	m.cache.Clear()
	return nil
}
