package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by a Store when no cart was saved under the key.
var ErrNotFound = errors.New("cart not found")

// Store is durable key-value storage for serialized carts.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

const payloadVersion = 1

type payload struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// Encode serializes the item sequence. The drawer flag is not part of the payload.
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(payload{Version: payloadVersion, Items: items})
}

func Decode(raw []byte) ([]Item, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if p.Version > payloadVersion {
		return nil, fmt.Errorf("decode cart: unsupported version %d", p.Version)
	}
	return p.Items, nil
}

// MemoryStore keeps payloads in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}
