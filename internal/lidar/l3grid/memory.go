package l3grid

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory tile collection. It implements both Accessor
// and Source and is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	tiles map[string]*Tile
}

// NewMemoryStore creates a store pre-populated with tiles.
func NewMemoryStore(tiles ...*Tile) *MemoryStore {
	s := &MemoryStore{tiles: make(map[string]*Tile, len(tiles))}
	for _, t := range tiles {
		s.tiles[t.Code] = t
	}
	return s
}

// Put adds or replaces a tile.
func (s *MemoryStore) Put(t *Tile) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[t.Code] = t
	return nil
}

// Tile implements Accessor.
func (s *MemoryStore) Tile(code string) (*Tile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiles[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTileNotFound, code)
	}
	return t, nil
}

// LoadTile implements Source.
func (s *MemoryStore) LoadTile(ctx context.Context, code string) (*Tile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Tile(code)
}

// Codes returns the stored tile codes in sorted order.
func (s *MemoryStore) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.tiles))
	for c := range s.tiles {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

var (
	_ Accessor = (*MemoryStore)(nil)
	_ Source   = (*MemoryStore)(nil)
)
