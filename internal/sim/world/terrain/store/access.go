package store

import (
	"sort"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/tiledata"
)

// ChunkStore is the sparse chunk registry. A chunk is present iff it has at
// least one layer; absent chunks read as empty. Not safe for concurrent use.
type ChunkStore struct {
	size   int
	chunks map[coords.ChunkKey]*Chunk
}

func NewChunkStore(chunkSize int) *ChunkStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkStore{
		size:   chunkSize,
		chunks: map[coords.ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) ChunkSize() int { return s.size }
func (s *ChunkStore) Len() int       { return len(s.chunks) }

// LoadedChunkKeys returns every chunk key sorted by (CX, CY).
func (s *ChunkStore) LoadedChunkKeys() []coords.ChunkKey {
	keys := make([]coords.ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}

func (s *ChunkStore) Chunk(k coords.ChunkKey) (*Chunk, bool) {
	ch, ok := s.chunks[k]
	return ch, ok
}

func (s *ChunkStore) ChunkAt(tile coords.TilePos) (*Chunk, bool) {
	return s.Chunk(coords.ToChunk(tile, s.size))
}

func (s *ChunkStore) GetTileAt(tile coords.TilePos, id LayerID) string {
	ch, ok := s.ChunkAt(tile)
	if !ok {
		return ""
	}
	return ch.GetTile(coords.ToLocal(tile, s.size), id)
}

func (s *ChunkStore) GetTiledataAt(tile coords.TilePos, id LayerID) tiledata.Data {
	ch, ok := s.ChunkAt(tile)
	if !ok {
		return nil
	}
	return ch.GetTiledata(coords.ToLocal(tile, s.size), id)
}

// SetTileAt writes tile ("" erases) with optional metadata. Chunks are only
// created for non-empty tiles and are dropped once their last layer goes.
func (s *ChunkStore) SetTileAt(tile coords.TilePos, id LayerID, name string, td tiledata.Data) {
	if !id.Valid() {
		return
	}
	k := coords.ToChunk(tile, s.size)
	ch, ok := s.chunks[k]
	if !ok {
		if name == "" {
			return
		}
		ch = newChunk(k, s.size)
		s.chunks[k] = ch
	}
	if ch.SetTile(coords.ToLocal(tile, s.size), id, name, td) {
		delete(s.chunks, k)
	}
}
