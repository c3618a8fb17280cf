package store

import (
	"fmt"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/tiledata"
)

// Builder assembles a detached chunk registry, e.g. while decoding a save.
// Nothing is visible to a live store until Replace.
type Builder struct {
	s *ChunkStore
}

func NewBuilder(chunkSize int) *Builder {
	return &Builder{s: NewChunkStore(chunkSize)}
}

// PutLayer installs a decoded layer. tiles must hold size*size row-major
// names; the tile counter is recomputed from it. Layers with no tiles and no
// metadata are dropped; so are chunks left without layers.
func (b *Builder) PutLayer(k coords.ChunkKey, id LayerID, tiles []string, data map[coords.LocalPos]tiledata.Data) error {
	size := b.s.size
	if !id.Valid() {
		return fmt.Errorf("chunk %v: unknown layer %d", k, int(id))
	}
	if len(tiles) != size*size {
		return fmt.Errorf("chunk %v layer %d: got %d tiles, want %d", k, int(id), len(tiles), size*size)
	}
	l := newLayer(id, size)
	copy(l.tiles, tiles)
	for _, t := range l.tiles {
		if t != "" {
			l.count++
		}
	}
	for p, td := range data {
		if !p.InBounds(size) || len(td) == 0 {
			continue
		}
		l.data[p] = td.Clone()
	}

	ch, ok := b.s.chunks[k]
	if l.count == 0 && len(l.data) == 0 {
		if ok {
			delete(ch.layers, id)
			if ch.Empty() {
				delete(b.s.chunks, k)
			}
		}
		return nil
	}
	if !ok {
		ch = newChunk(k, size)
		b.s.chunks[k] = ch
	}
	ch.layers[id] = l
	return nil
}

// DropChunk discards everything built for k so far.
func (b *Builder) DropChunk(k coords.ChunkKey) { delete(b.s.chunks, k) }

// Len is the number of chunks built so far.
func (b *Builder) Len() int { return len(b.s.chunks) }

// Replace swaps the live registry for the built one in a single step and
// flags every chunk for re-render. The builder must not be reused.
func (s *ChunkStore) Replace(b *Builder) error {
	if b.s.size != s.size {
		return fmt.Errorf("chunk size mismatch: got %d want %d", b.s.size, s.size)
	}
	for _, ch := range b.s.chunks {
		ch.needsRender = true
	}
	s.chunks = b.s.chunks
	b.s = NewChunkStore(s.size)
	return nil
}
