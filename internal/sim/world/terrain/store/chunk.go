package store

import (
	"sort"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/tiledata"
)

type Chunk struct {
	key    coords.ChunkKey
	size   int
	layers map[LayerID]*Layer

	// needsRender is consumed by the renderer, which caches one surface per chunk.
	needsRender bool
}

func newChunk(key coords.ChunkKey, size int) *Chunk {
	return &Chunk{
		key:         key,
		size:        size,
		layers:      map[LayerID]*Layer{},
		needsRender: true,
	}
}

func (c *Chunk) Key() coords.ChunkKey { return c.key }
func (c *Chunk) Size() int            { return c.size }

func (c *Chunk) NeedsRender() bool { return c.needsRender }
func (c *Chunk) MarkRendered()     { c.needsRender = false }

// WorldPos is the game position of the chunk's top-left corner.
func (c *Chunk) WorldPos(tileSize int) coords.Vec2 {
	return coords.ChunkOrigin(c.key, c.size, tileSize)
}

// Visible reports whether the chunk overlaps a game-space viewport.
func (c *Chunk) Visible(view coords.Rect, tileSize int) bool {
	return coords.ChunkRect(c.key, c.size, tileSize).Overlaps(view)
}

func (c *Chunk) Layer(id LayerID) (*Layer, bool) {
	l, ok := c.layers[id]
	return l, ok
}

// LayerIDs returns the present layers bottom to top.
func (c *Chunk) LayerIDs() []LayerID {
	ids := make([]LayerID, 0, len(c.layers))
	for id := range c.layers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Chunk) Empty() bool { return len(c.layers) == 0 }

func (c *Chunk) GetTile(p coords.LocalPos, id LayerID) string {
	l, ok := c.layers[id]
	if !ok {
		return ""
	}
	return l.Tile(p)
}

func (c *Chunk) GetTiledata(p coords.LocalPos, id LayerID) tiledata.Data {
	l, ok := c.layers[id]
	if !ok {
		return nil
	}
	return l.Tiledata(p)
}

// SetTile writes one cell and reports whether the chunk is now empty.
//
// The layer's counter is updated by comparing old and new occupancy. When it
// drops to zero the layer is deleted outright, along with any tiledata it
// still holds.
func (c *Chunk) SetTile(p coords.LocalPos, id LayerID, tile string, td tiledata.Data) (empty bool) {
	if !p.InBounds(c.size) || !id.Valid() {
		return c.Empty()
	}
	l, ok := c.layers[id]
	if !ok {
		if tile == "" {
			return c.Empty()
		}
		l = newLayer(id, c.size)
		c.layers[id] = l
	}

	i := p.Index(c.size)
	cur := l.tiles[i]
	switch {
	case cur == "" && tile != "":
		l.count++
	case cur != "" && tile == "":
		l.count--
	}
	if l.count <= 0 {
		delete(c.layers, id)
		c.needsRender = true
		return c.Empty()
	}

	l.tiles[i] = tile
	if len(td) > 0 {
		l.data[p] = td.Clone()
	} else {
		delete(l.data, p)
	}
	c.needsRender = true
	return false
}
