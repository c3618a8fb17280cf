package world

import (
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/internal/sim/world/tiledata"
)

// LayerInfo is what one layer holds at a tile.
type LayerInfo struct {
	Layer    store.LayerID
	Tile     string
	Tiledata tiledata.Data
}

// inspectOrder lists layers top-most first.
var inspectOrder = []store.LayerID{store.Roof, store.Objects, store.Decorations, store.Floor}

// Inspect reports the non-empty layers at pos, top-most first, the way the
// hover overlay lists them.
func (w *World) Inspect(pos coords.TilePos) []LayerInfo {
	var out []LayerInfo
	for _, id := range inspectOrder {
		tile := w.chunks.GetTileAt(pos, id)
		td := w.chunks.GetTiledataAt(pos, id)
		if tile == "" && len(td) == 0 {
			continue
		}
		out = append(out, LayerInfo{Layer: id, Tile: tile, Tiledata: td.Clone()})
	}
	return out
}

// TopTile returns the visible tile at pos and the layer it sits on.
func (w *World) TopTile(pos coords.TilePos) (store.LayerID, string, bool) {
	for _, id := range inspectOrder {
		if tile := w.chunks.GetTileAt(pos, id); tile != "" {
			return id, tile, true
		}
	}
	return 0, "", false
}

// VisibleChunks lists the chunks overlapping a view rectangle in game units.
func (w *World) VisibleChunks(view coords.Rect) []*store.Chunk {
	var out []*store.Chunk
	for _, k := range w.chunks.LoadedChunkKeys() {
		ch, ok := w.chunks.Chunk(k)
		if ok && ch.Visible(view, w.cfg.TileSize) {
			out = append(out, ch)
		}
	}
	return out
}
