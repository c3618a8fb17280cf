package savecodec

import (
	"encoding/json"
	"strconv"

	"topdown.ai/internal/sim/encoding"
	"topdown.ai/internal/sim/world/terrain/store"
)

// Encode serializes every chunk of s. Chunks, layers and cells are visited in
// a fixed order so the same world always yields the same palette.
func Encode(s *store.ChunkStore, version int) Document {
	size := s.ChunkSize()
	doc := Document{
		Version:   version,
		Palette:   Palette{""},
		ChunkSize: []int{size, size},
		Chunks:    []ChunkRecord{},
	}
	ids := map[string]int{"": 0}
	idOf := func(name string) int {
		if id, ok := ids[name]; ok {
			return id
		}
		id := len(doc.Palette)
		ids[name] = id
		doc.Palette = append(doc.Palette, name)
		return id
	}

	for _, k := range s.LoadedChunkKeys() {
		ch, ok := s.Chunk(k)
		if !ok {
			continue
		}
		rec := ChunkRecord{Pos: k, Layers: map[string]LayerRecord{}}
		for _, id := range ch.LayerIDs() {
			l, _ := ch.Layer(id)
			if l.TileCount() == 0 && l.TiledataLen() == 0 {
				continue
			}
			tiles := l.Tiles()
			grid := make([]int, len(tiles))
			for i, name := range tiles {
				grid[i] = idOf(name)
			}
			lr := LayerRecord{T: encoding.EncodeRLE(grid), TD: []TiledataEntry{}}
			for _, p := range l.TiledataPositions() {
				lr.TD = append(lr.TD, TiledataEntry{Index: p.Index(size), Data: l.Tiledata(p).Clone()})
			}
			rec.Layers[strconv.Itoa(int(id))] = lr
		}
		if len(rec.Layers) == 0 {
			continue
		}
		doc.Chunks = append(doc.Chunks, rec)
	}
	return doc
}

// Marshal renders a document as compact JSON.
func Marshal(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// MarshalIndent is Marshal for humans.
func MarshalIndent(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
