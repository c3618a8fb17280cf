package savecodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"topdown.ai/internal/sim/encoding"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/internal/sim/world/tiledata"
)

// Unmarshal parses raw save bytes. Text that is not JSON yields
// ErrInvalidJSON; JSON of the wrong shape yields ErrMalformed.
func Unmarshal(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc, nil
}

type decodedLayer struct {
	id    store.LayerID
	tiles []string
	data  map[coords.LocalPos]tiledata.Data
}

// Decode rebuilds the chunk registry described by doc into a detached
// builder. Nothing is returned on error, so callers can keep their live store
// untouched.
func Decode(doc Document, chunkSize int) (*store.Builder, error) {
	switch {
	case doc.Palette == nil:
		return nil, missingField("palette")
	case doc.ChunkSize == nil:
		return nil, missingField("chunkSize")
	case doc.Chunks == nil:
		return nil, missingField("chunks")
	}
	if len(doc.ChunkSize) != 2 || doc.ChunkSize[0] != chunkSize || doc.ChunkSize[1] != chunkSize {
		return nil, fmt.Errorf("%w: chunkSize %v, want [%d,%d]", ErrMalformed, doc.ChunkSize, chunkSize, chunkSize)
	}

	b := store.NewBuilder(chunkSize)
	for _, rec := range doc.Chunks {
		if rec.malformed {
			continue
		}
		layers, err := decodeChunk(doc.Palette, rec, chunkSize)
		if err != nil {
			return nil, err
		}
		if len(layers) == 0 {
			continue
		}
		// A later record for the same chunk replaces the earlier one.
		b.DropChunk(rec.Pos)
		for _, l := range layers {
			if err := b.PutLayer(rec.Pos, l.id, l.tiles, l.data); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
	}
	return b, nil
}

func decodeChunk(palette Palette, rec ChunkRecord, size int) ([]decodedLayer, error) {
	if rec.Layers == nil {
		if rec.Legacy == nil {
			return nil, nil
		}
		l, ok, err := decodeLayer(palette, rec.Pos, store.Floor, *rec.Legacy, size)
		if err != nil || !ok {
			return nil, err
		}
		return []decodedLayer{l}, nil
	}

	keys := make([]string, 0, len(rec.Layers))
	for k := range rec.Layers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]decodedLayer, 0, len(keys))
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil || !store.LayerID(n).Valid() {
			return nil, fmt.Errorf("%w: chunk %s has unknown layer key %q", ErrMalformed, rec.Pos, k)
		}
		l, ok, err := decodeLayer(palette, rec.Pos, store.LayerID(n), rec.Layers[k], size)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func decodeLayer(palette Palette, k coords.ChunkKey, id store.LayerID, lr LayerRecord, size int) (decodedLayer, bool, error) {
	if len(lr.T) == 0 {
		return decodedLayer{}, false, nil
	}
	want := size * size
	got, err := encoding.DecodedLen(lr.T)
	if err != nil {
		return decodedLayer{}, false, fmt.Errorf("%w: chunk %s layer %d: %v", ErrMalformed, k, int(id), err)
	}
	if got != want {
		return decodedLayer{}, false, &RLELengthError{Chunk: k, Layer: strconv.Itoa(int(id)), Got: got, Want: want}
	}
	ids, err := encoding.DecodeRLE(lr.T)
	if err != nil {
		return decodedLayer{}, false, fmt.Errorf("%w: chunk %s layer %d: %v", ErrMalformed, k, int(id), err)
	}

	l := decodedLayer{id: id, tiles: make([]string, want), data: map[coords.LocalPos]tiledata.Data{}}
	for i, pid := range ids {
		l.tiles[i] = palette.Name(pid)
	}
	for _, e := range lr.TD {
		if e.malformed || len(e.Data) == 0 || e.Index < 0 || e.Index >= want {
			continue
		}
		l.data[coords.LocalFromIndex(e.Index, size)] = e.Data
	}
	return l, true, nil
}
