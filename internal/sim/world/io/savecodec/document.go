// Package savecodec converts a chunk store to and from the versioned save
// document: a tile-name palette plus per-layer run-length encoded grids.
//
// Wire shape:
//
//	{
//	  "version": 2,
//	  "palette": [null, "grass", ...],
//	  "chunkSize": [16, 16],
//	  "chunks": [
//	    [[cx, cy], {"layers": {"0": {"t": [run, id, ...], "td": [[idx, [[key, value], ...]], ...]}}}]
//	  ]
//	}
//
// A chunk record without "layers" is the legacy single-layer form and is read
// as the FLOOR layer.
package savecodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/tiledata"
)

const CurrentVersion = 2

// FileExt is the extension used for save files.
const FileExt = ".topdownworld"

// Document is the persisted form of a world. On load a nil Palette, ChunkSize
// or Chunks means the field was absent (or null).
type Document struct {
	Version   int           `json:"version"`
	Palette   Palette       `json:"palette"`
	ChunkSize []int         `json:"chunkSize"`
	Chunks    []ChunkRecord `json:"chunks"`
}

// Palette maps small ids to tile names. "" is the null (empty) sentinel.
type Palette []string

func (p Palette) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(p))
	for i := range p {
		if p[i] != "" {
			name := p[i]
			out[i] = &name
		}
	}
	return json.Marshal(out)
}

func (p *Palette) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*p = nil
		return nil
	}
	var raw []*string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	out := make(Palette, len(raw))
	for i, name := range raw {
		if name != nil {
			out[i] = *name
		}
	}
	*p = out
	return nil
}

// Name resolves a palette id; unknown ids read as empty.
func (p Palette) Name(id int) string {
	if id < 0 || id >= len(p) {
		return ""
	}
	return p[id]
}

type ChunkRecord struct {
	Pos coords.ChunkKey
	// Layers is keyed by the layer ordinal in decimal.
	Layers map[string]LayerRecord
	// Legacy holds the whole record when it had no "layers" wrapper.
	Legacy *LayerRecord

	malformed bool
}

func (r ChunkRecord) MarshalJSON() ([]byte, error) {
	layers := r.Layers
	if layers == nil {
		layers = map[string]LayerRecord{}
	}
	return json.Marshal([]any{
		[2]int{r.Pos.CX, r.Pos.CY},
		struct {
			Layers map[string]LayerRecord `json:"layers"`
		}{layers},
	})
}

// UnmarshalJSON tolerates malformed tuples by flagging them; the decoder
// skips those records.
func (r *ChunkRecord) UnmarshalJSON(b []byte) error {
	*r = ChunkRecord{}
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil || len(parts) < 2 {
		r.malformed = true
		return nil
	}
	var pos []int
	if err := json.Unmarshal(parts[0], &pos); err != nil || len(pos) != 2 {
		r.malformed = true
		return nil
	}
	r.Pos = coords.ChunkKey{CX: pos[0], CY: pos[1]}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(parts[1], &fields); err != nil {
		return fmt.Errorf("chunk %v: %w", r.Pos, err)
	}
	if raw, ok := fields["layers"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.Layers); err != nil {
			return fmt.Errorf("chunk %v layers: %w", r.Pos, err)
		}
		if r.Layers == nil {
			r.Layers = map[string]LayerRecord{}
		}
		return nil
	}
	var legacy LayerRecord
	if fields != nil {
		if err := json.Unmarshal(parts[1], &legacy); err != nil {
			return fmt.Errorf("chunk %v: %w", r.Pos, err)
		}
	}
	r.Legacy = &legacy
	return nil
}

type LayerRecord struct {
	T  []int           `json:"t"`
	TD []TiledataEntry `json:"td"`
}

// TiledataEntry is one tile's metadata; Index is y*size + x.
type TiledataEntry struct {
	Index int
	Data  tiledata.Data

	malformed bool
}

func (e TiledataEntry) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, len(e.Data))
	for _, k := range e.Data.Keys() {
		pairs = append(pairs, [2]any{k, e.Data[k]})
	}
	return json.Marshal([]any{e.Index, pairs})
}

func (e *TiledataEntry) UnmarshalJSON(b []byte) error {
	*e = TiledataEntry{}
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil || len(parts) < 2 {
		e.malformed = true
		return nil
	}
	if err := json.Unmarshal(parts[0], &e.Index); err != nil {
		e.malformed = true
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(parts[1], &entries); err != nil {
		// Non-array entries decode to an empty record, which is then skipped.
		return nil
	}
	for _, raw := range entries {
		var kv []json.RawMessage
		if err := json.Unmarshal(raw, &kv); err != nil || len(kv) < 2 {
			continue
		}
		var key string
		if err := json.Unmarshal(kv[0], &key); err != nil {
			continue
		}
		var v tiledata.Value
		if err := json.Unmarshal(kv[1], &v); err != nil {
			return fmt.Errorf("tiledata %d key %q: %w", e.Index, key, err)
		}
		if e.Data == nil {
			e.Data = tiledata.Data{}
		}
		e.Data[key] = v
	}
	return nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
