package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/tiledata"
)

const DefaultChunkSize = 16

// LayerID is the ordinal of a tile plane; lower layers draw first.
type LayerID int

const (
	Floor LayerID = iota
	Decorations
	Objects
	Roof

	NumLayers // always last
)

// AllLayers lists the layers bottom to top.
var AllLayers = []LayerID{Floor, Decorations, Objects, Roof}

func (id LayerID) Valid() bool { return id >= 0 && id < NumLayers }

func (id LayerID) String() string {
	switch id {
	case Floor:
		return "FLOOR"
	case Decorations:
		return "DECORATIONS"
	case Objects:
		return "OBJECTS"
	case Roof:
		return "ROOF"
	}
	return "LAYER(" + strconv.Itoa(int(id)) + ")"
}

// ParseLayerID accepts a layer name (case-insensitive) or its ordinal.
func ParseLayerID(s string) (LayerID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, id := range AllLayers {
		if s == id.String() {
			return id, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !LayerID(n).Valid() {
		return 0, fmt.Errorf("unknown layer %q", s)
	}
	return LayerID(n), nil
}

// Layer is one plane of a chunk: a size*size grid of tile names ("" = empty)
// plus sparse per-tile metadata.
type Layer struct {
	id    LayerID
	size  int
	tiles []string // row-major, y*size + x
	count int
	data  map[coords.LocalPos]tiledata.Data
}

func newLayer(id LayerID, size int) *Layer {
	return &Layer{
		id:    id,
		size:  size,
		tiles: make([]string, size*size),
		data:  map[coords.LocalPos]tiledata.Data{},
	}
}

func (l *Layer) ID() LayerID { return l.id }

// TileCount is the number of non-empty cells.
func (l *Layer) TileCount() int { return l.count }

func (l *Layer) Tile(p coords.LocalPos) string {
	if !p.InBounds(l.size) {
		return ""
	}
	return l.tiles[p.Index(l.size)]
}

func (l *Layer) Tiledata(p coords.LocalPos) tiledata.Data {
	return l.data[p]
}

// Tiles returns a copy of the row-major grid.
func (l *Layer) Tiles() []string {
	return append([]string(nil), l.tiles...)
}

// TiledataPositions returns the positions holding metadata in row-major order.
func (l *Layer) TiledataPositions() []coords.LocalPos {
	out := make([]coords.LocalPos, 0, len(l.data))
	for p := range l.data {
		out = append(out, p)
	}
	sortLocal(out, l.size)
	return out
}

func (l *Layer) TiledataLen() int { return len(l.data) }

func sortLocal(ps []coords.LocalPos, size int) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Index(size) < ps[j].Index(size) })
}
