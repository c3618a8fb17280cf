// Package editor applies brush strokes to a layered tile grid.
package editor

import (
	"fmt"

	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/logic/raster"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/internal/sim/world/tiledata"
)

type Mode int

const (
	ModePlace Mode = iota
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModePlace:
		return "PLACE"
	case ModeErase:
		return "ERASE"
	}
	return fmt.Sprintf("MODE(%d)", int(m))
}

// Tool is the active brush. Tile is ignored when erasing.
type Tool struct {
	Mode Mode
	Tile string
}

// Policy decides which layers a stroke writes to.
type Policy struct {
	EraseLayers []store.LayerID
}

// DefaultPolicy erases FLOOR, OBJECTS and ROOF; DECORATIONS survive an erase.
func DefaultPolicy() Policy {
	return Policy{EraseLayers: []store.LayerID{store.Floor, store.Objects, store.Roof}}
}

// PolicyFromNames builds a policy from layer names or ordinals.
func PolicyFromNames(names []string) (Policy, error) {
	p := Policy{EraseLayers: make([]store.LayerID, 0, len(names))}
	for _, n := range names {
		id, err := store.ParseLayerID(n)
		if err != nil {
			return Policy{}, fmt.Errorf("erase layers: %w", err)
		}
		p.EraseLayers = append(p.EraseLayers, id)
	}
	return p, nil
}

// Grid is the tile surface a painter writes to.
type Grid interface {
	GetTileAt(pos coords.TilePos, id store.LayerID) string
	GetTiledataAt(pos coords.TilePos, id store.LayerID) tiledata.Data
	SetTileAt(pos coords.TilePos, id store.LayerID, tile string, td tiledata.Data)
}

// Classifier tells floor tiles apart from everything else. Unknown names are
// not floors.
type Classifier interface {
	IsFloor(name string) bool
}

type Painter struct {
	Grid   Grid
	Tiles  Classifier
	Policy Policy
}

// Stroke summarizes one brush application.
type Stroke struct {
	Tiles   []coords.TilePos
	Changed int
}

// PlaceLayer is the layer a placed tile lands on.
func (p Painter) PlaceLayer(tile string) store.LayerID {
	if p.Tiles != nil && p.Tiles.IsFloor(tile) {
		return store.Floor
	}
	return store.Objects
}

// Stroke paints every tile on the segment prev..cur inclusive. Painting the
// same stroke twice changes nothing the second time.
func (p Painter) Stroke(tool Tool, prev, cur coords.TilePos) Stroke {
	if tool.Mode == ModePlace && tool.Tile == "" {
		return Stroke{}
	}
	out := Stroke{Tiles: raster.IntersectingTiles(prev, cur)}
	for _, pos := range out.Tiles {
		switch tool.Mode {
		case ModeErase:
			for _, id := range p.Policy.EraseLayers {
				if p.write(pos, id, "") {
					out.Changed++
				}
			}
		case ModePlace:
			if p.write(pos, p.PlaceLayer(tool.Tile), tool.Tile) {
				out.Changed++
			}
		}
	}
	return out
}

func (p Painter) write(pos coords.TilePos, id store.LayerID, tile string) bool {
	if p.Grid.GetTileAt(pos, id) == tile && len(p.Grid.GetTiledataAt(pos, id)) == 0 {
		return false
	}
	p.Grid.SetTileAt(pos, id, tile, nil)
	return true
}

// EditEntry is the journal record of one stroke.
type EditEntry struct {
	Time    float64        `json:"time"`
	World   string         `json:"world"`
	Mode    string         `json:"mode"`
	Tile    string         `json:"tile,omitempty"`
	From    coords.TilePos `json:"from"`
	To      coords.TilePos `json:"to"`
	Tiles   int            `json:"tiles"`
	Changed int            `json:"changed"`
}

func NewEditEntry(world string, now float64, tool Tool, prev, cur coords.TilePos, s Stroke) EditEntry {
	e := EditEntry{
		Time:    now,
		World:   world,
		Mode:    tool.Mode.String(),
		From:    prev,
		To:      cur,
		Tiles:   len(s.Tiles),
		Changed: s.Changed,
	}
	if tool.Mode == ModePlace {
		e.Tile = tool.Tile
	}
	return e
}
