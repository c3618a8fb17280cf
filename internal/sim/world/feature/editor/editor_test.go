package editor

import (
	"testing"

	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
)

func tp(x, y int) coords.TilePos { return coords.TilePos{X: x, Y: y} }

func newPainter() (Painter, *store.ChunkStore) {
	s := store.NewChunkStore(16)
	return Painter{Grid: s, Tiles: catalogs.Default(), Policy: DefaultPolicy()}, s
}

func TestStroke_PlaceRoutesByFloorClass(t *testing.T) {
	p, s := newPainter()
	p.Stroke(Tool{Mode: ModePlace, Tile: "grass"}, tp(0, 0), tp(0, 0))
	p.Stroke(Tool{Mode: ModePlace, Tile: "stone_block"}, tp(1, 0), tp(1, 0))
	p.Stroke(Tool{Mode: ModePlace, Tile: "mystery"}, tp(2, 0), tp(2, 0))

	if got := s.GetTileAt(tp(0, 0), store.Floor); got != "grass" {
		t.Fatalf("floor tile on FLOOR=%q", got)
	}
	if got := s.GetTileAt(tp(1, 0), store.Objects); got != "stone_block" {
		t.Fatalf("block on OBJECTS=%q", got)
	}
	if got := s.GetTileAt(tp(2, 0), store.Objects); got != "mystery" {
		t.Fatalf("unregistered tile should go to OBJECTS, got %q", got)
	}
}

func TestStroke_FillsWholeSegment(t *testing.T) {
	p, s := newPainter()
	st := p.Stroke(Tool{Mode: ModePlace, Tile: "sand"}, tp(0, 0), tp(5, 3))
	if len(st.Tiles) != 6 || st.Changed != 6 {
		t.Fatalf("stroke=%+v want 6 tiles, 6 changed", st)
	}
	for _, pos := range st.Tiles {
		if s.GetTileAt(pos, store.Floor) != "sand" {
			t.Fatalf("gap at %v", pos)
		}
	}
	again := p.Stroke(Tool{Mode: ModePlace, Tile: "sand"}, tp(0, 0), tp(5, 3))
	if again.Changed != 0 {
		t.Fatalf("repeat stroke changed %d cells", again.Changed)
	}
}

func TestStroke_EraseKeepsDecorations(t *testing.T) {
	p, s := newPainter()
	for _, id := range store.AllLayers {
		s.SetTileAt(tp(3, 3), id, "x", nil)
	}
	st := p.Stroke(Tool{Mode: ModeErase}, tp(3, 3), tp(3, 3))
	if st.Changed != 3 {
		t.Fatalf("Changed=%d want 3", st.Changed)
	}
	for _, id := range []store.LayerID{store.Floor, store.Objects, store.Roof} {
		if got := s.GetTileAt(tp(3, 3), id); got != "" {
			t.Fatalf("layer %v=%q after erase", id, got)
		}
	}
	if got := s.GetTileAt(tp(3, 3), store.Decorations); got != "x" {
		t.Fatalf("DECORATIONS erased: %q", got)
	}

	p.Policy = Policy{EraseLayers: store.AllLayers}
	p.Stroke(Tool{Mode: ModeErase}, tp(3, 3), tp(3, 3))
	if s.Len() != 0 {
		t.Fatalf("full erase should drop the chunk")
	}
}

func TestStroke_PlaceWithoutTileIsNoop(t *testing.T) {
	p, s := newPainter()
	if st := p.Stroke(Tool{Mode: ModePlace}, tp(0, 0), tp(4, 4)); len(st.Tiles) != 0 || st.Changed != 0 {
		t.Fatalf("stroke=%+v", st)
	}
	if s.Len() != 0 {
		t.Fatalf("empty brush wrote tiles")
	}
}

func TestPolicyFromNames(t *testing.T) {
	p, err := PolicyFromNames([]string{"floor", "ROOF"})
	if err != nil {
		t.Fatalf("PolicyFromNames: %v", err)
	}
	if len(p.EraseLayers) != 2 || p.EraseLayers[0] != store.Floor || p.EraseLayers[1] != store.Roof {
		t.Fatalf("policy=%v", p.EraseLayers)
	}
	if _, err := PolicyFromNames([]string{"basement"}); err == nil {
		t.Fatalf("expected error for unknown layer")
	}
}

func TestNewEditEntry(t *testing.T) {
	e := NewEditEntry("w", 2.5, Tool{Mode: ModeErase, Tile: "grass"}, tp(0, 0), tp(2, 0), Stroke{Tiles: make([]coords.TilePos, 3), Changed: 1})
	if e.Mode != "ERASE" || e.Tile != "" || e.Tiles != 3 || e.Changed != 1 || e.World != "w" {
		t.Fatalf("entry=%+v", e)
	}
}
