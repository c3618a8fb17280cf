package world

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"topdown.ai/internal/persistence/indexdb"
	"topdown.ai/internal/sim/tuning"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/io/savecodec"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/internal/sim/world/tiledata"
)

func tp(x, y int) coords.TilePos { return coords.TilePos{X: x, Y: y} }

func newTestWorld(t *testing.T) (*World, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(Config{ID: "test"}, nil, log.New(&buf, "[world] ", 0)), &buf
}

type memJournal struct{ entries []editor.EditEntry }

func (m *memJournal) WriteEdit(e editor.EditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memSlots map[string][]byte

func (m memSlots) PutSlot(_ context.Context, key string, raw []byte) error {
	m[key] = raw
	return nil
}

func (m memSlots) GetSlot(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := m[key]
	return raw, ok, nil
}

type memHistory struct{ rows []indexdb.SaveRecord }

func (m *memHistory) RecordSave(r indexdb.SaveRecord) { m.rows = append(m.rows, r) }

func TestPaint_JournalsStrokes(t *testing.T) {
	w, _ := newTestWorld(t)
	j := &memJournal{}
	w.AddEditSink(j)

	s := w.Paint(editor.Tool{Mode: editor.ModePlace, Tile: "grass"}, tp(0, 0), tp(3, 0))
	if s.Changed != 4 {
		t.Fatalf("Changed=%d want 4", s.Changed)
	}
	w.Paint(editor.Tool{Mode: editor.ModePlace}, tp(0, 0), tp(3, 0))
	if len(j.entries) != 1 || j.entries[0].Tile != "grass" || j.entries[0].World != "test" {
		t.Fatalf("journal=%+v", j.entries)
	}
}

func TestPaintGame_FloorsNegativePositions(t *testing.T) {
	w, _ := newTestWorld(t)
	w.PaintGame(editor.Tool{Mode: editor.ModePlace, Tile: "stone_block"}, coords.Vec2{X: -0.5, Y: -17}, coords.Vec2{X: -0.5, Y: -17})
	if got := w.GetTileAt(tp(-1, -2), store.Objects); got != "stone_block" {
		t.Fatalf("tile at (-1,-2)=%q", got)
	}
}

func TestSaveFileLoadFile_RoundTrip(t *testing.T) {
	src, _ := newTestWorld(t)
	hist := &memHistory{}
	src.SetSaveRecorder(hist)
	src.SetTileAt(tp(0, 0), store.Floor, "grass", nil)
	src.SetTileAt(tp(-40, 3), store.Objects, "dirt_block", tiledata.Data{"hp": tiledata.Int(4)})

	path := filepath.Join(t.TempDir(), "w"+savecodec.FileExt+".zst")
	if err := src.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if len(hist.rows) != 1 || hist.rows[0].Target != path || hist.rows[0].Chunks != 2 {
		t.Fatalf("history=%+v", hist.rows)
	}

	dst, logs := newTestWorld(t)
	dst.SetTileAt(tp(99, 99), store.Roof, "sand_block", nil)
	if err := dst.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if dst.GetTileAt(tp(99, 99), store.Roof) != "" {
		t.Fatalf("load should replace the whole world")
	}
	if got := dst.GetTileAt(tp(-40, 3), store.Objects); got != "dirt_block" {
		t.Fatalf("tile=%q", got)
	}
	if v, _ := dst.GetTiledataAt(tp(-40, 3), store.Objects)["hp"].AsInt(); v != 4 {
		t.Fatalf("tiledata hp=%d", v)
	}
	if !strings.Contains(logs.String(), "loaded savedata (2 chunk(s), version:2)") {
		t.Fatalf("log=%q", logs.String())
	}
}

func TestLoad_FailureLeavesWorldUntouched(t *testing.T) {
	w, logs := newTestWorld(t)
	w.SetTileAt(tp(1, 1), store.Floor, "water", nil)

	bad := `{"version":2,"palette":[null,"grass"],"chunkSize":[16,16],
		"chunks":[[[0,0],{"layers":{"0":{"t":[256,1]}}}],[[1,0],{"layers":{"0":{"t":[5,1]}}}]]}`
	err := w.LoadJSON([]byte(bad))
	var lerr *savecodec.RLELengthError
	if !errors.As(err, &lerr) {
		t.Fatalf("err=%v want RLELengthError", err)
	}
	if w.GetTileAt(tp(1, 1), store.Floor) != "water" || w.Store().Len() != 1 {
		t.Fatalf("failed load modified the world")
	}
	if !strings.Contains(logs.String(), "WARN") {
		t.Fatalf("failure not logged: %q", logs.String())
	}

	if err := w.LoadJSON([]byte("not json")); !errors.Is(err, savecodec.ErrInvalidJSON) {
		t.Fatalf("err=%v want ErrInvalidJSON", err)
	}
	if err := w.LoadJSON([]byte(`{"version":2,"chunkSize":[16,16],"chunks":[]}`)); !errors.Is(err, savecodec.ErrMalformed) {
		t.Fatalf("err=%v want ErrMalformed", err)
	}
	if w.GetTileAt(tp(1, 1), store.Floor) != "water" {
		t.Fatalf("failed load modified the world")
	}
}

func TestAdvance_AutosavesAndRestores(t *testing.T) {
	ctx := context.Background()
	slots := memSlots{}
	w, _ := newTestWorld(t)
	w.EnableAutosave(slots)
	w.SetTileAt(tp(2, 2), store.Floor, "sand", nil)

	if err := w.Advance(ctx, 0.6); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("autosave before the interval")
	}
	if err := w.Advance(ctx, 0.6); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, ok := slots["test.autosave"]; !ok {
		t.Fatalf("autosave slot missing: %v", slots)
	}

	w.SetTileAt(tp(3, 3), store.Floor, "grass", nil)
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	fresh, _ := newTestWorld(t)
	ok, err := fresh.Restore(ctx, slots)
	if err != nil || !ok {
		t.Fatalf("Restore=%v,%v", ok, err)
	}
	if fresh.GetTileAt(tp(3, 3), store.Floor) != "grass" || fresh.GetTileAt(tp(2, 2), store.Floor) != "sand" {
		t.Fatalf("restored world missing tiles")
	}
}

func TestInspect_TopMostFirst(t *testing.T) {
	w, _ := newTestWorld(t)
	w.SetTileAt(tp(0, 0), store.Floor, "grass", nil)
	w.SetTileAt(tp(0, 0), store.Objects, "stone_block", tiledata.Data{"open": tiledata.Bool(true)})

	infos := w.Inspect(tp(0, 0))
	if len(infos) != 2 || infos[0].Layer != store.Objects || infos[1].Layer != store.Floor {
		t.Fatalf("infos=%+v", infos)
	}
	if len(infos[0].Tiledata) != 1 {
		t.Fatalf("tiledata missing from inspection")
	}
	id, tile, ok := w.TopTile(tp(0, 0))
	if !ok || id != store.Objects || tile != "stone_block" {
		t.Fatalf("TopTile=%v,%q,%v", id, tile, ok)
	}
	if _, _, ok := w.TopTile(tp(50, 50)); ok {
		t.Fatalf("empty tile reported a top tile")
	}
}

func TestVisibleChunks(t *testing.T) {
	w, _ := newTestWorld(t)
	w.SetTileAt(tp(0, 0), store.Floor, "grass", nil)
	w.SetTileAt(tp(100, 0), store.Floor, "grass", nil)
	got := w.VisibleChunks(coords.Rect{Max: coords.Vec2{X: 320, Y: 240}})
	if len(got) != 1 || got[0].Key() != (coords.ChunkKey{}) {
		t.Fatalf("visible=%v", got)
	}
}

func TestConfigFromTuning(t *testing.T) {
	tu := tuning.Defaults()
	tu.WorldID = "island"
	tu.EraseLayers = []string{"FLOOR"}
	cfg, err := ConfigFromTuning(tu)
	if err != nil {
		t.Fatalf("ConfigFromTuning: %v", err)
	}
	if cfg.ID != "island" || len(cfg.Erase.EraseLayers) != 1 || cfg.Erase.EraseLayers[0] != store.Floor {
		t.Fatalf("cfg=%+v", cfg)
	}
	tu.ChunkSize = 0
	if _, err := ConfigFromTuning(tu); err == nil {
		t.Fatalf("expected validation error")
	}
}
