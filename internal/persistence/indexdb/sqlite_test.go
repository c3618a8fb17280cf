package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/tuning"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/logic/coords"
)

func TestSQLiteIndex_Slots(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	if _, ok, err := idx.GetSlot(ctx, "world.autosave"); err != nil || ok {
		t.Fatalf("GetSlot on empty db=%v,%v", ok, err)
	}
	if err := idx.PutSlot(ctx, "world.autosave", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("PutSlot: %v", err)
	}
	if err := idx.PutSlot(ctx, "world.autosave", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("PutSlot: %v", err)
	}
	raw, ok, err := idx.GetSlot(ctx, "world.autosave")
	if err != nil || !ok || string(raw) != `{"a":2}` {
		t.Fatalf("GetSlot=%q,%v,%v", raw, ok, err)
	}
	infos, err := idx.SlotInfos(ctx)
	if err != nil || len(infos) != 1 {
		t.Fatalf("SlotInfos=%v,%v", infos, err)
	}
	if infos[0].Digest != Digest([]byte(`{"a":2}`)) || infos[0].Bytes != 7 {
		t.Fatalf("slot info=%+v", infos[0])
	}
	if err := idx.DeleteSlot(ctx, "world.autosave"); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if keys, _ := idx.ListSlots(ctx); len(keys) != 0 {
		t.Fatalf("ListSlots after delete=%v", keys)
	}
}

func TestSQLiteIndex_HistoryAndEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.RecordSave(SaveRecord{WorldID: "w", Target: "w.autosave", Digest: "d1", Version: 2, Chunks: 3, Bytes: 10})
	idx.RecordSave(SaveRecord{WorldID: "w", Target: "/tmp/x.topdownworld", Digest: "d2", Version: 2, Chunks: 4, Bytes: 12})
	if err := idx.WriteEdit(editor.EditEntry{World: "w", Mode: "PLACE", Tile: "grass", To: coords.TilePos{X: 5, Y: -2}, Tiles: 1, Changed: 1}); err != nil {
		t.Fatalf("WriteEdit: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	hist, err := idx.SaveHistory(context.Background(), "w", 10)
	if err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Digest != "d2" || hist[1].Chunks != 3 {
		t.Fatalf("history=%+v", hist)
	}
	if st := idx.Stats(); st.DropSaveTotal != 0 || st.DropEditTotal != 0 {
		t.Fatalf("unexpected drops: %+v", st)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var (
		tile string
		x, y int
	)
	if err := db.QueryRow(`SELECT tile,to_x,to_y FROM edits`).Scan(&tile, &x, &y); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if tile != "grass" || x != 5 || y != -2 {
		t.Fatalf("edit row=%q,%d,%d", tile, x, y)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqSave}

	s.RecordSave(SaveRecord{WorldID: "w"})
	_ = s.WriteEdit(editor.EditEntry{})

	st := s.Stats()
	if st.DropSaveTotal != 1 || st.DropEditTotal != 1 {
		t.Fatalf("drops=%+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	tiles := catalogs.Default()
	if err := idx.UpsertCatalogs(context.Background(), tiles, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='tiles'`).Scan(&digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if digest != tiles.Digest {
		t.Fatalf("digest=%q want %q", digest, tiles.Digest)
	}
}
