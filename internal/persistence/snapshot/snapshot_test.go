package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"topdown.ai/internal/sim/world/io/savecodec"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
)

func sampleDoc() savecodec.Document {
	s := store.NewChunkStore(16)
	s.SetTileAt(coords.TilePos{X: -3, Y: 7}, store.Floor, "grass", nil)
	return savecodec.Encode(s, savecodec.CurrentVersion)
}

func TestWriteReadDocument_PlainAndCompressed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a" + savecodec.FileExt, "b" + savecodec.FileExt + CompressedExt} {
		path := filepath.Join(dir, "nested", name)
		if err := WriteDocument(path, sampleDoc()); err != nil {
			t.Fatalf("WriteDocument(%s): %v", name, err)
		}
		doc, err := ReadDocument(path)
		if err != nil {
			t.Fatalf("ReadDocument(%s): %v", name, err)
		}
		if len(doc.Chunks) != 1 || doc.Chunks[0].Pos != (coords.ChunkKey{CX: -1, CY: 0}) {
			t.Fatalf("%s: chunks=%v", name, doc.Chunks)
		}
	}

	plain, _ := os.ReadFile(filepath.Join(dir, "nested", "a"+savecodec.FileExt))
	if len(plain) == 0 || plain[0] != '{' {
		t.Fatalf("plain save should be raw JSON")
	}
	packed, _ := os.ReadFile(filepath.Join(dir, "nested", "b"+savecodec.FileExt+CompressedExt))
	if len(packed) == 0 || packed[0] == '{' {
		t.Fatalf(".zst save should be compressed")
	}
}

func TestReadDocument_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+savecodec.FileExt)
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDocument(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDirSlots(t *testing.T) {
	ctx := context.Background()
	slots := NewDirSlots(filepath.Join(t.TempDir(), "slots"))

	if keys, err := slots.ListSlots(ctx); err != nil || len(keys) != 0 {
		t.Fatalf("ListSlots on missing dir=%v,%v", keys, err)
	}
	if _, ok, err := slots.GetSlot(ctx, "world.autosave"); err != nil || ok {
		t.Fatalf("GetSlot on empty=%v,%v", ok, err)
	}
	if err := slots.PutSlot(ctx, "world.autosave", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("PutSlot: %v", err)
	}
	if err := slots.PutSlot(ctx, "alpha", []byte(`{}`)); err != nil {
		t.Fatalf("PutSlot: %v", err)
	}
	raw, ok, err := slots.GetSlot(ctx, "world.autosave")
	if err != nil || !ok || string(raw) != `{"x":1}` {
		t.Fatalf("GetSlot=%q,%v,%v", raw, ok, err)
	}
	keys, err := slots.ListSlots(ctx)
	if err != nil || len(keys) != 2 || keys[0] != "alpha" || keys[1] != "world.autosave" {
		t.Fatalf("ListSlots=%v,%v", keys, err)
	}
	if err := slots.PutSlot(ctx, "../escape", nil); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
