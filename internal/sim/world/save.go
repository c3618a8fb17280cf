package world

import (
	"fmt"

	"topdown.ai/internal/persistence/indexdb"
	"topdown.ai/internal/persistence/snapshot"
	"topdown.ai/internal/sim/world/io/savecodec"
)

// Save builds a fresh save document of the whole world.
func (w *World) Save() savecodec.Document {
	return savecodec.Encode(w.chunks, w.cfg.SaveVersion)
}

func (w *World) SaveJSON() ([]byte, error) {
	return savecodec.Marshal(w.Save())
}

// Load replaces every chunk with the contents of doc. On error the world is
// left exactly as it was.
func (w *World) Load(doc savecodec.Document) error {
	b, err := savecodec.Decode(doc, w.cfg.ChunkSize)
	if err != nil {
		w.logger.Printf("WARN load savedata: %v", err)
		return err
	}
	n := b.Len()
	if err := w.chunks.Replace(b); err != nil {
		w.logger.Printf("WARN load savedata: %v", err)
		return err
	}
	w.logger.Printf("loaded savedata (%d chunk(s), version:%d)", n, doc.Version)
	return nil
}

func (w *World) LoadJSON(raw []byte) error {
	doc, err := savecodec.Unmarshal(raw)
	if err != nil {
		w.logger.Printf("WARN load savedata: %v", err)
		return err
	}
	return w.Load(doc)
}

// SaveFile writes the world to path; a ".zst" suffix compresses it.
func (w *World) SaveFile(path string) error {
	raw, err := w.SaveJSON()
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := snapshot.WriteFile(path, raw); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	w.recordSave(path, raw)
	return nil
}

func (w *World) LoadFile(path string) error {
	raw, err := snapshot.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := w.LoadJSON(raw); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (w *World) recordSave(target string, raw []byte) {
	if w.history == nil {
		return
	}
	w.history.RecordSave(indexdb.SaveRecord{
		WorldID: w.cfg.ID,
		Target:  target,
		Digest:  indexdb.Digest(raw),
		Version: w.cfg.SaveVersion,
		Chunks:  w.chunks.Len(),
		Bytes:   len(raw),
	})
}

// Digest is the sha256 of the canonical save. Two worlds with the same tiles
// have the same digest.
func (w *World) Digest() (string, error) {
	raw, err := w.SaveJSON()
	if err != nil {
		return "", err
	}
	return indexdb.Digest(raw), nil
}
