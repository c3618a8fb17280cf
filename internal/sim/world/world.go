// Package world is the tile world an editor works on: a chunked layered grid,
// brush painting, and save/load.
//
// A World is driven from a single goroutine (the frame loop) and is not safe
// for concurrent use.
package world

import (
	"context"
	"log"
	"os"

	"topdown.ai/internal/persistence/indexdb"
	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/feature/persistence/autosave"
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/terrain/store"
	"topdown.ai/internal/sim/world/tiledata"
)

type EditSink interface {
	WriteEdit(e editor.EditEntry) error
}

type SaveRecorder interface {
	RecordSave(r indexdb.SaveRecord)
}

type World struct {
	cfg    Config
	tiles  *catalogs.TileCatalog
	chunks *store.ChunkStore
	logger *log.Logger

	painter  editor.Painter
	edits    []EditSink
	history  SaveRecorder
	autosave *autosave.Autosaver

	// now is the game clock.
	now float64
}

// New builds an empty world. A nil logger logs to stderr with a "[world] "
// prefix; a nil catalog uses the built-in tiles.
func New(cfg Config, tiles *catalogs.TileCatalog, logger *log.Logger) *World {
	cfg.applyDefaults()
	if tiles == nil {
		tiles = catalogs.Default()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[world] ", log.LstdFlags)
	}
	w := &World{
		cfg:    cfg,
		tiles:  tiles,
		chunks: store.NewChunkStore(cfg.ChunkSize),
		logger: logger,
	}
	w.painter = editor.Painter{Grid: w.chunks, Tiles: tiles, Policy: cfg.Erase}
	return w
}

func (w *World) Config() Config                 { return w.cfg }
func (w *World) Tiles() *catalogs.TileCatalog   { return w.tiles }
func (w *World) Store() *store.ChunkStore       { return w.chunks }
func (w *World) Time() float64                  { return w.now }
func (w *World) AddEditSink(s EditSink)         { w.edits = append(w.edits, s) }
func (w *World) SetSaveRecorder(r SaveRecorder) { w.history = r }

func (w *World) GetTileAt(pos coords.TilePos, id store.LayerID) string {
	return w.chunks.GetTileAt(pos, id)
}

func (w *World) GetTiledataAt(pos coords.TilePos, id store.LayerID) tiledata.Data {
	return w.chunks.GetTiledataAt(pos, id)
}

func (w *World) SetTileAt(pos coords.TilePos, id store.LayerID, tile string, td tiledata.Data) {
	w.chunks.SetTileAt(pos, id, tile, td)
}

// Paint applies one brush stroke between two tile positions and journals it.
func (w *World) Paint(tool editor.Tool, prev, cur coords.TilePos) editor.Stroke {
	s := w.painter.Stroke(tool, prev, cur)
	if len(s.Tiles) == 0 || len(w.edits) == 0 {
		return s
	}
	e := editor.NewEditEntry(w.cfg.ID, w.now, tool, prev, cur, s)
	for _, sink := range w.edits {
		if err := sink.WriteEdit(e); err != nil {
			w.logger.Printf("WARN edit journal: %v", err)
		}
	}
	return s
}

// PaintGame is Paint for game (pixel) positions.
func (w *World) PaintGame(tool editor.Tool, prev, cur coords.Vec2) editor.Stroke {
	return w.Paint(tool, coords.ToTile(prev, w.cfg.TileSize), coords.ToTile(cur, w.cfg.TileSize))
}

// EnableAutosave makes Advance save into sink's autosave slot.
func (w *World) EnableAutosave(sink autosave.Sink) *autosave.Autosaver {
	a := autosave.New(w.cfg.ID, w.cfg.AutosaveInterval, sink)
	a.OnSave = func(key string, raw []byte) { w.recordSave(key, raw) }
	w.autosave = a
	return a
}

// Advance moves the game clock forward by dt and autosaves when due.
func (w *World) Advance(ctx context.Context, dt float64) error {
	if dt > 0 {
		w.now += dt
	}
	if w.autosave == nil {
		return nil
	}
	_, err := w.autosave.Maybe(ctx, w.now, w)
	return err
}

// Flush forces an autosave, e.g. when the editor closes.
func (w *World) Flush(ctx context.Context) error {
	if w.autosave == nil {
		return nil
	}
	return w.autosave.Save(ctx, w.now, w)
}

// Restore loads the autosave slot from src, if there is one.
func (w *World) Restore(ctx context.Context, src autosave.Source) (bool, error) {
	a := w.autosave
	if a == nil {
		a = autosave.New(w.cfg.ID, w.cfg.AutosaveInterval, nil)
	}
	return a.Restore(ctx, src, w)
}
