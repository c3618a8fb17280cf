package worldtest

import (
	"path/filepath"
	"testing"

	"topdown.ai/internal/sim/catalogs"
	"topdown.ai/internal/sim/tuning"
	world "topdown.ai/internal/sim/world"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/logic/coords"
)

// Harness drives a world through its exported API only, so tests can live
// outside the world package.
type Harness struct {
	T     *testing.T
	Tiles *catalogs.TileCatalog
	W     *world.World
}

// NewHarness builds a world from the repository configs.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	configDir := filepath.Join("..", "..", "..", "configs")
	tune, err := tuning.Load(filepath.Join(configDir, "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	tiles, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("load tiles: %v", err)
	}
	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return &Harness{T: t, Tiles: tiles, W: world.New(cfg, tiles, nil)}
}

// Fresh returns an empty world with the same config and tiles.
func (h *Harness) Fresh() *world.World {
	return world.New(h.W.Config(), h.Tiles, nil)
}

func (h *Harness) Place(tile string, x0, y0, x1, y1 int) editor.Stroke {
	return h.W.Paint(editor.Tool{Mode: editor.ModePlace, Tile: tile}, coords.TilePos{X: x0, Y: y0}, coords.TilePos{X: x1, Y: y1})
}

func (h *Harness) Erase(x0, y0, x1, y1 int) editor.Stroke {
	return h.W.Paint(editor.Tool{Mode: editor.ModeErase}, coords.TilePos{X: x0, Y: y0}, coords.TilePos{X: x1, Y: y1})
}

// Digest hashes the canonical save of w.
func (h *Harness) Digest(w *world.World) string {
	h.T.Helper()
	d, err := w.Digest()
	if err != nil {
		h.T.Fatalf("digest: %v", err)
	}
	return d
}

// Reload saves h.W to JSON and loads it into a fresh world.
func (h *Harness) Reload() *world.World {
	h.T.Helper()
	raw, err := h.W.SaveJSON()
	if err != nil {
		h.T.Fatalf("SaveJSON: %v", err)
	}
	w2 := h.Fresh()
	if err := w2.LoadJSON(raw); err != nil {
		h.T.Fatalf("LoadJSON: %v", err)
	}
	return w2
}
