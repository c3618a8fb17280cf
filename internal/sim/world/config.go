package world

import (
	"fmt"

	"topdown.ai/internal/sim/tuning"
	"topdown.ai/internal/sim/world/feature/editor"
	"topdown.ai/internal/sim/world/io/savecodec"
	"topdown.ai/internal/sim/world/terrain/store"
)

type Config struct {
	ID          string
	TileSize    int
	ChunkSize   int
	SaveVersion int

	// AutosaveInterval is in game-time units.
	AutosaveInterval float64

	Erase editor.Policy
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "world"
	}
	if c.TileSize <= 0 {
		c.TileSize = 16
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = store.DefaultChunkSize
	}
	if c.SaveVersion <= 0 {
		c.SaveVersion = savecodec.CurrentVersion
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = 1
	}
	if c.Erase.EraseLayers == nil {
		c.Erase = editor.DefaultPolicy()
	}
}

// ConfigFromTuning maps a loaded tuning file onto a world config.
func ConfigFromTuning(t tuning.Tuning) (Config, error) {
	if err := t.Validate(); err != nil {
		return Config{}, err
	}
	erase, err := editor.PolicyFromNames(t.EraseLayers)
	if err != nil {
		return Config{}, fmt.Errorf("tuning: %w", err)
	}
	return Config{
		ID:               t.WorldID,
		TileSize:         t.TileSize,
		ChunkSize:        t.ChunkSize,
		SaveVersion:      t.SaveVersion,
		AutosaveInterval: t.AutosaveInterval,
		Erase:            erase,
	}, nil
}
