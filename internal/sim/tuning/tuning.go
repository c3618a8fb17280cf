package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	WorldID     string `yaml:"world_id"`
	SaveVersion int    `yaml:"save_version"`

	TileSize  int `yaml:"tile_size"`
	ChunkSize int `yaml:"chunk_size"`

	// AutosaveInterval is in game-time units (seconds of game clock).
	AutosaveInterval float64 `yaml:"autosave_interval"`

	// EraseLayers names the layers the eraser clears, e.g. [FLOOR, OBJECTS, ROOF].
	EraseLayers []string `yaml:"erase_layers"`
}

func Defaults() Tuning {
	return Tuning{
		WorldID:          "world",
		SaveVersion:      2,
		TileSize:         16,
		ChunkSize:        16,
		AutosaveInterval: 1,
		EraseLayers:      []string{"FLOOR", "OBJECTS", "ROOF"},
	}
}

// Load reads a tuning.yaml; fields left out keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if strings.TrimSpace(t.WorldID) == "" {
		return fmt.Errorf("world_id is required")
	}
	if t.TileSize <= 0 {
		return fmt.Errorf("tile_size must be > 0 (got %d)", t.TileSize)
	}
	if t.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0 (got %d)", t.ChunkSize)
	}
	if t.AutosaveInterval < 0 {
		return fmt.Errorf("autosave_interval must be >= 0")
	}
	for _, name := range t.EraseLayers {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "FLOOR", "DECORATIONS", "OBJECTS", "ROOF":
		default:
			return fmt.Errorf("erase_layers: unknown layer %q", name)
		}
	}
	return nil
}
