package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AutoTileOffset is the sprite-sheet offset (in cells) of the standalone
// variant of an auto-tiled tile.
const AutoTileOffset = 3

type TileCatalog struct {
	// Names lists tile ids in registry order (the editor's palette order).
	Names  []string
	Defs   map[string]TileDef
	Digest string
}

type TileDef struct {
	Name         string `json:"name"`
	AtlasPos     [2]int `json:"atlas_pos"`
	Floor        bool   `json:"floor,omitempty"`
	UsesAutoTile bool   `json:"auto_tile,omitempty"`
}

var defaultTiles = []TileDef{
	{Name: "grass", AtlasPos: [2]int{1, 0}, Floor: true},
	{Name: "stone", AtlasPos: [2]int{2, 0}, Floor: true},
	{Name: "sand", AtlasPos: [2]int{4, 0}, Floor: true},
	{Name: "water", AtlasPos: [2]int{0, 2}, Floor: true},
	{Name: "stone_block", AtlasPos: [2]int{2, 1}},
	{Name: "dirt_block", AtlasPos: [2]int{3, 1}},
	{Name: "sand_block", AtlasPos: [2]int{4, 1}},
}

// Default returns the compiled-in tile registry.
func Default() *TileCatalog {
	c, err := build(defaultTiles)
	if err != nil {
		panic(err)
	}
	raw, _ := json.Marshal(defaultTiles)
	c.Digest = sha256Hex(raw)
	return c
}

// Load reads <configDir>/tiles.json. A missing file falls back to Default.
func Load(configDir string) (*TileCatalog, error) {
	path := filepath.Join(configDir, "tiles.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var defs []TileDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("tiles.json: %w", err)
	}
	c, err := build(defs)
	if err != nil {
		return nil, fmt.Errorf("tiles.json: %w", err)
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

func build(defs []TileDef) (*TileCatalog, error) {
	c := &TileCatalog{
		Names: make([]string, 0, len(defs)),
		Defs:  make(map[string]TileDef, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("empty name")
		}
		if _, dup := c.Defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tile %q", d.Name)
		}
		c.Defs[d.Name] = d
		c.Names = append(c.Names, d.Name)
	}
	return c, nil
}

func (c *TileCatalog) Lookup(name string) (TileDef, bool) {
	if c == nil {
		return TileDef{}, false
	}
	d, ok := c.Defs[name]
	return d, ok
}

// IsFloor reports whether a tile belongs on the floor layer. Unknown tiles
// are not floor.
func (c *TileCatalog) IsFloor(name string) bool {
	d, ok := c.Lookup(name)
	return ok && d.Floor
}

// SpriteCell returns the sprite-sheet cell for a tile; auto-tiled tiles use
// their standalone variant. Unknown tiles map to (0,0).
func (c *TileCatalog) SpriteCell(name string) [2]int {
	d, ok := c.Lookup(name)
	if !ok {
		return [2]int{}
	}
	cell := d.AtlasPos
	if d.UsesAutoTile {
		cell[0] += AutoTileOffset
		cell[1] += AutoTileOffset
	}
	return cell
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
