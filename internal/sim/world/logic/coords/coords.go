// Package coords converts between continuous game positions, tile
// coordinates and chunk coordinates.
package coords

import (
	"fmt"

	"topdown.ai/internal/sim/world/logic/mathx"
)

// Vec2 is a continuous game-space position (pixels).
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Offset(dx, dy float64) Vec2 { return Vec2{X: v.X + dx, Y: v.Y + dy} }

func (v Vec2) String() string { return fmt.Sprintf("(%g,%g)", v.X, v.Y) }

// TilePos is a global integer tile coordinate.
type TilePos struct {
	X, Y int
}

func (p TilePos) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// ChunkKey identifies a chunk by its integer chunk coordinate.
type ChunkKey struct {
	CX int
	CY int
}

func (k ChunkKey) String() string { return fmt.Sprintf("[%d,%d]", k.CX, k.CY) }

// LocalPos is a tile position relative to its chunk origin, in [0, size).
type LocalPos struct {
	X, Y int
}

func (p LocalPos) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// InBounds reports whether p lies inside a size*size chunk.
func (p LocalPos) InBounds(size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

// Index is the row-major flat index y*size + x.
func (p LocalPos) Index(size int) int {
	return p.Y*size + p.X
}

// LocalFromIndex inverts Index: row = idx/size is Y, col = idx%size is X.
func LocalFromIndex(idx, size int) LocalPos {
	return LocalPos{X: idx % size, Y: idx / size}
}

// ToTile floors a game position to the tile containing it.
func ToTile(pos Vec2, tileSize int) TilePos {
	ts := float64(tileSize)
	return TilePos{X: mathx.FloorDivFloat(pos.X, ts), Y: mathx.FloorDivFloat(pos.Y, ts)}
}

// ToChunk returns the chunk owning a tile.
func ToChunk(tile TilePos, chunkSize int) ChunkKey {
	return ChunkKey{CX: mathx.FloorDiv(tile.X, chunkSize), CY: mathx.FloorDiv(tile.Y, chunkSize)}
}

// ToLocal returns the tile position within its chunk (Euclidean modulo).
func ToLocal(tile TilePos, chunkSize int) LocalPos {
	return LocalPos{X: mathx.Mod(tile.X, chunkSize), Y: mathx.Mod(tile.Y, chunkSize)}
}

// GlobalTile is the inverse of ToChunk/ToLocal.
func GlobalTile(k ChunkKey, local LocalPos, chunkSize int) TilePos {
	return TilePos{X: k.CX*chunkSize + local.X, Y: k.CY*chunkSize + local.Y}
}

// TileOrigin is the game position of a tile's top-left corner.
func TileOrigin(tile TilePos, tileSize int) Vec2 {
	return Vec2{X: float64(tile.X * tileSize), Y: float64(tile.Y * tileSize)}
}

// ChunkOrigin is the game position of a chunk's top-left corner.
func ChunkOrigin(k ChunkKey, chunkSize, tileSize int) Vec2 {
	span := float64(chunkSize * tileSize)
	return Vec2{X: float64(k.CX) * span, Y: float64(k.CY) * span}
}

// Rect is an axis-aligned game-space rectangle with Min <= Max.
type Rect struct {
	Min, Max Vec2
}

// Overlaps is inclusive on the edges.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Min.X > o.Max.X || r.Max.X < o.Min.X || r.Min.Y > o.Max.Y || r.Max.Y < o.Min.Y)
}

// ChunkRect is the game-space area covered by a chunk.
func ChunkRect(k ChunkKey, chunkSize, tileSize int) Rect {
	origin := ChunkOrigin(k, chunkSize, tileSize)
	span := float64(chunkSize * tileSize)
	return Rect{Min: origin, Max: origin.Offset(span, span)}
}
