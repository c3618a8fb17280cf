package raster

import (
	"topdown.ai/internal/sim/world/logic/coords"
	"topdown.ai/internal/sim/world/logic/mathx"
)

// IntersectingTiles walks the tiles crossed by the segment start->end,
// both endpoints included, so a fast drag between two frames leaves no gaps.
func IntersectingTiles(start, end coords.TilePos) []coords.TilePos {
	dx := mathx.AbsInt(end.X - start.X)
	dy := mathx.AbsInt(end.Y - start.Y)
	sx := mathx.Step(end.X - start.X)
	sy := mathx.Step(end.Y - start.Y)

	out := make([]coords.TilePos, 0, max(dx, dy)+1)
	cur := start
	err := dx - dy
	for {
		out = append(out, cur)
		if cur == end {
			return out
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			cur.X += sx
		}
		if e2 < dx {
			err += dx
			cur.Y += sy
		}
	}
}

// IntersectingGameTiles floors both game positions to tiles first.
func IntersectingGameTiles(start, end coords.Vec2, tileSize int) []coords.TilePos {
	return IntersectingTiles(coords.ToTile(start, tileSize), coords.ToTile(end, tileSize))
}
