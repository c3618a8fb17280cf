package savecodec

import (
	"errors"
	"fmt"

	"topdown.ai/internal/sim/world/logic/coords"
)

var (
	// ErrMalformed covers structurally invalid documents: missing fields,
	// wrong chunk size, bad layer keys, corrupt run lists.
	ErrMalformed = errors.New("malformed savedata")
	// ErrInvalidJSON is returned when the bytes are not JSON at all.
	ErrInvalidJSON = errors.New("not a valid json file")
)

// RLELengthError reports a layer whose runs do not expand to size*size cells.
type RLELengthError struct {
	Chunk coords.ChunkKey
	Layer string
	Got   int
	Want  int
}

func (e *RLELengthError) Error() string {
	return fmt.Sprintf("RLE length mismatch for chunk %s layer %s (got %d, expected %d)", e.Chunk, e.Layer, e.Got, e.Want)
}

func missingField(name string) error {
	return fmt.Errorf("%w: Savedata is missing %s property", ErrMalformed, name)
}
