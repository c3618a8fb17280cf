package encoding

import (
	"errors"
	"fmt"
	"math"
)

var ErrCorruptRLE = errors.New("corrupt rle")

// EncodeRLE encodes a sequence of palette ids as (run_len, id) pairs,
// flattened: [run, id, run, id, ...].
func EncodeRLE(ids []int) []int {
	out := make([]int, 0, 8)
	i := 0
	for i < len(ids) {
		v := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == v; j++ {
			run++
		}
		out = append(out, run, v)
		i += run
	}
	return out
}

// DecodedLen validates pairs and returns the length they expand to, without
// expanding them.
func DecodedLen(pairs []int) (int, error) {
	if len(pairs)%2 != 0 {
		return 0, fmt.Errorf("%w: odd pair count %d", ErrCorruptRLE, len(pairs))
	}
	total := 0
	for i := 0; i < len(pairs); i += 2 {
		run := pairs[i]
		if run < 0 || run > math.MaxInt32 {
			return 0, fmt.Errorf("%w: bad run %d at %d", ErrCorruptRLE, run, i)
		}
		total += run
		if total > math.MaxInt32 {
			return 0, fmt.Errorf("%w: decoded length overflows", ErrCorruptRLE)
		}
	}
	return total, nil
}

// DecodeRLE expands flattened (run_len, id) pairs.
func DecodeRLE(pairs []int) ([]int, error) {
	n, err := DecodedLen(pairs)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, n)
	for i := 0; i < len(pairs); i += 2 {
		run, v := pairs[i], pairs[i+1]
		for k := 0; k < run; k++ {
			out = append(out, v)
		}
	}
	return out, nil
}
