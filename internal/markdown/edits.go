package markdown

import (
	"errors"
	"fmt"
	"sort"
)

// Edit replaces src[Start:End] with Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ErrOverlappingEdits is returned when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// ApplyEdits applies non-overlapping edits expressed against the original src.
func ApplyEdits(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]byte, 0, len(src))
	pos := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("edit %d: invalid range [%d,%d) for %d bytes", i, e.Start, e.End, len(src))
		}
		if e.Start < pos {
			return nil, fmt.Errorf("edit %d at %d: %w", i, e.Start, ErrOverlappingEdits)
		}
		out = append(out, src[pos:e.Start]...)
		out = append(out, e.Replacement...)
		pos = e.End
	}
	return append(out, src[pos:]...), nil
}
