// Package genome provides the gene annotation model shared by truth and
// predicted annotations: regions, genes, transcripts and exons placed on a
// common 1-based coordinate axis.
package genome

// Range is a closed interval on the region axis (1-based, inclusive).
type Range struct {
	Start int64
	End   int64
}

// Overlaps returns true if the two closed ranges share at least one position.
func Overlaps(a, b Range) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// Len returns the number of positions covered by r, or 0 if r is inverted.
func (r Range) Len() int64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains returns true if pos lies within r.
func (r Range) Contains(pos int64) bool {
	return pos >= r.Start && pos <= r.End
}

// Intersect returns the overlapping part of a and b. ok is false when they
// do not overlap.
func Intersect(a, b Range) (r Range, ok bool) {
	if !Overlaps(a, b) {
		return Range{}, false
	}
	return Range{Start: max(a.Start, b.Start), End: min(a.End, b.End)}, true
}
