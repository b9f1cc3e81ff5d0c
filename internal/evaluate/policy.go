package evaluate

import (
	"fmt"
	"strings"
)

// StrandPolicy decides how a span-overlapping pair on opposite strands is scored.
type StrandPolicy int

const (
	// StrandMismatch scores the pair as a gross misprediction: every truth
	// exon missed and every test exon mispredicted.
	StrandMismatch StrandPolicy = iota
	// StrandIgnore matches exons regardless of strand.
	StrandIgnore
)

func (p StrandPolicy) String() string {
	if p == StrandIgnore {
		return "ignore"
	}
	return "mismatch"
}

// ParseStrandPolicy parses "mismatch" or "ignore".
func ParseStrandPolicy(s string) (StrandPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mismatch":
		return StrandMismatch, nil
	case "ignore":
		return StrandIgnore, nil
	}
	return StrandMismatch, fmt.Errorf("unknown strand policy %q (want mismatch or ignore)", s)
}

// MatchPolicy decides which test exon a truth exon consumes when several
// unconsumed test exons overlap it.
type MatchPolicy int

const (
	// MatchFirstByPosition takes the lowest-coordinate overlapping test exon.
	MatchFirstByPosition MatchPolicy = iota
	// MatchMaxOverlap takes the test exon sharing the most bases, ties going
	// to the lowest coordinate.
	MatchMaxOverlap
)

func (p MatchPolicy) String() string {
	if p == MatchMaxOverlap {
		return "max-overlap"
	}
	return "first"
}

// ParseMatchPolicy parses "first" or "max-overlap".
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return MatchFirstByPosition, nil
	case "max-overlap", "max_overlap", "maxoverlap":
		return MatchMaxOverlap, nil
	}
	return MatchFirstByPosition, fmt.Errorf("unknown match policy %q (want first or max-overlap)", s)
}
