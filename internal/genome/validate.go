package genome

import "fmt"

// InvariantError reports a malformed gene: coordinates or exon ordering that
// the comparison code relies on do not hold.
type InvariantError struct {
	GeneID string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gene %s: %s", e.GeneID, e.Reason)
}

func invalid(g *Gene, format string, args ...any) error {
	return &InvariantError{GeneID: g.Label(), Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the gene span and every transcript's exon list. Exons must
// be non-negative, start <= end, ascending, non-overlapping and inside the
// gene span.
func (g *Gene) Validate() error {
	if g.Start < 0 || g.End < 0 {
		return invalid(g, "negative coordinates %d-%d", g.Start, g.End)
	}
	if g.Start > g.End {
		return invalid(g, "start %d > end %d", g.Start, g.End)
	}
	if len(g.Transcripts) == 0 {
		return invalid(g, "no transcripts")
	}
	for ti, t := range g.Transcripts {
		if len(t.Exons) == 0 {
			return invalid(g, "transcript %d has no exons", ti)
		}
		var prev *Exon
		for i, e := range t.Exons {
			if e == nil {
				return invalid(g, "transcript %d exon %d is nil", ti, i)
			}
			if e.Start < 0 || e.Start > e.End {
				return invalid(g, "transcript %d exon %d has bad coordinates %d-%d", ti, i, e.Start, e.End)
			}
			if e.Start < g.Start || e.End > g.End {
				return invalid(g, "transcript %d exon %d (%d-%d) outside gene span %d-%d",
					ti, i, e.Start, e.End, g.Start, g.End)
			}
			if prev != nil {
				if e.Start < prev.Start {
					return invalid(g, "transcript %d exons not sorted at %d", ti, i)
				}
				if e.Start <= prev.End {
					return invalid(g, "transcript %d exons %d and %d overlap", ti, i-1, i)
				}
			}
			prev = e
		}
	}
	return nil
}
