package genome

import (
	"strings"
	"sync"
)

// Exon represents a single exon within a transcript.
type Exon struct {
	Start int64   // Region start (1-based)
	End   int64   // Region end (1-based, inclusive)
	Used  bool    // Set by some prediction programs, ignored by the evaluator
	Score float64 // Optional confidence
}

// Span returns the exon coordinates as a Range.
func (e *Exon) Span() Range {
	return Range{Start: e.Start, End: e.End}
}

// Len returns the exon length in bases.
func (e *Exon) Len() int64 {
	return e.Span().Len()
}

// Translation is the coding window of a transcript, in spliced (cDNA)
// coordinates, 1-based inclusive.
type Translation struct {
	Start  int64
	End    int64
	parent *Transcript
}

// Transcript returns the owning transcript, or nil if unattached.
func (t *Translation) Transcript() *Transcript {
	return t.parent
}

// Length returns the number of coding bases.
func (t *Translation) Length() int64 {
	return Range{Start: t.Start, End: t.End}.Len()
}

// Transcript is one isoform of a gene. Exons are ordered by ascending Start
// on both strands; strand is a property of the owning Gene.
type Transcript struct {
	ID           string
	Exons        []*Exon
	Translations []*Translation

	parent *Gene

	cdnaOnce sync.Once
	cdna     string
	cdnaErr  error
}

// Gene returns the owning gene, or nil if the transcript is unattached.
func (t *Transcript) Gene() *Gene {
	return t.parent
}

// AddExon appends an exon. Callers are responsible for ascending order.
func (t *Transcript) AddExon(e *Exon) {
	t.Exons = append(t.Exons, e)
}

// AddTranslation appends a translation and sets its parent.
func (t *Transcript) AddTranslation(tr *Translation) {
	tr.parent = t
	t.Translations = append(t.Translations, tr)
}

// Length returns the spliced length of the transcript.
func (t *Transcript) Length() int64 {
	var n int64
	for _, e := range t.Exons {
		n += e.Len()
	}
	return n
}

// Span returns the range from the first exon start to the last exon end.
func (t *Transcript) Span() Range {
	if len(t.Exons) == 0 {
		return Range{}
	}
	return Range{Start: t.Exons[0].Start, End: t.Exons[len(t.Exons)-1].End}
}

// IsExternal returns true if exon i is the first or last exon of the transcript.
func (t *Transcript) IsExternal(i int) bool {
	return i == 0 || i == len(t.Exons)-1
}

// CDNAPosition maps a region position to a 1-based position in the spliced
// transcript, counted in transcription orientation. ok is false if pos is
// not inside an exon.
func (t *Transcript) CDNAPosition(pos int64) (cdna int64, ok bool) {
	reversed := t.parent != nil && t.parent.Reversed()
	var before int64
	if reversed {
		for i := len(t.Exons) - 1; i >= 0; i-- {
			e := t.Exons[i]
			if e.Span().Contains(pos) {
				return before + e.End - pos + 1, true
			}
			before += e.Len()
		}
		return 0, false
	}
	for _, e := range t.Exons {
		if e.Span().Contains(pos) {
			return before + pos - e.Start + 1, true
		}
		before += e.Len()
	}
	return 0, false
}

// CDNA returns the spliced sequence of the transcript in transcription
// orientation. It is built from the region sequence on first use and cached.
func (t *Transcript) CDNA() (string, error) {
	t.cdnaOnce.Do(func() {
		t.cdna, t.cdnaErr = t.splice()
	})
	return t.cdna, t.cdnaErr
}

func (t *Transcript) splice() (string, error) {
	g := t.parent
	if g == nil || g.parent == nil || !g.parent.HasSequence() {
		return "", ErrNoSequence
	}
	seq := g.parent.Sequence

	var sb strings.Builder
	sb.Grow(int(t.Length()))
	for _, e := range t.Exons {
		part, err := slice(seq, e.Span())
		if err != nil {
			return "", err
		}
		sb.WriteString(part)
	}
	if g.Reversed() {
		return ReverseComplement(sb.String()), nil
	}
	return sb.String(), nil
}
