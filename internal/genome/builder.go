package genome

import (
	"cmp"
	"slices"
)

// NewGene builds a single-transcript gene from exon ranges. Exons are sorted
// ascending and the gene span is set to cover them.
func NewGene(id string, strand int8, exons ...Range) *Gene {
	g := &Gene{ID: id, Name: id, Strand: strand}
	t := &Transcript{ID: id + ".1"}
	sorted := slices.Clone(exons)
	slices.SortFunc(sorted, func(a, b Range) int { return cmp.Compare(a.Start, b.Start) })
	for _, r := range sorted {
		t.AddExon(&Exon{Start: r.Start, End: r.End})
	}
	g.AddTranscript(t)
	g.FitSpan()
	return g
}

// FitSpan sets Start and End to cover every exon of every transcript.
// Genes without exons are left unchanged.
func (g *Gene) FitSpan() {
	first := true
	for _, t := range g.Transcripts {
		for _, e := range t.Exons {
			if first || e.Start < g.Start {
				g.Start = e.Start
			}
			if first || e.End > g.End {
				g.End = e.End
			}
			first = false
		}
	}
}
