package genome

import (
	"cmp"
	"slices"
)

// GenomicRegion is a stretch of sequence with the genes annotated on it.
// The sequence itself may be absent; annotation-only regions are valid.
type GenomicRegion struct {
	Name     string
	Genes    []*Gene
	Sequence string
}

// NewGenomicRegion creates an empty region.
func NewGenomicRegion(name string) *GenomicRegion {
	return &GenomicRegion{Name: name}
}

// AddGene appends a gene, keeping insertion order, and sets its parent.
func (r *GenomicRegion) AddGene(g *Gene) {
	g.parent = r
	r.Genes = append(r.Genes, g)
}

// GeneCount returns the number of genes in the region.
func (r *GenomicRegion) GeneCount() int {
	return len(r.Genes)
}

// HasSequence returns true if the region carries its DNA sequence.
func (r *GenomicRegion) HasSequence() bool {
	return r.Sequence != ""
}

// SortAbsolute orders genes by start, then end. The sort is stable so genes
// with identical spans keep their insertion order.
func (r *GenomicRegion) SortAbsolute() {
	slices.SortStableFunc(r.Genes, compareGeneAbsolute)
}

func compareGeneAbsolute(a, b *Gene) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

// Copy returns a deep copy of the region, genes included.
func (r *GenomicRegion) Copy() *GenomicRegion {
	c := &GenomicRegion{Name: r.Name, Sequence: r.Sequence}
	for _, g := range r.Genes {
		c.AddGene(g.Copy())
	}
	return c
}

// Relink restores the parent pointers of every gene, transcript and
// translation. It is needed after decoding a region, since the
// back-references are not serialized.
func (r *GenomicRegion) Relink() {
	for _, g := range r.Genes {
		if g == nil {
			continue
		}
		g.parent = r
		for _, t := range g.Transcripts {
			t.parent = g
			for _, tr := range t.Translations {
				tr.parent = t
			}
		}
	}
}
