package evaluate

import (
	"slices"

	"github.com/biogo/store/interval"

	"github.com/inodb/geneval/internal/genome"
)

// Locator finds the test genes whose spans overlap a truth gene.
// The index is built once and only read afterwards, so a Locator may be
// shared by concurrent workers.
type Locator struct {
	tree     interval.IntTree
	rejected []GeneFailure
}

// geneInterval stores a test gene in the tree. The tree works on half-open
// ranges, so the closed gene span [Start, End] is kept as [Start, End+1).
type geneInterval struct {
	idx  int
	gene *genome.Gene
}

func (g geneInterval) ID() uintptr { return uintptr(g.idx) }

func (g geneInterval) Range() interval.IntRange {
	return interval.IntRange{Start: int(g.gene.Start), End: int(g.gene.End) + 1}
}

func (g geneInterval) Overlap(b interval.IntRange) bool {
	return int(g.gene.Start) < b.End && b.Start <= int(g.gene.End)
}

// spanQuery is a closed span used to query the tree.
type spanQuery genome.Range

func (q spanQuery) Overlap(b interval.IntRange) bool {
	return int(q.Start) < b.End && b.Start <= int(q.End)
}

// NewLocator indexes the genes of the test region. Genes failing validation
// are left out of the index and reported by Rejected.
func NewLocator(test *genome.GenomicRegion) *Locator {
	l := &Locator{}
	if test == nil {
		return l
	}
	for i, g := range test.Genes {
		if g == nil {
			l.rejected = append(l.rejected, GeneFailure{Err: ErrNilGene})
			continue
		}
		if err := g.Validate(); err != nil {
			l.rejected = append(l.rejected, GeneFailure{Gene: g, Err: err})
			continue
		}
		if err := l.tree.Insert(geneInterval{idx: i, gene: g}, true); err != nil {
			l.rejected = append(l.rejected, GeneFailure{Gene: g, Err: err})
		}
	}
	if l.tree.Len() > 0 {
		l.tree.AdjustRanges()
	}
	return l
}

// Rejected returns the test genes that could not be indexed.
func (l *Locator) Rejected() []GeneFailure {
	return l.rejected
}

// Len returns the number of indexed test genes.
func (l *Locator) Len() int {
	return l.tree.Len()
}

// Find returns every indexed test gene whose span overlaps the truth gene's
// span, in the order the genes appear in the test region.
func (l *Locator) Find(truth *genome.Gene) []*genome.Gene {
	if truth == nil || l.tree.Len() == 0 {
		return nil
	}
	hits := l.tree.Get(spanQuery(truth.Span()))
	if len(hits) == 0 {
		return nil
	}
	found := make([]geneInterval, len(hits))
	for i, h := range hits {
		found[i] = h.(geneInterval)
	}
	slices.SortFunc(found, func(a, b geneInterval) int { return a.idx - b.idx })

	genes := make([]*genome.Gene, len(found))
	for i, f := range found {
		genes[i] = f.gene
	}
	return genes
}
