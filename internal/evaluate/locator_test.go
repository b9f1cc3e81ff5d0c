package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/geneval/internal/genome"
)

func regionOf(name string, genes ...*genome.Gene) *genome.GenomicRegion {
	reg := genome.NewGenomicRegion(name)
	for _, g := range genes {
		reg.AddGene(g)
	}
	return reg
}

func geneIDs(genes []*genome.Gene) []string {
	var ids []string
	for _, g := range genes {
		ids = append(ids, g.ID)
	}
	return ids
}

func TestLocator_Empty(t *testing.T) {
	loc := NewLocator(genome.NewGenomicRegion("chr1"))
	assert.Zero(t, loc.Len())
	assert.Empty(t, loc.Find(threeExonTruth()))

	assert.Empty(t, NewLocator(nil).Find(threeExonTruth()))
}

func TestLocator_InclusiveBoundaries(t *testing.T) {
	loc := NewLocator(regionOf("chr1",
		genome.NewGene("left", 1, r{Start: 1, End: 10}),
		genome.NewGene("right", 1, r{Start: 600, End: 700}),
		genome.NewGene("gap", 1, r{Start: 601, End: 650}),
	))

	truth := genome.NewGene("t", 1, r{Start: 10, End: 600})
	assert.Equal(t, []string{"left", "right"}, geneIDs(loc.Find(truth)))
}

func TestLocator_PreservesRegionOrder(t *testing.T) {
	// Stored out of coordinate order on purpose.
	loc := NewLocator(regionOf("chr1",
		genome.NewGene("c", 1, r{Start: 400, End: 450}),
		genome.NewGene("a", 1, r{Start: 10, End: 20}),
		genome.NewGene("b", -1, r{Start: 100, End: 300}),
	))

	truth := genome.NewGene("t", 1, r{Start: 15, End: 420})
	assert.Equal(t, []string{"c", "a", "b"}, geneIDs(loc.Find(truth)))
}

func TestLocator_MatchesLinearScan(t *testing.T) {
	var genes []*genome.Gene
	spans := []genome.Range{
		{Start: 1000, End: 5000}, {Start: 2000, End: 3000}, {Start: 4000, End: 8000}, {Start: 6000, End: 7000},
		{Start: 9000, End: 10000}, {Start: 9500, End: 9500}, {Start: 12000, End: 15000}, {Start: 100, End: 200},
	}
	for i, s := range spans {
		genes = append(genes, genome.NewGene(string(rune('A'+i)), 1, s))
	}
	loc := NewLocator(regionOf("chr1", genes...))
	require.Equal(t, len(spans), loc.Len())

	for start := int64(0); start <= 16000; start += 250 {
		for _, width := range []int64{0, 100, 1500} {
			truth := genome.NewGene("t", 1, r{Start: start, End: start + width})

			var linear []*genome.Gene
			for _, g := range genes {
				if genome.Overlaps(truth.Span(), g.Span()) {
					linear = append(linear, g)
				}
			}
			assert.Equal(t, geneIDs(linear), geneIDs(loc.Find(truth)), "span %v", truth.Span())
		}
	}
}

func TestLocator_RejectsMalformedGenes(t *testing.T) {
	bad := genome.NewGene("bad", 1, r{Start: 10, End: 50}, r{Start: 100, End: 150})
	bad.Canonical().Exons[0], bad.Canonical().Exons[1] = bad.Canonical().Exons[1], bad.Canonical().Exons[0]

	loc := NewLocator(regionOf("chr1", bad, genome.NewGene("good", 1, r{Start: 20, End: 40})))

	assert.Equal(t, 1, loc.Len())
	require.Len(t, loc.Rejected(), 1)
	assert.Same(t, bad, loc.Rejected()[0].Gene)
	assert.Equal(t, []string{"good"}, geneIDs(loc.Find(threeExonTruth())))
}
