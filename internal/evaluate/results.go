package evaluate

import "github.com/inodb/geneval/internal/genome"

// ExonClass is the outcome assigned to a single exon in a gene comparison.
type ExonClass int

const (
	ExonPerfect ExonClass = iota
	ExonTruncated
	ExonPartial
	ExonMissedInternal
	ExonMissedExternal
	ExonMispredicted
)

var exonClassNames = [...]string{
	ExonPerfect:        "perfect",
	ExonTruncated:      "truncated",
	ExonPartial:        "partial",
	ExonMissedInternal: "missed_internal",
	ExonMissedExternal: "missed_external",
	ExonMispredicted:   "mispredicted",
}

func (c ExonClass) String() string {
	if c < 0 || int(c) >= len(exonClassNames) {
		return "unknown"
	}
	return exonClassNames[c]
}

// Counts holds the six exon counters of one gene comparison.
type Counts struct {
	Perfect        int `yaml:"exon_perfect"`
	Truncated      int `yaml:"exon_truncated"`
	Partial        int `yaml:"exon_partial"`
	MissedInternal int `yaml:"exon_missed_internal"`
	MissedExternal int `yaml:"exon_missed_external"`
	Mispredicted   int `yaml:"exon_mispredicted"`
}

func (c *Counts) add(class ExonClass) {
	switch class {
	case ExonPerfect:
		c.Perfect++
	case ExonTruncated:
		c.Truncated++
	case ExonPartial:
		c.Partial++
	case ExonMissedInternal:
		c.MissedInternal++
	case ExonMissedExternal:
		c.MissedExternal++
	case ExonMispredicted:
		c.Mispredicted++
	}
}

// Plus returns the element-wise sum of c and o.
func (c Counts) Plus(o Counts) Counts {
	return Counts{
		Perfect:        c.Perfect + o.Perfect,
		Truncated:      c.Truncated + o.Truncated,
		Partial:        c.Partial + o.Partial,
		MissedInternal: c.MissedInternal + o.MissedInternal,
		MissedExternal: c.MissedExternal + o.MissedExternal,
		Mispredicted:   c.Mispredicted + o.Mispredicted,
	}
}

// Matched returns the number of truth exons paired with a test exon.
func (c Counts) Matched() int {
	return c.Perfect + c.Truncated + c.Partial
}

// TruthExons returns the number of truth exons accounted for.
func (c Counts) TruthExons() int {
	return c.Matched() + c.MissedInternal + c.MissedExternal
}

// TestExons returns the number of test exons accounted for.
func (c Counts) TestExons() int {
	return c.Matched() + c.Mispredicted
}

// Sensitivity is the fraction of truth exons predicted exactly.
func (c Counts) Sensitivity() float64 {
	if n := c.TruthExons(); n > 0 {
		return float64(c.Perfect) / float64(n)
	}
	return 0
}

// Specificity is the fraction of test exons that are exact.
func (c Counts) Specificity() float64 {
	if n := c.TestExons(); n > 0 {
		return float64(c.Perfect) / float64(n)
	}
	return 0
}

// Terminus describes where an exon sits in its transcript, in transcription
// orientation.
type Terminus int

const (
	TerminusInternal Terminus = iota
	TerminusFivePrime
	TerminusThreePrime
	TerminusBoth // single-exon transcript
)

func (t Terminus) String() string {
	switch t {
	case TerminusFivePrime:
		return "5'"
	case TerminusThreePrime:
		return "3'"
	case TerminusBoth:
		return "5'/3'"
	}
	return "internal"
}

// ExonMatch records the outcome for one exon. Truth is nil for a
// mispredicted test exon; Test is nil for a missed truth exon.
type ExonMatch struct {
	Truth    *genome.Exon
	Test     *genome.Exon
	Class    ExonClass
	Terminus Terminus
}

// OverlapGene is the comparison of one truth gene against one overlapping
// test gene, or against nothing when Test is nil.
type OverlapGene struct {
	Truth *genome.Gene
	Test  *genome.Gene
	Counts
	Exons []ExonMatch
}

// GeneFailure records a gene that could not be compared because its
// structure is malformed.
type GeneFailure struct {
	Gene *genome.Gene
	Err  error
}

// OverlapResults is the comparison of a truth region against a test region.
type OverlapResults struct {
	Genes          []*OverlapGene
	GeneOverlap    int
	TruthGeneCount int
	Failures       []GeneFailure
}

// Totals returns the counters summed over every entry.
func (r *OverlapResults) Totals() Counts {
	var c Counts
	for _, og := range r.Genes {
		c = c.Plus(og.Counts)
	}
	return c
}

// MatchedEntries returns the number of entries with a present test gene.
func (r *OverlapResults) MatchedEntries() int {
	n := 0
	for _, og := range r.Genes {
		if og.Test != nil {
			n++
		}
	}
	return n
}

// RegionResult pairs a sequence name with its comparison.
type RegionResult struct {
	SeqName string
	Results *OverlapResults
}
