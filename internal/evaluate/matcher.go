package evaluate

import "github.com/inodb/geneval/internal/genome"

// MatchGenes classifies every exon of the canonical transcripts of a truth
// gene and a span-overlapping test gene.
//
// Truth exons are visited in ascending order. Each one consumes at most one
// unconsumed overlapping test exon, chosen by policy, and is scored perfect,
// truncated or partial; a truth exon with no partner is missed, internal or
// external by its position. Test exons left unconsumed are mispredicted.
//
// A nil test gene scores every truth exon as missed. Both genes are expected
// to pass genome.Gene.Validate; neither is modified.
func MatchGenes(truth, test *genome.Gene, policy MatchPolicy) *OverlapGene {
	if truth == nil {
		return nil
	}
	og := &OverlapGene{Truth: truth, Test: test}

	truthExons := canonicalExons(truth)
	testExons := canonicalExons(test)
	n := len(truthExons)

	consumed := make([]bool, len(testExons))
	lo := 0
	for i, te := range truthExons {
		// Truth exons ascend, so test exons ending before this one can never
		// pair with a later truth exon.
		for lo < len(testExons) && (consumed[lo] || testExons[lo].End < te.Start) {
			lo++
		}

		m := ExonMatch{Truth: te, Terminus: TerminusOf(truth, i)}
		if j := pickTestExon(te, testExons, consumed, lo, policy); j >= 0 {
			consumed[j] = true
			m.Test = testExons[j]
			m.Class = classifyPair(te, testExons[j], i, n)
		} else {
			m.Class = missedClass(i, n)
		}
		og.add(m.Class)
		og.Exons = append(og.Exons, m)
	}

	for j, qe := range testExons {
		if consumed[j] {
			continue
		}
		og.add(ExonMispredicted)
		og.Exons = append(og.Exons, ExonMatch{Test: qe, Class: ExonMispredicted, Terminus: TerminusOf(test, j)})
	}
	return og
}

// mismatchGenes scores a pair that cannot be matched exon by exon: every
// truth exon is missed and every test exon mispredicted.
func mismatchGenes(truth, test *genome.Gene) *OverlapGene {
	og := &OverlapGene{Truth: truth, Test: test}
	truthExons := canonicalExons(truth)
	for i, te := range truthExons {
		class := missedClass(i, len(truthExons))
		og.add(class)
		og.Exons = append(og.Exons, ExonMatch{Truth: te, Class: class, Terminus: TerminusOf(truth, i)})
	}
	for j, qe := range canonicalExons(test) {
		og.add(ExonMispredicted)
		og.Exons = append(og.Exons, ExonMatch{Test: qe, Class: ExonMispredicted, Terminus: TerminusOf(test, j)})
	}
	return og
}

func canonicalExons(g *genome.Gene) []*genome.Exon {
	if g == nil {
		return nil
	}
	if t := g.Canonical(); t != nil {
		return t.Exons
	}
	return nil
}

// pickTestExon returns the index of the unconsumed test exon that te should
// consume, or -1. Only exons from index from onwards are considered.
func pickTestExon(te *genome.Exon, exons []*genome.Exon, consumed []bool, from int, policy MatchPolicy) int {
	best, bestLen := -1, int64(0)
	for j := from; j < len(exons); j++ {
		qe := exons[j]
		if qe.Start > te.End {
			break
		}
		if consumed[j] {
			continue
		}
		ov, ok := genome.Intersect(te.Span(), qe.Span())
		if !ok {
			continue
		}
		if policy == MatchFirstByPosition {
			return j
		}
		if ov.Len() > bestLen {
			best, bestLen = j, ov.Len()
		}
	}
	return best
}

// classifyPair scores an overlapping truth/test exon pair. i is the truth
// exon's index among n truth exons.
//
// A pair is truncated when the only matching boundary is a splice boundary
// and the mismatched one is a transcript terminus; any other inexact pair is
// partial.
func classifyPair(te, qe *genome.Exon, i, n int) ExonClass {
	startEq := te.Start == qe.Start
	endEq := te.End == qe.End
	switch {
	case startEq && endEq:
		return ExonPerfect
	case !startEq && !endEq:
		return ExonPartial
	}

	lowIsTerminus := i == 0
	highIsTerminus := i == n-1
	if startEq && !lowIsTerminus && highIsTerminus {
		return ExonTruncated
	}
	if endEq && !highIsTerminus && lowIsTerminus {
		return ExonTruncated
	}
	return ExonPartial
}

func missedClass(i, n int) ExonClass {
	if i == 0 || i == n-1 {
		return ExonMissedExternal
	}
	return ExonMissedInternal
}

// TerminusOf reports the transcript position of exon i of g's canonical
// transcript in transcription orientation. On the reverse strand the
// highest-coordinate exon is the 5' one.
func TerminusOf(g *genome.Gene, i int) Terminus {
	return ExonTerminus(i, g.ExonCount(), g.Reversed())
}

// ExonTerminus returns the role of exon i of n, ordered by ascending
// coordinate, on a transcript of the given strand.
func ExonTerminus(i, n int, reversed bool) Terminus {
	switch {
	case n == 1:
		return TerminusBoth
	case i == 0:
		if reversed {
			return TerminusThreePrime
		}
		return TerminusFivePrime
	case i == n-1:
		if reversed {
			return TerminusFivePrime
		}
		return TerminusThreePrime
	}
	return TerminusInternal
}
