// Package report renders comparison results and annotated regions.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inodb/geneval/internal/evaluate"
	"github.com/inodb/geneval/internal/genome"
)

const noTest = "none"

type regionSummary struct {
	seq         string
	truthGenes  int
	geneOverlap int
	failures    int
}

// TextWriter writes one tab-aligned row per gene comparison and keeps the
// totals needed for the summary.
type TextWriter struct {
	w       *tabwriter.Writer
	regions []regionSummary
	totals  evaluate.Counts
}

// NewTextWriter creates a new text report writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{
		w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes the column header.
func (t *TextWriter) WriteHeader() error {
	_, err := fmt.Fprintln(t.w, "Seq\tTruth\tTest\tPerfect\tTruncated\tPartial\tMissed_Int\tMissed_Ext\tMispredicted")
	return err
}

// WriteRegion writes a row for every entry of a region comparison.
func (t *TextWriter) WriteRegion(rr *evaluate.RegionResult) error {
	if rr == nil || rr.Results == nil {
		return nil
	}
	res := rr.Results
	for _, og := range res.Genes {
		testID := noTest
		if og.Test != nil {
			testID = og.Test.Label()
		}
		c := og.Counts
		if _, err := fmt.Fprintf(t.w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			rr.SeqName,
			og.Truth.Label(),
			testID,
			c.Perfect,
			c.Truncated,
			c.Partial,
			c.MissedInternal,
			c.MissedExternal,
			c.Mispredicted,
		); err != nil {
			return err
		}
	}

	t.totals = t.totals.Plus(res.Totals())
	t.regions = append(t.regions, regionSummary{
		seq:         rr.SeqName,
		truthGenes:  res.TruthGeneCount,
		geneOverlap: res.GeneOverlap,
		failures:    len(res.Failures),
	})
	return nil
}

// Flush flushes the writer.
func (t *TextWriter) Flush() error {
	return t.w.Flush()
}

// Totals returns the exon counters summed over every written region.
func (t *TextWriter) Totals() evaluate.Counts {
	return t.totals
}

// printer remembers the first write error and drops output after it.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

// WriteSummary writes the per-region gene overlap and the exon totals. It
// returns the first write error.
func (t *TextWriter) WriteSummary(w io.Writer) error {
	var truthGenes, overlap, failures int
	p := &printer{w: w}

	p.printf("\nGene Overlap:\n")
	for _, r := range t.regions {
		p.printf("  %-16s %d/%d\n", r.seq, r.geneOverlap, r.truthGenes)
		truthGenes += r.truthGenes
		overlap += r.geneOverlap
		failures += r.failures
	}
	p.printf("  %-16s %d/%d\n", "total", overlap, truthGenes)

	c := t.totals
	p.printf("\nExon Summary:\n")
	p.printf("  Perfect:          %d\n", c.Perfect)
	p.printf("  Truncated:        %d\n", c.Truncated)
	p.printf("  Partial:          %d\n", c.Partial)
	p.printf("  Missed internal:  %d\n", c.MissedInternal)
	p.printf("  Missed external:  %d\n", c.MissedExternal)
	p.printf("  Mispredicted:     %d\n", c.Mispredicted)
	p.printf("  Sensitivity:      %.1f%%\n", c.Sensitivity()*100)
	p.printf("  Specificity:      %.1f%%\n", c.Specificity()*100)
	if failures > 0 {
		p.printf("  Malformed genes:  %d\n", failures)
	}
	return p.err
}

// WriteRegionText writes a human-readable dump of a region: one line per
// gene, transcript and exon.
func WriteRegionText(w io.Writer, reg *genome.GenomicRegion) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := &printer{w: tw}
	p.printf("region %s\tgenes=%d\n", reg.Name, reg.GeneCount())
	for _, g := range reg.Genes {
		strand := "+"
		if g.Reversed() {
			strand = "-"
		}
		p.printf("gene\t%s\t%d\t%d\t%s\t%s\n", g.Label(), g.Start, g.End, strand, g.Name)
		for _, tx := range g.Transcripts {
			p.printf("  transcript\t%s\t%d exons\tlength=%d\n", tx.ID, len(tx.Exons), tx.Length())
			for i, e := range tx.Exons {
				p.printf("    exon\t%d\t%d\t%d\t%s\n", i+1, e.Start, e.End, evaluate.ExonTerminus(i, len(tx.Exons), g.Reversed()))
			}
			for _, tr := range tx.Translations {
				p.printf("    translation\t%d\t%d\n", tr.Start, tr.End)
			}
		}
	}
	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}
