package report

import (
	"fmt"
	"io"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"

	"github.com/inodb/geneval/internal/genome"
)

// WriteGFF renders the genes of regions as GFF2: a gene line per gene and
// an exon line per exon of every transcript, tagged with gene_id and
// transcript_id so the output loads back with annotation.GTFLoader.
func WriteGFF(w io.Writer, source string, regions ...*genome.GenomicRegion) error {
	if source == "" {
		source = "geneval"
	}
	gw := gff.NewWriter(w, 60, true)
	for _, reg := range regions {
		if reg == nil {
			continue
		}
		if err := writeRegionGFF(gw, reg, source); err != nil {
			return err
		}
	}
	return nil
}

func writeRegionGFF(gw *gff.Writer, reg *genome.GenomicRegion, source string) error {
	for _, g := range reg.Genes {
		strand := seq.Plus
		if g.Reversed() {
			strand = seq.Minus
		}

		geneLine := &gff.Feature{
			SeqName:    reg.Name,
			Source:     source,
			Feature:    "gene",
			FeatStart:  int(g.Start - 1),
			FeatEnd:    int(g.End),
			FeatStrand: strand,
			FeatFrame:  gff.NoFrame,
			FeatAttributes: gff.Attributes{
				{Tag: "gene_id", Value: quote(g.ID)},
			},
		}
		if g.Name != "" && g.Name != g.ID {
			geneLine.FeatAttributes = append(geneLine.FeatAttributes, gff.Attribute{Tag: "gene_name", Value: quote(g.Name)})
		}
		if _, err := gw.Write(geneLine); err != nil {
			return fmt.Errorf("write gene %s: %w", g.Label(), err)
		}

		for _, tx := range g.Transcripts {
			for _, e := range tx.Exons {
				f := &gff.Feature{
					SeqName:    reg.Name,
					Source:     source,
					Feature:    "exon",
					FeatStart:  int(e.Start - 1),
					FeatEnd:    int(e.End),
					FeatStrand: strand,
					FeatFrame:  gff.NoFrame,
					FeatAttributes: gff.Attributes{
						{Tag: "gene_id", Value: quote(g.ID)},
						{Tag: "transcript_id", Value: quote(tx.ID)},
					},
				}
				if e.Score != 0 {
					score := e.Score
					f.FeatScore = &score
				}
				if _, err := gw.Write(f); err != nil {
					return fmt.Errorf("write exon of %s: %w", tx.ID, err)
				}
			}
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
