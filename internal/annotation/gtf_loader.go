// Package annotation loads gene annotations and genomic sequence into
// genome.GenomicRegion values, one region per sequence name.
package annotation

import (
	"cmp"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"go.uber.org/zap"

	"github.com/inodb/geneval/internal/genome"
)

// Regions maps sequence names to their annotated regions.
type Regions map[string]*genome.GenomicRegion

// GeneCount returns the number of genes over all regions.
func (r Regions) GeneCount() int {
	n := 0
	for _, reg := range r {
		n += reg.GeneCount()
	}
	return n
}

// Names returns the region names in sorted order.
func (r Regions) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GTFLoader loads gene models from GTF or GFF2 files. Features are grouped
// into transcripts and genes by their transcript_id and gene_id tags.
type GTFLoader struct {
	path        string
	exonFeature string
	overrides   CanonicalOverrides
	logger      *zap.Logger
}

// NewGTFLoader creates a new GTF loader reading exon features.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{
		path:        path,
		exonFeature: "exon",
		logger:      zap.NewNop(),
	}
}

// SetExonFeature sets the feature type treated as an exon (e.g. "CDS" to
// compare coding exons only).
func (l *GTFLoader) SetExonFeature(feature string) {
	if feature != "" {
		l.exonFeature = feature
	}
}

// SetCanonicalOverrides sets canonical transcript overrides. An override
// takes precedence over the Ensembl_canonical tag.
func (l *GTFLoader) SetCanonicalOverrides(overrides CanonicalOverrides) {
	l.overrides = overrides
}

// SetLogger sets the logger for skipped features.
func (l *GTFLoader) SetLogger(lg *zap.Logger) {
	if lg == nil {
		lg = zap.NewNop()
	}
	l.logger = lg
}

// Load reads the GTF file. Gzipped files are detected by a .gz suffix.
func (l *GTFLoader) Load() (Regions, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	regions, err := l.Read(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return regions, nil
}

type transcriptBuild struct {
	tx        *genome.Transcript
	canonical bool
	cdsStart  int64
	cdsEnd    int64
}

type geneBuild struct {
	gene        *genome.Gene
	transcripts map[string]*transcriptBuild
	order       []string
}

type geneKey struct {
	seq, id string
}

// Read parses GTF content. Genes keep the order in which they first appear;
// within a gene, the canonical transcript (by override, else by the
// Ensembl_canonical tag) is moved first. Lines that do not parse are skipped
// and logged at debug level; only read errors are returned.
func (l *GTFLoader) Read(r io.Reader) (Regions, error) {
	gr := gff.NewReader(r)

	genes := make(map[geneKey]*geneBuild)
	var geneOrder []geneKey
	skipped, malformed := 0, 0

	for {
		feat, err := gr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read GTF: %w", err)
			}
			malformed++
			l.logger.Debug("skipping malformed GTF line", zap.Int("line", perr.Line), zap.Error(perr.Err))
			continue
		}
		f, ok := feat.(*gff.Feature)
		if !ok {
			continue
		}
		isExon := f.Feature == l.exonFeature
		if !isExon && f.Feature != "transcript" && f.Feature != "CDS" {
			continue
		}

		geneID := attribute(f, "gene_id")
		transcriptID := attribute(f, "transcript_id")
		if geneID == "" || transcriptID == "" {
			skipped++
			continue
		}

		seqName := NormalizeChrom(f.SeqName)
		key := geneKey{seq: seqName, id: geneID}
		gb, ok := genes[key]
		if !ok {
			gb = &geneBuild{
				gene: &genome.Gene{
					ID:      geneID,
					Name:    attribute(f, "gene_name"),
					SeqName: seqName,
					Strand:  parseStrand(f),
				},
				transcripts: make(map[string]*transcriptBuild),
			}
			genes[key] = gb
			geneOrder = append(geneOrder, key)
		}

		tb, ok := gb.transcripts[transcriptID]
		if !ok {
			tb = &transcriptBuild{tx: &genome.Transcript{ID: transcriptID}}
			gb.transcripts[transcriptID] = tb
			gb.order = append(gb.order, transcriptID)
		}
		if hasTag(f, "Ensembl_canonical") {
			tb.canonical = true
		}

		// 1-based inclusive coordinates from the zero-based feature start.
		start, end := int64(f.FeatStart)+1, int64(f.FeatEnd)

		if f.Feature == "CDS" {
			if tb.cdsStart == 0 || start < tb.cdsStart {
				tb.cdsStart = start
			}
			if end > tb.cdsEnd {
				tb.cdsEnd = end
			}
		}
		if isExon {
			e := &genome.Exon{Start: start, End: end}
			if f.FeatScore != nil {
				e.Score = *f.FeatScore
			}
			tb.tx.AddExon(e)
		}
	}
	if malformed > 0 {
		l.logger.Debug("skipped malformed GTF lines", zap.Int("count", malformed))
	}
	if skipped > 0 {
		l.logger.Debug("skipped features without gene_id/transcript_id", zap.Int("count", skipped))
	}

	regions := make(Regions)
	for _, key := range geneOrder {
		g := l.assembleGene(genes[key])
		if g == nil {
			l.logger.Debug("dropping gene without exons", zap.String("gene", key.id))
			continue
		}
		reg, ok := regions[key.seq]
		if !ok {
			reg = genome.NewGenomicRegion(key.seq)
			regions[key.seq] = reg
		}
		reg.AddGene(g)
	}
	return regions, nil
}

// assembleGene sorts exons, attaches translations and sets the gene span.
// It returns nil if no transcript has exons.
func (l *GTFLoader) assembleGene(gb *geneBuild) *genome.Gene {
	g := gb.gene
	withTranslation := l.exonFeature != "CDS"

	override, hasOverride := l.overrides.lookup(g.ID, g.Name)
	rank := func(id string) int {
		switch {
		case hasOverride && stripVersion(id) == override:
			return 2
		case gb.transcripts[id].canonical:
			return 1
		}
		return 0
	}

	order := slices.Clone(gb.order)
	slices.SortStableFunc(order, func(a, b string) int {
		return cmp.Compare(rank(b), rank(a))
	})

	for _, id := range order {
		tb := gb.transcripts[id]
		if len(tb.tx.Exons) == 0 {
			continue
		}
		slices.SortFunc(tb.tx.Exons, func(a, b *genome.Exon) int {
			return cmp.Compare(a.Start, b.Start)
		})
		g.AddTranscript(tb.tx)
		if withTranslation && tb.cdsStart > 0 {
			addTranslation(tb)
		}
	}
	if len(g.Transcripts) == 0 {
		return nil
	}
	g.FitSpan()
	return g
}

// addTranslation converts the genomic CDS bounds of a transcript into a
// translation window in spliced coordinates.
func addTranslation(tb *transcriptBuild) {
	first, ok1 := tb.tx.CDNAPosition(tb.cdsStart)
	last, ok2 := tb.tx.CDNAPosition(tb.cdsEnd)
	if !ok1 || !ok2 {
		return
	}
	tb.tx.AddTranslation(&genome.Translation{Start: min(first, last), End: max(first, last)})
}

// attribute returns the value of a GTF attribute with surrounding quotes removed.
func attribute(f *gff.Feature, tag string) string {
	return strings.Trim(f.FeatAttributes.Get(tag), `"`)
}

// hasTag reports whether any "tag" attribute contains value. GTF repeats the
// tag attribute, so every entry is checked.
func hasTag(f *gff.Feature, value string) bool {
	for _, a := range f.FeatAttributes {
		if a.Tag == "tag" && strings.Contains(a.Value, value) {
			return true
		}
	}
	return false
}

// parseStrand converts the feature strand to +1 or -1.
func parseStrand(f *gff.Feature) int8 {
	if f.FeatStrand < 0 {
		return -1
	}
	return 1
}

// NormalizeChrom normalizes chromosome names by removing "chr" prefix.
// This ensures consistency between truth and prediction files that name
// sequences differently.
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}
