package genome

import "sync"

// Gene is a set of transcripts made from one span of the region. The first
// transcript is the canonical one.
type Gene struct {
	ID          string  // Gene identifier (e.g., ENSG00000133703)
	Name        string  // Display name
	SeqName     string  // Source sequence name
	Score       float64 // Prediction score in bits, if any
	Start       int64   // Gene start (1-based)
	End         int64   // Gene end (1-based, inclusive)
	Strand      int8    // +1 (forward) or -1 (reverse)
	Transcripts []*Transcript

	parent *GenomicRegion

	genomicOnce sync.Once
	genomic     string
	genomicErr  error
}

// IsForwardStrand returns true if the gene is on the forward strand.
func (g *Gene) IsForwardStrand() bool {
	return g.Strand != -1
}

// Reversed returns true if the gene is on the reverse strand.
func (g *Gene) Reversed() bool {
	return g.Strand == -1
}

// Span returns the gene coordinates as a Range.
func (g *Gene) Span() Range {
	return Range{Start: g.Start, End: g.End}
}

// Contains returns true if the given position is within the gene boundaries.
func (g *Gene) Contains(pos int64) bool {
	return g.Span().Contains(pos)
}

// Region returns the region holding the gene, or nil.
func (g *Gene) Region() *GenomicRegion {
	return g.parent
}

// Label returns the ID, falling back to the name.
func (g *Gene) Label() string {
	if g.ID != "" {
		return g.ID
	}
	return g.Name
}

// AddTranscript appends a transcript and sets its parent.
func (g *Gene) AddTranscript(t *Transcript) {
	t.parent = g
	g.Transcripts = append(g.Transcripts, t)
}

// Canonical returns the first transcript, or nil if the gene has none.
func (g *Gene) Canonical() *Transcript {
	if len(g.Transcripts) == 0 {
		return nil
	}
	return g.Transcripts[0]
}

// ExonCount returns the number of exons in the canonical transcript.
func (g *Gene) ExonCount() int {
	if t := g.Canonical(); t != nil {
		return len(t.Exons)
	}
	return 0
}

// IsSimplePrediction reports whether the gene has a single transcript with a
// single translation covering the whole spliced transcript.
func (g *Gene) IsSimplePrediction() bool {
	if len(g.Transcripts) != 1 {
		return false
	}
	t := g.Transcripts[0]
	if len(t.Translations) != 1 {
		return false
	}
	tr := t.Translations[0]
	return tr.Start == 1 && tr.End == t.Length()
}

// Genomic returns the gene's genomic sequence in transcription orientation.
// It is sliced from the region sequence on first use and cached.
func (g *Gene) Genomic() (string, error) {
	g.genomicOnce.Do(func() {
		if g.parent == nil || !g.parent.HasSequence() {
			g.genomicErr = ErrNoSequence
			return
		}
		s, err := slice(g.parent.Sequence, g.Span())
		if err != nil {
			g.genomicErr = err
			return
		}
		if g.Reversed() {
			s = ReverseComplement(s)
		}
		g.genomic = s
	})
	return g.genomic, g.genomicErr
}

// Copy returns a deep copy of the gene, detached from any region. Cached
// sequences are not carried over.
func (g *Gene) Copy() *Gene {
	c := &Gene{
		ID:      g.ID,
		Name:    g.Name,
		SeqName: g.SeqName,
		Score:   g.Score,
		Start:   g.Start,
		End:     g.End,
		Strand:  g.Strand,
	}
	for _, t := range g.Transcripts {
		nt := &Transcript{ID: t.ID}
		for _, e := range t.Exons {
			ne := *e
			nt.AddExon(&ne)
		}
		for _, tr := range t.Translations {
			nt.AddTranslation(&Translation{Start: tr.Start, End: tr.End})
		}
		c.AddTranscript(nt)
	}
	return c
}
