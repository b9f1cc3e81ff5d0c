// Package evaluate scores a predicted gene annotation against a truth
// annotation of the same region, exon by exon.
package evaluate

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/geneval/internal/genome"
)

// Evaluator compares truth and test regions.
type Evaluator struct {
	strand  StrandPolicy
	match   MatchPolicy
	workers int
	logger  *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStrandPolicy sets how opposite-strand pairs are scored.
func WithStrandPolicy(p StrandPolicy) Option {
	return func(e *Evaluator) { e.strand = p }
}

// WithMatchPolicy sets how a truth exon chooses among overlapping test exons.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(e *Evaluator) { e.match = p }
}

// WithWorkers sets the number of workers truth genes are sharded across.
// 1 compares sequentially; 0 or less uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		e.workers = n
	}
}

// WithLogger sets the logger for warnings about skipped genes and missing input.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.SetLogger(l) }
}

// NewEvaluator creates a sequential evaluator with the default policies.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		strand:  StrandMismatch,
		match:   MatchFirstByPosition,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLogger sets the logger for warning and info messages.
func (e *Evaluator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	e.logger = l
}

// ComparePair scores one truth gene against one test gene, applying the
// strand policy. A nil test gene scores the truth gene as fully missed.
// A nil truth gene is logged and yields nil.
func (e *Evaluator) ComparePair(truth, test *genome.Gene) *OverlapGene {
	if truth == nil {
		e.logger.Warn("compare pair called without a truth gene")
		return nil
	}
	if test != nil && truth.Reversed() != test.Reversed() && e.strand == StrandMismatch {
		return mismatchGenes(truth, test)
	}
	return MatchGenes(truth, test, e.match)
}

// CompareGene scores a truth gene against every overlapping test gene found
// by loc. A truth gene with no overlap yields a single entry with no test gene.
// Malformed truth genes are returned as an error and produce no entries.
func (e *Evaluator) CompareGene(truth *genome.Gene, loc *Locator) ([]*OverlapGene, error) {
	if truth == nil {
		return nil, ErrNilGene
	}
	if err := truth.Validate(); err != nil {
		return nil, err
	}

	matches := loc.Find(truth)
	if len(matches) == 0 {
		return []*OverlapGene{MatchGenes(truth, nil, e.match)}, nil
	}

	genes := make([]*OverlapGene, 0, len(matches))
	for _, test := range matches {
		genes = append(genes, e.ComparePair(truth, test))
	}
	return genes, nil
}

// Compare scores every gene of the truth region against the test region.
// Entries follow truth gene order, then test gene order within a truth gene.
// Malformed genes in either region are skipped and listed in Failures.
// If either region is missing the call is logged and returns nil.
func (e *Evaluator) Compare(truth, test *genome.GenomicRegion) *OverlapResults {
	if truth == nil || test == nil {
		e.logger.Warn("compare called with a missing region",
			zap.Bool("truth_missing", truth == nil),
			zap.Bool("test_missing", test == nil),
			zap.Error(ErrNilRegion))
		return nil
	}

	loc := NewLocator(test)
	res := &OverlapResults{TruthGeneCount: len(truth.Genes)}

	for _, f := range loc.Rejected() {
		e.logger.Warn("skipping malformed test gene",
			zap.String("region", test.Name),
			zap.String("gene", geneLabel(f.Gene)),
			zap.Error(f.Err))
		res.Failures = append(res.Failures, f)
	}

	collect := func(r WorkResult) {
		if r.Err != nil {
			e.logger.Warn("skipping malformed truth gene",
				zap.String("region", truth.Name),
				zap.String("gene", geneLabel(r.Truth)),
				zap.Error(r.Err))
			res.Failures = append(res.Failures, GeneFailure{Gene: r.Truth, Err: r.Err})
			return
		}
		for _, og := range r.Genes {
			if og.Test != nil {
				res.GeneOverlap++
				break
			}
		}
		res.Genes = append(res.Genes, r.Genes...)
	}

	if e.workers > 1 && len(truth.Genes) > 1 {
		items := make(chan WorkItem, 2*e.workers)
		go func() {
			defer close(items)
			for i, g := range truth.Genes {
				items <- WorkItem{Seq: i, Truth: g}
			}
		}()
		OrderedCollect(e.ParallelCompare(items, loc, e.workers), collect)
	} else {
		for i, g := range truth.Genes {
			collect(e.compareItem(loc, WorkItem{Seq: i, Truth: g}))
		}
	}

	e.logger.Debug("compared region",
		zap.String("region", truth.Name),
		zap.Int("truth_genes", res.TruthGeneCount),
		zap.Int("gene_overlap", res.GeneOverlap),
		zap.Int("failures", len(res.Failures)))

	return res
}

// CompareRegions compares every truth region with the test region of the same
// name, in sorted name order. A truth region without a test counterpart is
// compared against an empty region. Cancellation is checked between regions.
func (e *Evaluator) CompareRegions(ctx context.Context, truth, test map[string]*genome.GenomicRegion) ([]*RegionResult, error) {
	names := make([]string, 0, len(truth))
	for name := range truth {
		names = append(names, name)
	}
	sort.Strings(names)

	for name, r := range test {
		if _, ok := truth[name]; !ok && r != nil {
			e.logger.Info("test region has no truth counterpart",
				zap.String("region", name),
				zap.Int("genes", r.GeneCount()))
		}
	}

	out := make([]*RegionResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		t := test[name]
		if t == nil {
			t = genome.NewGenomicRegion(name)
		}
		res := e.Compare(truth[name], t)
		if res == nil {
			continue
		}
		out = append(out, &RegionResult{SeqName: name, Results: res})
	}
	return out, nil
}

func geneLabel(g *genome.Gene) string {
	if g == nil {
		return "<nil>"
	}
	return g.Label()
}
