package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/geneval/internal/evaluate"
	"github.com/inodb/geneval/internal/genome"
)

type r = genome.Range

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(t *testing.T) []*evaluate.RegionResult {
	t.Helper()
	truth := genome.NewGenomicRegion("1")
	truth.AddGene(genome.NewGene("T1", 1, r{Start: 10, End: 50}, r{Start: 100, End: 150}, r{Start: 500, End: 600}))
	truth.AddGene(genome.NewGene("T2", 1, r{Start: 5000, End: 5100}))

	test := genome.NewGenomicRegion("1")
	test.AddGene(genome.NewGene("P1", 1, r{Start: 10, End: 50}, r{Start: 100, End: 150}, r{Start: 500, End: 620}))

	out, err := evaluate.NewEvaluator().CompareRegions(t.Context(),
		map[string]*genome.GenomicRegion{"1": truth, "2": syntheticRegion("2")},
		map[string]*genome.GenomicRegion{"1": test, "2": syntheticRegion("2")})
	require.NoError(t, err)
	return out
}

func syntheticRegion(name string) *genome.GenomicRegion {
	reg := genome.NewGenomicRegion(name)
	reg.AddGene(genome.NewGene("S1", -1, r{Start: 10, End: 20}, r{Start: 40, End: 60}))
	return reg
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestWriteAndLookupRun(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()

	require.NoError(t, s.WriteRun(ctx, "run1", sampleRun(t)))

	rows, err := s.LookupRun(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0].SeqName)
	assert.Equal(t, "T1", rows[0].TruthGene)
	assert.Equal(t, "P1", rows[0].TestGene)
	assert.Equal(t, evaluate.Counts{Perfect: 2, Truncated: 1}, rows[0].Counts)

	assert.Equal(t, "T2", rows[1].TruthGene)
	assert.Empty(t, rows[1].TestGene, "missing test gene is stored as empty")
	assert.Equal(t, evaluate.Counts{MissedExternal: 1}, rows[1].Counts)

	assert.Equal(t, "2", rows[2].SeqName)
	assert.Equal(t, evaluate.Counts{Perfect: 2}, rows[2].Counts)

	rows, err = s.LookupRun(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLookupGene(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()
	require.NoError(t, s.WriteRun(ctx, "run1", sampleRun(t)))

	rows, err := s.LookupGene(ctx, "run1", "T1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P1", rows[0].TestGene)
}

func TestRunSummaries(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()
	require.NoError(t, s.WriteRun(ctx, "b", sampleRun(t)))
	require.NoError(t, s.WriteRun(ctx, "a", sampleRun(t)))

	sums, err := s.RunSummaries(ctx, "b")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, RunSummary{RunID: "b", SeqName: "1", TruthGenes: 2, GeneOverlap: 1}, sums[0])
	assert.Equal(t, RunSummary{RunID: "b", SeqName: "2", TruthGenes: 1, GeneOverlap: 1}, sums[1])

	all, err := s.RunSummaries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	ids, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestWriteRun_Replaces(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()
	require.NoError(t, s.WriteRun(ctx, "run1", sampleRun(t)))
	require.NoError(t, s.WriteRun(ctx, "run1", sampleRun(t)))

	rows, err := s.LookupRun(ctx, "run1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDeleteAndClear(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()
	require.NoError(t, s.WriteRun(ctx, "a", sampleRun(t)))
	require.NoError(t, s.WriteRun(ctx, "b", sampleRun(t)))

	require.NoError(t, s.DeleteRun(ctx, "a"))
	ids, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	require.NoError(t, s.Clear())
	ids, err = s.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecordInputs(t *testing.T) {
	s := openInMemory(t)
	ctx := t.Context()

	path := filepath.Join(t.TempDir(), "truth.gtf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fp.Size)

	require.NoError(t, s.RecordInputs(ctx, "run1",
		RunInput{Role: "truth", FileFingerprint: fp},
		RunInput{Role: "test", FileFingerprint: FileFingerprint{Path: "p.gtf", Size: 7, ModTime: time.Unix(0, 0)}},
	))

	inputs, err := s.Inputs(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "test", inputs[0].Role)
	assert.Equal(t, "p.gtf", inputs[0].Path)
	assert.Equal(t, "truth", inputs[1].Role)
	assert.Equal(t, path, inputs[1].Path)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReopenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "results.duckdb")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(t.Context(), "run1", sampleRun(t)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.LookupRun(t.Context(), "run1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRegionCacheWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	rc := NewRegionCache(dir)

	src := FileFingerprint{Path: "/data/truth.gtf", Size: 1234, ModTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	reg := genome.NewGenomicRegion("7")
	g := genome.NewGene("G1", -1, r{Start: 10, End: 50}, r{Start: 100, End: 150})
	g.Canonical().AddTranslation(&genome.Translation{Start: 5, End: 60})
	reg.AddGene(g)

	assert.False(t, rc.Valid(src, "exon"))
	require.NoError(t, rc.Write(map[string]*genome.GenomicRegion{"7": reg}, src, "exon"))
	assert.True(t, rc.Valid(src, "exon"))
	assert.False(t, rc.Valid(src, "CDS"), "different exon feature invalidates")

	changed := src
	changed.Size++
	assert.False(t, rc.Valid(changed, "exon"))

	loaded, err := rc.Load(src, "exon")
	require.NoError(t, err)
	require.Contains(t, loaded, "7")

	back := loaded["7"]
	require.Equal(t, 1, back.GeneCount())
	bg := back.Genes[0]
	assert.Equal(t, "G1", bg.ID)
	assert.True(t, bg.Reversed())
	assert.Equal(t, g.Span(), bg.Span())
	assert.Same(t, back, bg.Region(), "parent links restored")
	tx := bg.Canonical()
	assert.Same(t, bg, tx.Gene())
	require.Len(t, tx.Translations, 1)
	assert.Same(t, tx, tx.Translations[0].Transcript())

	rc.Clear(src)
	assert.False(t, rc.Valid(src, "exon"))
}

func TestRegionCache_SameBaseName(t *testing.T) {
	dir := t.TempDir()
	rc := NewRegionCache(filepath.Join(dir, "cache"))
	modTime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	truthSrc := FileFingerprint{Path: filepath.Join(dir, "ref", "genes.gtf"), Size: 100, ModTime: modTime}
	testSrc := FileFingerprint{Path: filepath.Join(dir, "pred", "genes.gtf"), Size: 100, ModTime: modTime}
	assert.NotEqual(t, rc.gobPath(truthSrc), rc.gobPath(testSrc))

	regionWith := func(id string) map[string]*genome.GenomicRegion {
		reg := genome.NewGenomicRegion("1")
		reg.AddGene(genome.NewGene(id, 1, r{Start: 10, End: 50}))
		return map[string]*genome.GenomicRegion{"1": reg}
	}
	require.NoError(t, rc.Write(regionWith("TRUTH"), truthSrc, "exon"))
	require.NoError(t, rc.Write(regionWith("TEST"), testSrc, "exon"))

	for src, want := range map[FileFingerprint]string{truthSrc: "TRUTH", testSrc: "TEST"} {
		require.True(t, rc.Valid(src, "exon"))
		loaded, err := rc.Load(src, "exon")
		require.NoError(t, err)
		assert.Equal(t, want, loaded["1"].Genes[0].ID)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temporary files left behind")
}

func TestRegionCache_LoadChecksPayload(t *testing.T) {
	dir := t.TempDir()
	rc := NewRegionCache(dir)
	src := FileFingerprint{Path: filepath.Join(dir, "genes.gtf"), Size: 10, ModTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	reg := genome.NewGenomicRegion("1")
	reg.AddGene(genome.NewGene("G", 1, r{Start: 10, End: 50}))
	require.NoError(t, rc.Write(map[string]*genome.GenomicRegion{"1": reg}, src, "exon"))

	_, err := rc.Load(src, "CDS")
	assert.Error(t, err, "exon feature recorded in the data file must match")

	grown := src
	grown.Size = 11
	_, err = rc.Load(grown, "exon")
	assert.Error(t, err, "size recorded in the data file must match")
}
