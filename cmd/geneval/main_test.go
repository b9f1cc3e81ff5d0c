package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inodb/geneval/internal/annotation"
)

const truthGTF = `chr1	ref	exon	10	50	.	+	.	gene_id "T1"; transcript_id "T1.1";
chr1	ref	exon	100	150	.	+	.	gene_id "T1"; transcript_id "T1.1";
chr1	ref	exon	500	600	.	+	.	gene_id "T1"; transcript_id "T1.1";
chr1	ref	exon	5000	5100	.	+	.	gene_id "T2"; transcript_id "T2.1";
chr2	ref	exon	10	20	.	-	.	gene_id "T3"; transcript_id "T3.1";
`

const testGTF = `1	pred	exon	10	50	.	+	.	gene_id "P1"; transcript_id "P1.1";
1	pred	exon	100	150	.	+	.	gene_id "P1"; transcript_id "P1.1";
1	pred	exon	500	620	.	+	.	gene_id "P1"; transcript_id "P1.1";
2	pred	exon	10	20	.	-	.	gene_id "P3"; transcript_id "P3.1";
`

// execute runs the root command with a clean viper state and HOME pointed at
// a temporary directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeInputs(t *testing.T) (dir, truth, test string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	truth = filepath.Join(dir, "truth.gtf")
	test = filepath.Join(dir, "test.gtf")
	require.NoError(t, os.WriteFile(truth, []byte(truthGTF), 0644))
	require.NoError(t, os.WriteFile(test, []byte(testGTF), 0644))
	return dir, truth, test
}

func TestVersion(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "geneval dev")
}

func TestCompare_Text(t *testing.T) {
	_, truth, test := writeInputs(t)

	out, err := execute(t, "compare", "--truth", truth, "--test", test)
	require.NoError(t, err)

	assert.Contains(t, out, "Mispredicted")
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) == 9 && f[0] != "Seq" {
			rows = append(rows, f)
		}
	}
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "T1", "P1", "2", "1", "0", "0", "0", "0"}, rows[0])
	assert.Equal(t, []string{"1", "T2", "none", "0", "0", "0", "0", "1", "0"}, rows[1])
	assert.Equal(t, []string{"2", "T3", "P3", "1", "0", "0", "0", "0", "0"}, rows[2])
	assert.Contains(t, out, "2/3")
}

func TestCompare_YAMLToFile(t *testing.T) {
	dir, truth, test := writeInputs(t)
	outFile := filepath.Join(dir, "results.yaml")

	_, err := execute(t, "compare", "--truth", truth, "--test", test, "--format", "yaml", "-o", outFile, "--workers", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0]["seq_name"])
	assert.Equal(t, 1, got[0]["gene_overlap"])
	assert.Equal(t, "2", got[1]["seq_name"])
}

func TestCompare_InvalidPolicy(t *testing.T) {
	_, truth, test := writeInputs(t)

	_, err := execute(t, "compare", "--truth", truth, "--test", test, "--strand-policy", "flip")
	assert.Error(t, err)

	_, err = execute(t, "compare", "--truth", truth, "--test", test, "--format", "xml")
	assert.Error(t, err)
}

func TestCompare_MissingInput(t *testing.T) {
	dir, truth, _ := writeInputs(t)

	_, err := execute(t, "compare", "--truth", truth, "--test", filepath.Join(dir, "absent.gtf"))
	assert.Error(t, err)

	_, err = execute(t, "compare", "--truth", truth)
	assert.Error(t, err, "--test is required")
}

func TestCompare_StoreAndRuns(t *testing.T) {
	dir, truth, test := writeInputs(t)
	db := filepath.Join(dir, "results.duckdb")

	_, err := execute(t, "compare", "--truth", truth, "--test", test, "--db", db, "--run-id", "r1")
	require.NoError(t, err)

	out, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "Gene_Overlap")

	out, err = execute(t, "runs", "--db", db, "--run-id", "r1")
	require.NoError(t, err)
	assert.Contains(t, out, "truth: "+truth)
	assert.Contains(t, out, "test: "+test)

	out, err = execute(t, "runs", "--db", db, "--run-id", "r1", "--genes")
	require.NoError(t, err)
	assert.Contains(t, out, "T2")
	assert.Contains(t, out, "none")

	_, err = execute(t, "runs", "--db", db, "--genes")
	assert.Error(t, err)

	out, err = execute(t, "runs", "delete", "r1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run r1")

	out, err = execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, out, "r1")
}

func TestCompare_RegionCache(t *testing.T) {
	dir, truth, test := writeInputs(t)
	cacheDir := filepath.Join(dir, "cache")

	first, err := execute(t, "compare", "--truth", truth, "--test", test, "--cache-dir", cacheDir)
	require.NoError(t, err)
	cached, err := filepath.Glob(filepath.Join(cacheDir, "*.gob"))
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	second, err := execute(t, "compare", "--truth", truth, "--test", test, "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestShow_GFF(t *testing.T) {
	_, truth, _ := writeInputs(t)

	out, err := execute(t, "show", "--gtf", truth, "--format", "gff", "--seq", "chr1")
	require.NoError(t, err)

	regions, err := annotation.NewGTFLoader("").Read(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, regions.Names())
	assert.Equal(t, 2, regions.GeneCount())

	_, err = execute(t, "show", "--gtf", truth, "--seq", "chrX")
	assert.Error(t, err)
}

func TestShow_Text(t *testing.T) {
	_, truth, _ := writeInputs(t)

	out, err := execute(t, "show", "--gtf", truth)
	require.NoError(t, err)
	assert.Contains(t, out, "region 1")
	assert.Contains(t, out, "region 2")
	assert.Contains(t, out, "T1.1")
}

func TestConfig_SetGet(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "No configuration set")

	out, err = execute(t, "config", "set", "compare.match-policy", "max-overlap")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, ".geneval.yaml"))

	out, err = execute(t, "config", "get", "compare.match-policy")
	require.NoError(t, err)
	assert.Equal(t, "max-overlap", strings.TrimSpace(out))

	_, err = execute(t, "config", "get", "no.such.key")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	lg, err := newLogger("debug", "json")
	require.NoError(t, err)
	assert.NotNil(t, lg)

	lg, err = newLogger("warn", "")
	require.NoError(t, err)
	assert.NotNil(t, lg)

	_, err = newLogger("loud", "console")
	assert.Error(t, err)

	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}

func TestSetting_ConfigFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".geneval.yaml"), []byte("compare:\n  format: bogus\n"), 0644))
	_, truth, test := writeInputs(t)
	t.Setenv("HOME", dir)

	_, err := execute(t, "compare", "--truth", truth, "--test", test)
	assert.Error(t, err, "format from the config file is used")

	_, err = execute(t, "compare", "--truth", truth, "--test", test, "--format", "text")
	assert.NoError(t, err, "flag overrides the config file")
}

func TestCompare_CanonicalOverrides(t *testing.T) {
	dir, truth, test := writeInputs(t)
	overrides := filepath.Join(dir, "canonical.tsv")
	require.NoError(t, os.WriteFile(overrides, []byte("gene\ttranscript\nT1\tT1.1\n"), 0644))

	out, err := execute(t, "compare", "--truth", truth, "--test", test, "--canonical", overrides)
	require.NoError(t, err)
	assert.Contains(t, out, "2/3")

	_, err = execute(t, "show", "--gtf", truth, "--canonical", filepath.Join(dir, "absent.tsv"))
	assert.Error(t, err)
}

func TestCompare_RegionCacheSameFileName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	truth := filepath.Join(dir, "ref", "genes.gtf")
	test := filepath.Join(dir, "pred", "genes.gtf")
	require.NoError(t, os.MkdirAll(filepath.Dir(truth), 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(test), 0755))
	require.NoError(t, os.WriteFile(truth, []byte(truthGTF), 0644))
	require.NoError(t, os.WriteFile(test, []byte(testGTF), 0644))
	cacheDir := filepath.Join(dir, "cache")

	uncached, err := execute(t, "compare", "--truth", truth, "--test", test)
	require.NoError(t, err)

	for range 2 {
		out, err := execute(t, "compare", "--truth", truth, "--test", test, "--cache-dir", cacheDir)
		require.NoError(t, err)
		assert.Equal(t, uncached, out)
	}
	cached, err := filepath.Glob(filepath.Join(cacheDir, "genes.gtf-*.gob"))
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestConfig_SetValidates(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfgFile := filepath.Join(dir, ".geneval.yaml")

	for _, args := range [][]string{
		{"compare.strand-policy", "flip"},
		{"compare.match-policy", "longest"},
		{"compare.format", "xml"},
		{"compare.workers", "-2"},
		{"log.level", "loud"},
		{"no.such.key", "x"},
	} {
		_, err := execute(t, "config", "set", args[0], args[1])
		assert.Error(t, err, "config set %s %s", args[0], args[1])
	}
	assert.NoFileExists(t, cfgFile, "rejected values are not written")

	_, err := execute(t, "config", "set", "compare.match-policy", "MAX_OVERLAP")
	require.NoError(t, err)
	out, err := execute(t, "config", "get", "compare.match-policy")
	require.NoError(t, err)
	assert.Equal(t, "max-overlap", strings.TrimSpace(out), "stored in normalized form")

	out, err = execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "compare.strand-policy")
	assert.Contains(t, out, "max-overlap")
}
