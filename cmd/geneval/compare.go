package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/geneval/internal/evaluate"
	"github.com/inodb/geneval/internal/report"
	"github.com/inodb/geneval/internal/store"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a predicted annotation against a truth annotation",
		Long: `Compare every gene of the truth annotation against the overlapping genes of the
test annotation and classify each exon. Sequences are matched by name, with any
"chr" prefix removed.`,
		Example: `  geneval compare --truth gencode.gtf.gz --test predicted.gtf
  geneval compare --truth ref.gtf --test pred.gtf --strand-policy ignore --workers 8
  geneval compare --truth ref.gtf --test pred.gtf --db results.duckdb --run-id augustus-v3`,
		Args: cobra.NoArgs,
		RunE: runCompare,
	}

	flags := cmd.Flags()
	flags.String("truth", "", "truth annotation (GTF/GFF2, optionally gzipped)")
	flags.String("test", "", "predicted annotation (GTF/GFF2, optionally gzipped)")
	flags.String("fasta", "", "genome FASTA attached to both annotations")
	flags.StringP("format", "f", "text", "output format: text, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("strand-policy", "mismatch", "opposite-strand pairs: mismatch, ignore")
	flags.String("match-policy", "first", "overlapping test exons: first, max-overlap")
	flags.Int("workers", 1, "workers comparing genes in parallel (0 = all CPUs)")
	flags.String("exon-feature", "exon", "GTF feature type read as exons (e.g. CDS)")
	flags.String("cache-dir", "", "directory for parsed annotation caches")
	flags.String("canonical", "", "TSV of canonical transcript overrides (gene, transcript)")
	flags.String("db", "", "DuckDB file to store results in")
	flags.String("run-id", "", "run ID for stored results (default: UTC timestamp)")
	cmd.MarkFlagRequired("truth")
	cmd.MarkFlagRequired("test")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	logger, err := commandLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	truthPath, _ := cmd.Flags().GetString("truth")
	testPath, _ := cmd.Flags().GetString("test")
	fastaPath, _ := cmd.Flags().GetString("fasta")
	outputFile, _ := cmd.Flags().GetString("output")
	runID, _ := cmd.Flags().GetString("run-id")

	format := setting(cmd, "format", "compare.format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unsupported output format %q (want text or yaml)", format)
	}
	strandPolicy, err := evaluate.ParseStrandPolicy(setting(cmd, "strand-policy", "compare.strand-policy"))
	if err != nil {
		return err
	}
	matchPolicy, err := evaluate.ParseMatchPolicy(setting(cmd, "match-policy", "compare.match-policy"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	opts := loadOptions{
		exonFeature: setting(cmd, "exon-feature", "compare.exon-feature"),
		cacheDir:    setting(cmd, "cache-dir", "compare.cache-dir"),
		logger:      logger,
	}
	if err := opts.withCanonical(setting(cmd, "canonical", "compare.canonical")); err != nil {
		return err
	}

	start := time.Now()
	truth, test, err := loadInputs(ctx, truthPath, testPath, fastaPath, opts)
	if err != nil {
		return err
	}
	logger.Info("inputs loaded",
		zap.Int("truth_genes", truth.GeneCount()),
		zap.Int("test_genes", test.GeneCount()),
		zap.Duration("elapsed", time.Since(start)))

	workers, err := strconv.Atoi(setting(cmd, "workers", "compare.workers"))
	if err != nil {
		return fmt.Errorf("invalid worker count: %w", err)
	}

	ev := evaluate.NewEvaluator(
		evaluate.WithStrandPolicy(strandPolicy),
		evaluate.WithMatchPolicy(matchPolicy),
		evaluate.WithWorkers(workers),
		evaluate.WithLogger(logger),
	)
	results, err := ev.CompareRegions(ctx, truth, test)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeResults(out, format, results); err != nil {
		return err
	}

	if dbPath := setting(cmd, "db", "compare.db"); dbPath != "" {
		if runID == "" {
			runID = time.Now().UTC().Format("20060102T150405Z")
		}
		if err := storeRun(ctx, dbPath, runID, results, truthPath, testPath, fastaPath); err != nil {
			return err
		}
		logger.Info("stored results", zap.String("db", dbPath), zap.String("run_id", runID))
	}
	return nil
}

func writeResults(w io.Writer, format string, results []*evaluate.RegionResult) error {
	if format == "yaml" {
		return report.WriteYAML(w, results)
	}

	tw := report.NewTextWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, rr := range results {
		if err := tw.WriteRegion(rr); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return tw.WriteSummary(w)
}

func storeRun(ctx context.Context, dbPath, runID string, results []*evaluate.RegionResult, inputs ...string) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.WriteRun(ctx, runID, results); err != nil {
		return fmt.Errorf("storing run %s: %w", runID, err)
	}

	roles := []string{"truth", "test", "fasta"}
	var recorded []store.RunInput
	for i, path := range inputs {
		if path == "" || i >= len(roles) {
			continue
		}
		fp, err := store.StatFile(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		recorded = append(recorded, store.RunInput{Role: roles[i], FileFingerprint: fp})
	}
	return db.RecordInputs(ctx, runID, recorded...)
}
