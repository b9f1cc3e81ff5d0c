package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inodb/geneval/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List comparison runs stored in a DuckDB file",
		Example: `  geneval runs --db results.duckdb
  geneval runs --db results.duckdb --run-id augustus-v3 --genes
  geneval runs delete augustus-v3 --db results.duckdb`,
		Args: cobra.NoArgs,
		RunE: runRuns,
	}

	cmd.PersistentFlags().String("db", "", "DuckDB results file (default: compare.db from config)")
	cmd.Flags().String("run-id", "", "only show this run")
	cmd.Flags().Bool("genes", false, "list per-gene rows (requires --run-id)")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openResultsDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func openResultsDB(cmd *cobra.Command) (*store.Store, error) {
	path := setting(cmd, "db", "compare.db")
	if path == "" {
		return nil, fmt.Errorf("no results database: pass --db or set compare.db")
	}
	return store.Open(path)
}

func runRuns(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run-id")
	genes, _ := cmd.Flags().GetBool("genes")
	if genes && runID == "" {
		return fmt.Errorf("--genes requires --run-id")
	}

	db, err := openResultsDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if genes {
		rows, err := db.LookupRun(ctx, runID)
		if err != nil {
			return err
		}
		return writeGeneRows(out, rows)
	}

	sums, err := db.RunSummaries(ctx, runID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run\tSeq\tGene_Overlap\tTruth_Genes")
	for _, s := range sums {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.RunID, s.SeqName, s.GeneOverlap, s.TruthGenes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if runID != "" {
		inputs, err := db.Inputs(ctx, runID)
		if err != nil {
			return err
		}
		for _, in := range inputs {
			fmt.Fprintf(out, "%s: %s (%d bytes, modified %s)\n", in.Role, in.Path, in.Size, in.ModTime.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func writeGeneRows(out io.Writer, rows []store.GeneRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Seq\tTruth\tTest\tPerfect\tTruncated\tPartial\tMissed_Int\tMissed_Ext\tMispredicted")
	for _, r := range rows {
		test := r.TestGene
		if test == "" {
			test = "none"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.SeqName, r.TruthGene, test,
			r.Perfect, r.Truncated, r.Partial,
			r.MissedInternal, r.MissedExternal, r.Mispredicted)
	}
	return w.Flush()
}
