package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/geneval/internal/annotation"
	"github.com/inodb/geneval/internal/genome"
	"github.com/inodb/geneval/internal/report"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the genes of an annotation file",
		Example: `  geneval show --gtf predicted.gtf
  geneval show --gtf gencode.gtf.gz --seq 12 --format gff`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}

	cmd.Flags().String("gtf", "", "annotation file (GTF/GFF2, optionally gzipped)")
	cmd.Flags().StringP("format", "f", "text", "output format: text, gff")
	cmd.Flags().String("seq", "", "only show this sequence")
	cmd.Flags().String("exon-feature", "exon", "GTF feature type read as exons")
	cmd.Flags().String("canonical", "", "TSV of canonical transcript overrides (gene, transcript)")
	cmd.MarkFlagRequired("gtf")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	logger, err := commandLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path, _ := cmd.Flags().GetString("gtf")
	format, _ := cmd.Flags().GetString("format")
	seqName, _ := cmd.Flags().GetString("seq")
	exonFeature, _ := cmd.Flags().GetString("exon-feature")
	canonical, _ := cmd.Flags().GetString("canonical")

	if format != "text" && format != "gff" {
		return fmt.Errorf("unsupported output format %q (want text or gff)", format)
	}

	opts := loadOptions{exonFeature: exonFeature, logger: logger}
	if err := opts.withCanonical(canonical); err != nil {
		return err
	}
	regions, err := loadAnnotation(cmd.Context(), path, opts)
	if err != nil {
		return err
	}

	var selected []*genome.GenomicRegion
	for _, name := range regions.Names() {
		if seqName != "" && name != annotation.NormalizeChrom(seqName) {
			continue
		}
		selected = append(selected, regions[name])
	}
	if seqName != "" && len(selected) == 0 {
		return fmt.Errorf("sequence %q not found in %s", seqName, path)
	}

	out := cmd.OutOrStdout()
	if format == "gff" {
		return report.WriteGFF(out, "geneval", selected...)
	}
	for _, reg := range selected {
		if err := report.WriteRegionText(out, reg); err != nil {
			return err
		}
	}
	return nil
}

