package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/inodb/geneval/internal/evaluate"
)

type yamlGene struct {
	Truth           string `yaml:"truth"`
	Test            string `yaml:"test"`
	evaluate.Counts `yaml:",inline"`
}

type yamlFailure struct {
	Gene  string `yaml:"gene"`
	Error string `yaml:"error"`
}

type yamlRegion struct {
	SeqName     string          `yaml:"seq_name"`
	TruthGenes  int             `yaml:"truth_genes"`
	GeneOverlap int             `yaml:"gene_overlap"`
	Totals      evaluate.Counts `yaml:"totals"`
	Sensitivity float64         `yaml:"exon_sensitivity"`
	Specificity float64         `yaml:"exon_specificity"`
	Genes       []yamlGene      `yaml:"genes"`
	Failures    []yamlFailure   `yaml:"failures,omitempty"`
}

// WriteYAML writes region results as a YAML sequence, one document entry
// per region.
func WriteYAML(w io.Writer, results []*evaluate.RegionResult) error {
	out := make([]yamlRegion, 0, len(results))
	for _, rr := range results {
		if rr == nil || rr.Results == nil {
			continue
		}
		out = append(out, toYAML(rr))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return enc.Close()
}

func toYAML(rr *evaluate.RegionResult) yamlRegion {
	res := rr.Results
	totals := res.Totals()
	yr := yamlRegion{
		SeqName:     rr.SeqName,
		TruthGenes:  res.TruthGeneCount,
		GeneOverlap: res.GeneOverlap,
		Totals:      totals,
		Sensitivity: totals.Sensitivity(),
		Specificity: totals.Specificity(),
		Genes:       make([]yamlGene, 0, len(res.Genes)),
	}
	for _, og := range res.Genes {
		yg := yamlGene{Truth: og.Truth.Label(), Test: noTest, Counts: og.Counts}
		if og.Test != nil {
			yg.Test = og.Test.Label()
		}
		yr.Genes = append(yr.Genes, yg)
	}
	for _, f := range res.Failures {
		label := "<nil>"
		if f.Gene != nil {
			label = f.Gene.Label()
		}
		yr.Failures = append(yr.Failures, yamlFailure{Gene: label, Error: f.Err.Error()})
	}
	return yr
}
