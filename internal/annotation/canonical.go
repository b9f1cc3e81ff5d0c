package annotation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CanonicalOverrides maps a gene ID or gene name to the transcript that
// should be treated as canonical. Transcript IDs are stored without version.
type CanonicalOverrides map[string]string

// LoadCanonicalOverrides loads overrides from a TSV file with a header line.
// Column 1 holds the gene ID or name, column 2 the transcript ID; further
// columns are ignored.
func LoadCanonicalOverrides(path string) (CanonicalOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open canonical overrides file: %w", err)
	}
	defer f.Close()

	return ParseCanonicalOverrides(f)
}

// ParseCanonicalOverrides parses override TSV content.
func ParseCanonicalOverrides(reader io.Reader) (CanonicalOverrides, error) {
	overrides := make(CanonicalOverrides)
	scanner := bufio.NewScanner(reader)

	// Skip header line
	if !scanner.Scan() {
		return overrides, scanner.Err()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		gene := strings.TrimSpace(fields[0])
		transcript := strings.TrimSpace(fields[1])
		if gene == "" || transcript == "" || transcript == "nan" {
			continue
		}
		overrides[gene] = stripVersion(transcript)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan canonical overrides: %w", err)
	}
	return overrides, nil
}

// lookup returns the override for a gene, trying the ID as written, the ID
// without version and then the gene name.
func (o CanonicalOverrides) lookup(geneID, geneName string) (string, bool) {
	for _, key := range []string{geneID, stripVersion(geneID), geneName} {
		if key == "" {
			continue
		}
		if tx, ok := o[key]; ok {
			return tx, true
		}
	}
	return "", false
}

// stripVersion removes the version suffix from an Ensembl ID
// (e.g., ENST00000311936.8 -> ENST00000311936).
func stripVersion(id string) string {
	if idx := strings.LastIndexByte(id, '.'); idx > 0 {
		return id[:idx]
	}
	return id
}
