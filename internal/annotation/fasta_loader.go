package annotation

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"go.uber.org/zap"
)

// FASTALoader loads genomic sequences keyed by normalized sequence name.
type FASTALoader struct {
	path      string
	sequences map[string]string
	logger    *zap.Logger
}

// NewFASTALoader creates a new FASTA loader.
func NewFASTALoader(path string) *FASTALoader {
	return &FASTALoader{
		path:      path,
		sequences: make(map[string]string),
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger.
func (l *FASTALoader) SetLogger(lg *zap.Logger) {
	if lg == nil {
		lg = zap.NewNop()
	}
	l.logger = lg
}

// Load parses the FASTA file.
func (l *FASTALoader) Load() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.Read(reader)
}

// Read parses FASTA content. Sequence IDs are the first word of the header
// line with any "chr" prefix removed; bases are upper-cased.
func (l *FASTALoader) Read(r io.Reader) error {
	template := linear.NewSeq("", nil, alphabet.DNAredundant)
	sc := seqio.NewScanner(fasta.NewReader(r, template))
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			continue
		}
		name := NormalizeChrom(s.Name())
		if _, dup := l.sequences[name]; dup {
			l.logger.Warn("duplicate FASTA record, keeping the last", zap.String("seq", name))
		}
		l.sequences[name] = strings.ToUpper(string(alphabet.LettersToBytes(s.Seq)))
	}
	if err := sc.Error(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return nil
}

// Sequence returns the sequence for name, or "" if absent.
func (l *FASTALoader) Sequence(name string) string {
	return l.sequences[NormalizeChrom(name)]
}

// SequenceCount returns the number of loaded sequences.
func (l *FASTALoader) SequenceCount() int {
	return len(l.sequences)
}

// Attach sets the sequence of every region that has a matching record and
// returns the number of regions left without sequence.
func (l *FASTALoader) Attach(regions Regions) int {
	missing := 0
	for name, reg := range regions {
		s, ok := l.sequences[name]
		if !ok {
			missing++
			l.logger.Debug("no sequence for region", zap.String("seq", name))
			continue
		}
		reg.Sequence = s
	}
	return missing
}
