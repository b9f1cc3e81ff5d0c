package genome

import (
	"errors"
	"fmt"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// ErrNoSequence is returned when a derived sequence is requested from an
// annotation-only region.
var ErrNoSequence = errors.New("region has no sequence")

// slice returns seq[r.Start-1 : r.End] after bounds checking.
func slice(seq string, r Range) (string, error) {
	if r.Start < 1 || r.End > int64(len(seq)) || r.Start > r.End {
		return "", fmt.Errorf("range %d-%d outside sequence of length %d", r.Start, r.End, len(seq))
	}
	return seq[r.Start-1 : r.End], nil
}

// ReverseComplement returns the reverse complement of a DNA string.
// IUPAC ambiguity codes are complemented; unknown letters are kept as is.
func ReverseComplement(s string) string {
	if s == "" {
		return ""
	}
	ls := linear.NewSeq("", alphabet.BytesToLetters([]byte(s)), alphabet.DNAredundant)
	ls.RevComp()
	return string(alphabet.LettersToBytes(ls.Seq))
}
