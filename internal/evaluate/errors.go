package evaluate

import "errors"

var (
	// ErrNilRegion is reported when a comparison is given a missing region.
	ErrNilRegion = errors.New("missing genomic region")
	// ErrNilGene is reported when a region holds a nil gene.
	ErrNilGene = errors.New("missing gene")
)
