package filter

import (
	"strconv"
	"strings"

	"github.com/annokit/annokit/internal/vcfio"
)

// RegionFilter keeps only records whose chromosome is in an allow-list.
type RegionFilter struct {
	allowed map[string]struct{}
}

// NewRegionFilter builds a RegionFilter from a list of chromosome names.
func NewRegionFilter(chroms []string) *RegionFilter {
	allowed := make(map[string]struct{}, len(chroms))
	for _, c := range chroms {
		allowed[c] = struct{}{}
	}
	return &RegionFilter{allowed: allowed}
}

func (f *RegionFilter) Name() string { return "region" }

func (f *RegionFilter) Keep(rec vcfio.Record) bool {
	if len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[rec.Chrom]
	return ok
}

// QualityFilter keeps records whose VCF QUAL column (column index 5)
// meets a minimum threshold. Records with a missing or non-numeric
// QUAL ('.') are kept, matching VCF's convention that '.' means
// "not available" rather than "fails QC."
type QualityFilter struct {
	MinQual float64
}

func (f *QualityFilter) Name() string { return "quality" }

func (f *QualityFilter) Keep(rec vcfio.Record) bool {
	raw := strings.TrimSpace(rec.Field(5))
	if raw == "" || raw == "." {
		return true
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return true
	}
	return q >= f.MinQual
}
