// Package filter implements the Filter Stage's Partition contract: an
// ordered chain of filters that splits a batch into passed/failed
// sub-batches. The chain is assumed already topologically sorted by
// the caller (internal/config); this package never reorders it.
package filter

import "github.com/annokit/annokit/internal/vcfio"

// Filter is one link in the chain. Keep reports whether a record
// should pass; it must not mutate the record.
type Filter interface {
	Name() string
	Keep(vcfio.Record) bool
}

// Chain is an ordered, already-sorted sequence of filters.
type Chain []Filter

// Partition splits batch into passed and failed sub-batches. With an
// empty chain, passed shares batch's record slice and failed is empty
// — no copy, no ownership transfer, per the Filter Stage contract.
// Otherwise every record is tested against every filter in order; a
// record fails as soon as any filter rejects it.
func (c Chain) Partition(batch vcfio.Batch) (passed, failed vcfio.Batch) {
	if len(c) == 0 {
		return batch, vcfio.Batch{Header: batch.Header, MaxLen: batch.MaxLen}
	}

	passed = vcfio.Batch{Header: batch.Header, MaxLen: batch.MaxLen, Records: make([]vcfio.Record, 0, len(batch.Records))}
	failed = vcfio.Batch{Header: batch.Header, MaxLen: batch.MaxLen, Records: make([]vcfio.Record, 0, len(batch.Records))}

	for _, rec := range batch.Records {
		if c.keepAll(rec) {
			passed.Records = append(passed.Records, rec)
		} else {
			failed.Records = append(failed.Records, rec)
		}
	}
	return passed, failed
}

func (c Chain) keepAll(rec vcfio.Record) bool {
	for _, f := range c {
		if !f.Keep(rec) {
			return false
		}
	}
	return true
}
