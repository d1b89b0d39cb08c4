package pipeline

import "github.com/annokit/annokit/internal/vcfio"

// chunk splits batch.Records into ceil(L/size) contiguous, non-copying
// slices, the k-th spanning [k*size, min((k+1)*size, L)), per the
// Chunker component's contract. A size <= 0 or an empty batch yields
// no chunks.
func chunk(batch vcfio.Batch, size int) [][]vcfio.Record {
	records := batch.Records
	if size <= 0 || len(records) == 0 {
		return nil
	}
	n := (len(records) + size - 1) / size
	chunks := make([][]vcfio.Record, 0, n)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
