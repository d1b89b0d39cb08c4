package pipeline

import "github.com/annokit/annokit/internal/vcfio"

func batchOfN(n int) vcfio.Batch {
	recs := make([]vcfio.Record, n)
	for i := range recs {
		recs[i] = vcfio.Record{Chrom: "1", Pos: int64(i), Ref: "A", Alt: "G", Raw: "1\t1\t.\tA\tG"}
	}
	return vcfio.Batch{Records: recs, MaxLen: n}
}
