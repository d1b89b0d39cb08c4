package vcfio

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress wraps schollz/progressbar with an opt-out flag
// (reportEvery == 0), the same shape the teacher's marker/FASTA
// tooling uses, generalized here from TSV rows to VCF records.
type progress struct {
	bar *progressbar.ProgressBar
}

// newProgress reports on the VCF records read so far. total <= 0
// (unknown record count) falls back to progressbar's own indeterminate
// spinner; annokit has no need for the teacher's separate width/predict-time
// tuning for the determinate case, so both cases share one option set.
func newProgress(total, reportEvery int) *progress {
	if reportEvery == 0 {
		return &progress{bar: nil}
	}
	if total <= 0 {
		total = -1
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("annotating variants"),
		progressbar.OptionThrottle(250*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &progress{bar: bar}
}

func (p *progress) add(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
