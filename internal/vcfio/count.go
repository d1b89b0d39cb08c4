package vcfio

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// CountLines does a single fast pass over path, counting newlines, for
// sizing a determinate progress bar before the real read begins. It
// does not distinguish header lines from records, so callers use it as
// an upper bound, not an exact record count.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	buf := make([]byte, 1<<20)
	var count int
	var lastByte byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if lastByte != '\n' && count > 0 {
		count++
	}
	return count, nil
}
