package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

const readerBufferSize = 1 << 20

// Reader drives a VCF source, exposing the header once and then
// batches of up to n records via ReadBatch. It is the Reader component's
// only dependency on the file format itself.
type Reader struct {
	file    *os.File
	closer  io.Closer
	scanner *bufio.Scanner
	header  []string
	pending *string

	headerRead bool
	prog       *progress
}

// Open opens path, transparently inflating it with pgzip when it ends
// in .gz (mirroring the teacher's gzip-aware openInput, generalized to
// VCF rather than TSV/FASTA input).
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf: %w", err)
	}

	var src io.Reader = f
	var closer io.Closer = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip vcf: %w", err)
		}
		src = gz
		closer = multiCloser{gz, f}
	}

	scanner := bufio.NewScanner(src)
	buf := make([]byte, 0, readerBufferSize)
	scanner.Buffer(buf, 64*1024*1024)

	return &Reader{file: f, closer: closer, scanner: scanner}, nil
}

type multiCloser struct {
	gz io.Closer
	f  io.Closer
}

func (m multiCloser) Close() error {
	_ = m.gz.Close()
	return m.f.Close()
}

// EnableProgress turns on a stderr progress bar (or spinner, when
// total is unknown) for subsequent ReadBatch calls. reportEvery == 0
// disables reporting, matching the teacher's opt-out convention; total
// <= 0 falls back to an indeterminate spinner.
func (r *Reader) EnableProgress(total, reportEvery int) {
	r.prog = newProgress(total, reportEvery)
}

// Close releases the underlying file (and gzip reader, if any), and
// finalizes any active progress bar.
func (r *Reader) Close() error {
	if r.prog != nil {
		r.prog.finish()
	}
	return r.closer.Close()
}

// Header returns the raw header lines read so far. It is only complete
// once the first call to ReadBatch has returned.
func (r *Reader) Header() []string {
	return r.header
}

// ReadBatch reads up to n records, returning io.EOF once the source is
// exhausted (the returned batch may still contain between 0 and n
// records alongside io.EOF — callers should process what's returned
// before treating the error as terminal).
func (r *Reader) ReadBatch(n int) (Batch, error) {
	if !r.headerRead {
		if err := r.consumeHeader(); err != nil {
			return Batch{}, err
		}
		r.headerRead = true
	}

	batch := Batch{Header: r.header, MaxLen: n, Records: make([]Record, 0, n)}
	for len(batch.Records) < n {
		var line string
		if r.pending != nil {
			line = *r.pending
			r.pending = nil
		} else {
			if !r.scanner.Scan() {
				if err := r.scanner.Err(); err != nil {
					return batch, fmt.Errorf("read vcf record: %w", err)
				}
				return batch, io.EOF
			}
			line = r.scanner.Text()
		}
		if line == "" {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return batch, fmt.Errorf("parse vcf record: %w", err)
		}
		batch.Records = append(batch.Records, rec)
	}
	if r.prog != nil {
		r.prog.add(len(batch.Records))
	}
	return batch, nil
}

func (r *Reader) consumeHeader() error {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.header = append(r.header, line)
			return nil
		}
		// No header at all: push the line back by treating it as the
		// first record. VCF always has a #CHROM line in practice, but
		// an empty/headerless input shouldn't hang the reader.
		return r.unreadFirstDataLine(line)
	}
	return r.scanner.Err()
}

// unreadFirstDataLine handles the edge case of a VCF with no header:
// the line already scanned becomes the first pending record by way of
// a one-record lookahead buffer.
func (r *Reader) unreadFirstDataLine(line string) error {
	r.pending = &line
	return nil
}

func parseRecord(line string) (Record, error) {
	fields := strings.SplitN(line, "\t", 6)
	if len(fields) < 5 {
		return Record{}, fmt.Errorf("record has fewer than 5 columns: %q", line)
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid position %q: %w", fields[1], err)
	}
	return Record{
		Chrom: fields[0],
		Pos:   pos,
		ID:    fields[2],
		Ref:   fields[3],
		Alt:   fields[4],
		Raw:   line,
	}, nil
}
