package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/annokit/annokit/internal/vcfio"
)

const writerBufferSize = 1 << 20

// filteredWriter mirrors every batch's passed and failed records back
// out to two companion VCF files, writing the shared header once on
// first use. It is only constructed when output_filename is set; a
// nil *filteredWriter is valid and its methods are no-ops, so callers
// don't need a feature-flag branch at every call site.
type filteredWriter struct {
	mu sync.Mutex

	passedFile *os.File
	failedFile *os.File
	passedBuf  *bufio.Writer
	failedBuf  *bufio.Writer

	headerWritten bool
}

// newFilteredWriter opens "<dir>/<name>" and "<dir>/<name>.filtered"
// for the run. Returns (nil, nil) when name is empty, meaning the
// feature is disabled.
func newFilteredWriter(dir, name string) (*filteredWriter, error) {
	if name == "" {
		return nil, nil
	}
	passedPath := dir + string(os.PathSeparator) + name
	failedPath := passedPath + ".filtered"

	passedFile, err := os.Create(passedPath)
	if err != nil {
		return nil, fmt.Errorf("filtered writer: create %s: %w", passedPath, err)
	}
	failedFile, err := os.Create(failedPath)
	if err != nil {
		_ = passedFile.Close()
		return nil, fmt.Errorf("filtered writer: create %s: %w", failedPath, err)
	}
	return &filteredWriter{
		passedFile: passedFile,
		failedFile: failedFile,
		passedBuf:  bufio.NewWriterSize(passedFile, writerBufferSize),
		failedBuf:  bufio.NewWriterSize(failedFile, writerBufferSize),
	}, nil
}

// Write appends passed's records to the passed-file and failed's to
// the failed-file, writing the shared header to both exactly once.
func (w *filteredWriter) Write(passed, failed vcfio.Batch) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.headerWritten {
		header := passed.Header
		if len(header) == 0 {
			header = failed.Header
		}
		if err := writeHeader(w.passedBuf, header); err != nil {
			return err
		}
		if err := writeHeader(w.failedBuf, header); err != nil {
			return err
		}
		w.headerWritten = true
	}

	if err := writeRecords(w.passedBuf, passed.Records); err != nil {
		return err
	}
	return writeRecords(w.failedBuf, failed.Records)
}

func writeHeader(w *bufio.Writer, header []string) error {
	for _, line := range header {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(w *bufio.Writer, records []vcfio.Record) error {
	for _, rec := range records {
		if _, err := w.WriteString(rec.Raw); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes both companion files.
func (w *filteredWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(w.passedBuf.Flush())
	record(w.passedFile.Close())
	record(w.failedBuf.Flush())
	record(w.failedFile.Close())
	return firstErr
}
