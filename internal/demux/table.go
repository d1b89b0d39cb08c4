// Package demux implements the Output Demultiplexer and Summary Writer:
// a process-wide, mutex-guarded mapping from consequence type to an
// append-mode output file and a monotonically increasing counter, plus
// the combined all_variants.txt file and the final summary.txt.
//
// The two reserved keys of the original implementation (all_variants,
// summary) are not table entries, per the DemuxContext re-architecture
// note: all_variants.txt is a dedicated Table field written under the
// same mutex as the per-type table, and summary.txt is written
// separately by WriteSummary.
package demux

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const writerBufferSize = 1 << 16

type typeEntry struct {
	displayName string
	file        *os.File
	writer      *bufio.Writer
	count       int64
}

// Table bundles the consequence-type table, the counter table, and the
// combined-output file behind a single mutex, so table growth and file
// writes are serialized together and can never interleave or tear.
type Table struct {
	mu sync.Mutex

	dir     string
	types   map[string]*typeEntry // keyed case-insensitively
	all     *os.File
	allBuf  *bufio.Writer
	onError func(consequenceType string, err error)
}

// Open creates <dir>/all_variants.txt (append mode) and returns a Table
// ready to receive emitted lines. onError, if non-nil, is invoked when
// a new consequence-type file fails to open; the line is then dropped
// and the run continues, per the spec's error-handling design.
func Open(dir string, onError func(consequenceType string, err error)) (*Table, error) {
	allPath := filepath.Join(dir, "all_variants.txt")
	f, err := os.OpenFile(allPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open all_variants.txt: %w", err)
	}
	return &Table{
		dir:     dir,
		types:   make(map[string]*typeEntry),
		all:     f,
		allBuf:  bufio.NewWriterSize(f, writerBufferSize),
		onError: onError,
	}, nil
}

// Emit appends line to all_variants.txt, lazily opens
// <dir>/<consequenceType>.txt on first sight of that type, increments
// its counter, and appends line there too. All three actions happen
// under one critical section, matching the spec's single-mutex policy.
func (t *Table) Emit(line, consequenceType string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.allBuf.WriteString(line); err != nil {
		return fmt.Errorf("write all_variants.txt: %w", err)
	}
	if err := t.allBuf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write all_variants.txt: %w", err)
	}

	key := strings.ToLower(consequenceType)
	entry, ok := t.types[key]
	if !ok {
		var err error
		entry, err = t.openType(key, consequenceType)
		if err != nil {
			if t.onError != nil {
				t.onError(consequenceType, err)
			}
			return nil
		}
		t.types[key] = entry
	}

	entry.count++
	if _, err := entry.writer.WriteString(line); err != nil {
		return fmt.Errorf("write %s.txt: %w", entry.displayName, err)
	}
	return entry.writer.WriteByte('\n')
}

func (t *Table) openType(key, displayName string) (*typeEntry, error) {
	path := filepath.Join(t.dir, displayName+".txt")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &typeEntry{
		displayName: displayName,
		file:        f,
		writer:      bufio.NewWriterSize(f, writerBufferSize),
	}, nil
}

// SummaryRow is one row of the final counter dump.
type SummaryRow struct {
	ConsequenceType string
	Count           int64
}

// Rows snapshots the counter table. Order is unspecified per spec §4.I;
// callers that want determinism (e.g. tests) should sort the result.
func (t *Table) Rows() []SummaryRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]SummaryRow, 0, len(t.types))
	for _, e := range t.types {
		rows = append(rows, SummaryRow{ConsequenceType: e.displayName, Count: e.count})
	}
	return rows
}

// WriteSummary flushes all buffered output and writes
// "<type>\t<count>\n" rows, sorted by type, to path.
func (t *Table) WriteSummary(path string) error {
	t.mu.Lock()
	flushErr := t.allBuf.Flush()
	for _, e := range t.types {
		if err := e.writer.Flush(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	t.mu.Unlock()
	if flushErr != nil {
		return fmt.Errorf("flush outputs: %w", flushErr)
	}

	rows := t.Rows()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ConsequenceType < rows[j].ConsequenceType })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary.txt: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriterSize(f, writerBufferSize)
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", r.ConsequenceType, r.Count); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return w.Flush()
}

// Close flushes and closes every open file handle: all_variants.txt and
// every per-consequence-type file. Handles persist for the table's
// lifetime until Close is called, matching the spec's "never reopen or
// close until shutdown" invariant.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(t.allBuf.Flush())
	record(t.all.Close())
	for _, e := range t.types {
		record(e.writer.Flush())
		record(e.file.Close())
	}
	return firstErr
}
