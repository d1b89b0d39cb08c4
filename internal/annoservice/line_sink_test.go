package annoservice

import (
	"strings"
	"testing"
)

type capturedLine struct {
	line            string
	consequenceType string
}

func newCapturingSink() (*LineSink, *[]capturedLine) {
	var got []capturedLine
	sink := NewLineSink(func(line, consequenceType string) error {
		got = append(got, capturedLine{line, consequenceType})
		return nil
	}, nil)
	return sink, &got
}

func TestLineSinkSingleLineSingleWrite(t *testing.T) {
	sink, got := newCapturingSink()
	if _, err := sink.Write([]byte("chr1\t100\tA\tG\tSO:0001583\tmissense_variant\n")); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected 1 emitted line, got %d", len(*got))
	}
	if (*got)[0].consequenceType != "missense_variant" {
		t.Fatalf("consequenceType = %q, want missense_variant", (*got)[0].consequenceType)
	}
}

func TestLineSinkSplitAcrossChunks(t *testing.T) {
	sink, got := newCapturingSink()
	full := "chr1\t100\tA\tG\tSO:0001583\tmissense_variant\n"
	mid := len(full) / 2
	if _, err := sink.Write([]byte(full[:mid])); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 0 {
		t.Fatalf("expected no emission before the newline arrives, got %d", len(*got))
	}
	if _, err := sink.Write([]byte(full[mid:])); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected 1 emitted line after the split completes, got %d", len(*got))
	}
	if (*got)[0].consequenceType != "missense_variant" {
		t.Fatalf("consequenceType = %q, want missense_variant", (*got)[0].consequenceType)
	}
}

func TestLineSinkMultipleLinesOneWrite(t *testing.T) {
	sink, got := newCapturingSink()
	data := "a\tSO:1\tfirst\nb\tSO:2\tsecond\n"
	if _, err := sink.Write([]byte(data)); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 2 {
		t.Fatalf("expected 2 emitted lines, got %d", len(*got))
	}
	if (*got)[0].consequenceType != "first" || (*got)[1].consequenceType != "second" {
		t.Fatalf("unexpected consequence types: %+v", *got)
	}
}

func TestLineSinkGrowsPastInitialBuffer(t *testing.T) {
	sink, got := newCapturingSink()
	long := strings.Repeat("x", 1000) + "\tSO:1\tlong_variant\n"
	if _, err := sink.Write([]byte(long)); err != nil {
		t.Fatal(err)
	}
	if sink.MaxLineSize() <= initialLineBufferSize {
		t.Fatalf("expected MaxLineSize to grow past %d, got %d", initialLineBufferSize, sink.MaxLineSize())
	}
	if len(*got) != 1 || (*got)[0].consequenceType != "long_variant" {
		t.Fatalf("unexpected emission: %+v", *got)
	}
}

func TestLineSinkGrowthAcrossMultipleWrites(t *testing.T) {
	sink, got := newCapturingSink()
	parts := []string{strings.Repeat("a", 400), strings.Repeat("b", 400), "\tSO:1\tgrown\n"}
	for _, p := range parts {
		if _, err := sink.Write([]byte(p)); err != nil {
			t.Fatal(err)
		}
	}
	if len(*got) != 1 || (*got)[0].consequenceType != "grown" {
		t.Fatalf("unexpected emission: %+v", *got)
	}
}

func TestLineSinkCaseInsensitiveConsequenceTypePassthrough(t *testing.T) {
	sink, got := newCapturingSink()
	if _, err := sink.Write([]byte("x\tSO:1\tMissense_Variant\n")); err != nil {
		t.Fatal(err)
	}
	if (*got)[0].consequenceType != "Missense_Variant" {
		t.Fatalf("extraction must preserve original casing, got %q", (*got)[0].consequenceType)
	}
}

func TestLineSinkDropsLineWithNoSOToken(t *testing.T) {
	var dropped []string
	sink := NewLineSink(func(line, consequenceType string) error {
		t.Fatalf("emit should not be called for a line with no SO: token, got %q / %q", line, consequenceType)
		return nil
	}, func(line string) {
		dropped = append(dropped, line)
	})

	if _, err := sink.Write([]byte("no-so-token-here\tjust\tcolumns\n")); err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 1 {
		t.Fatalf("expected exactly 1 dropped line, got %d", len(dropped))
	}
}

func TestLineSinkPreservesCarriageReturnOnCompletedLine(t *testing.T) {
	sink, got := newCapturingSink()
	if _, err := sink.Write([]byte("x\tSO:1\tmissense_variant\r\n")); err != nil {
		t.Fatal(err)
	}
	if (*got)[0].line != "x\tSO:1\tmissense_variant\r" {
		t.Fatalf("expected the completed line to retain its trailing CR verbatim, got %q", (*got)[0].line)
	}
	if (*got)[0].consequenceType != "missense_variant\r" {
		t.Fatalf("expected the CR to remain part of the last token, got %q", (*got)[0].consequenceType)
	}
}

func TestLineSinkTrimsCarriageReturnOnWidowBuffer(t *testing.T) {
	sink, got := newCapturingSink()
	if _, err := sink.Write([]byte("partial without newline\r")); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 0 {
		t.Fatalf("expected no emission yet, got %d", len(*got))
	}
	if _, err := sink.Write([]byte("more\tSO:1\ttail\n")); err != nil {
		t.Fatal(err)
	}
	if (*got)[0].line != "partial without newlinemore\tSO:1\ttail" {
		t.Fatalf("expected the widow buffer's trailing CR to have been trimmed before the next write appended to it, got %q", (*got)[0].line)
	}
}
