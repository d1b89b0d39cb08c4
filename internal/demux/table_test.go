package demux

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmitCreatesPerTypeFileAndCounts(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := tbl.Emit("line-a1", "missense_variant"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Emit("line-a2", "missense_variant"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Emit("line-b1", "synonymous_variant"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	missense, err := os.ReadFile(filepath.Join(dir, "missense_variant.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(missense), "line-a1\nline-a2\n"; got != want {
		t.Fatalf("missense_variant.txt = %q, want %q", got, want)
	}

	all, err := os.ReadFile(filepath.Join(dir, "all_variants.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(all), "line-a1\nline-a2\nline-b1\n"; got != want {
		t.Fatalf("all_variants.txt = %q, want %q", got, want)
	}
}

func TestCaseInsensitiveBucketing(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := tbl.Emit("line-1", "Missense_Variant"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Emit("line-2", "missense_variant"); err != nil {
		t.Fatal(err)
	}

	rows := tbl.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected a single bucket for case variants, got %d", len(rows))
	}
	if rows[0].Count != 2 {
		t.Fatalf("expected counter == 2, got %d", rows[0].Count)
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var perTypeFiles int
	for _, e := range entries {
		if e.Name() != "all_variants.txt" {
			perTypeFiles++
		}
	}
	if perTypeFiles != 1 {
		t.Fatalf("expected exactly one per-type file, found %d entries", perTypeFiles)
	}
}

func TestSummaryMatchesLineCounts(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := tbl.Emit("x", "a"); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.Emit("y", "b"); err != nil {
		t.Fatal(err)
	}
	summaryPath := filepath.Join(dir, "summary.txt")
	if err := tbl.WriteSummary(summaryPath); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "a\t3\nb\t1\n"; got != want {
		t.Fatalf("summary.txt = %q, want %q", got, want)
	}
}

func TestEmptyVCFProducesEmptySummary(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	summaryPath := filepath.Join(dir, "summary.txt")
	if err := tbl.WriteSummary(summaryPath); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty summary.txt, got %q", data)
	}
}
