package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NumThreads != 4 {
		t.Fatalf("NumThreads = %d, want default 4", cfg.NumThreads)
	}
	if cfg.BatchSize != 2000 {
		t.Fatalf("BatchSize = %d, want default 2000", cfg.BatchSize)
	}
	if !cfg.ArrowSummary {
		t.Fatal("ArrowSummary should default to true")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annokit.yaml")
	contents := `
vcf_filename: sample.vcf
host_url: http://localhost:8080
species: hsapiens
num_threads: 8
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VCFFilename != "sample.vcf" {
		t.Fatalf("VCFFilename = %q, want sample.vcf", cfg.VCFFilename)
	}
	if cfg.NumThreads != 8 {
		t.Fatalf("NumThreads = %d, want 8", cfg.NumThreads)
	}
	if cfg.Version != "v4" {
		t.Fatalf("Version = %q, want default v4 (not overridden by file)", cfg.Version)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annokit.yaml")
	if err := os.WriteFile(path, []byte("species: hsapiens\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANNOKIT_SPECIES", "mmusculus")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Species != "mmusculus" {
		t.Fatalf("Species = %q, want env override mmusculus", cfg.Species)
	}
}

func TestApplyFlagOverridesWinsOverEverything(t *testing.T) {
	cfg := &Config{Species: "hsapiens"}
	if err := ApplyFlagOverrides(cfg, map[string]string{"species": "mmusculus"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Species != "mmusculus" {
		t.Fatalf("Species = %q, want flag override mmusculus", cfg.Species)
	}
}

func TestValidateRequiresCoreFields(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an empty Config")
	}
}
