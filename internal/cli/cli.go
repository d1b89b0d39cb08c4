// Package cli is annokit's flag-based subcommand dispatcher, in the
// same idiom as the reference tool's root.go: a plain switch over
// os.Args, no cobra, no kingpin.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/annokit/annokit/internal/config"
	"github.com/annokit/annokit/internal/metrics"
	"github.com/annokit/annokit/internal/pipeline"
)

const version = "0.1.0"

// Execute dispatches args[0] to the matching subcommand.
func Execute(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "annotate":
		runAnnotate(args[1:])
	case "version":
		fmt.Println("annokit " + version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "annokit - VCF variant annotation and demultiplexing pipeline")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  annokit <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  annotate   Run the annotation pipeline against a VCF file")
	fmt.Fprintln(os.Stderr, "  version    Print the annokit version")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'annokit annotate -h' for command-specific options.")
}

func runAnnotate(args []string) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to annokit.yaml (optional; $ANNOKIT_CONFIG and env vars also apply)")
	vcfFilename := fs.String("vcf", "", "Override: VCF input path")
	hostURL := fs.String("host-url", "", "Override: annotation service host URL")
	outputDirectory := fs.String("outdir", "", "Override: output directory")
	outputFilename := fs.String("output-filename", "", "Override: filtered-writer base filename (empty disables)")
	metricsAddr := fs.String("metrics-addr", "", "Override: Prometheus /metrics listen address (empty disables)")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}

	if *configPath == "" {
		*configPath = os.Getenv("ANNOKIT_CONFIG")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	overrides := map[string]string{
		"vcf_filename":     *vcfFilename,
		"host_url":         *hostURL,
		"output_directory": *outputDirectory,
		"output_filename":  *outputFilename,
		"metrics_addr":     *metricsAddr,
	}
	if err := config.ApplyFlagOverrides(cfg, overrides); err != nil {
		fatalf("apply flag overrides: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var collectors *metrics.Collectors
	if cfg.MetricsAddr != "" {
		collectors = metrics.New()
		go func() {
			if err := collectors.ListenAndServe(ctx, cfg.MetricsAddr); err != nil {
				errorf("metrics listener: %v", err)
			}
		}()
	}

	logf("starting annotation run: vcf=%s outdir=%s", cfg.VCFFilename, cfg.OutputDirectory)
	if err := pipeline.Run(ctx, cfg, stderrLogger{}, collectors); err != nil {
		fatalf("pipeline run failed: %v", err)
	}
	logf("annotation run complete")
}
