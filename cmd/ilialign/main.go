// Package main is the entry point for the ilialign CLI: it loads a config
// file, ingests a directory of inspection workbooks/CSVs for one
// pipeline, runs the orchestrator across every run pair, and writes the
// export artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pipeintel/ilialign/config"
	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/ingest"
	"github.com/pipeintel/ilialign/normalize"
	"github.com/pipeintel/ilialign/oracle"
	"github.com/pipeintel/ilialign/orchestrator"
	"github.com/pipeintel/ilialign/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code: 0 on a DONE
// job, 1 on a FAILED job, 2 on a usage or setup error.
func run(args []string) int {
	fs := flag.NewFlagSet("ilialign", flag.ContinueOnError)

	var (
		configPath string
		dataDir    string
		exportDir  string
		datasetID  string
		jobID      string
		verbose    bool
	)
	fs.StringVar(&configPath, "config", "", "path to the YAML pipeline configuration (defaults used if absent)")
	fs.StringVar(&dataDir, "data", "", "directory of inspection workbooks (.xlsx) and/or CSV files to ingest")
	fs.StringVar(&exportDir, "out", ".", "directory to write the exported CSV and workbook artifacts to")
	fs.StringVar(&datasetID, "dataset", "dataset-1", "identifier for the ingested dataset")
	fs.StringVar(&jobID, "job", "job-1", "identifier for the pipeline job")
	fs.BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ilialign -data <dir> [-config path.yaml] [-out dir]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if dataDir == "" {
		fmt.Fprintln(os.Stderr, "error: -data is required")
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		return 2
	}

	rawRuns, err := ingestDir(dataDir)
	if err != nil {
		logger.Error("ingesting data directory", "error", err)
		return 2
	}
	if len(rawRuns) == 0 {
		logger.Error("no inspection runs found", "dir", dataDir)
		return 2
	}

	var ml oracle.MLProvider
	var normOracle normalize.Oracle
	if cfg.EnableML {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Warn("enable_ml is set but OPENAI_API_KEY is empty; continuing without the oracle sidecar")
		} else {
			opts := oracle.DefaultOptions()
			opts.APIKey = apiKey
			opts.Timeout = cfg.OracleTimeout()
			client := oracle.New(opts)
			normOracle = client
			ml = client
		}
	}

	st := store.New()
	orch := orchestrator.New(st, cfg, normOracle, ml, logger)

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		logger.Error("creating export directory", "error", err)
		return 2
	}

	ctx := context.Background()
	job, err := orch.RunJob(ctx, orchestrator.RunInput{
		JobID:     jobID,
		DatasetID: datasetID,
		RawRuns:   rawRuns,
		ExportDir: exportDir,
	})
	if err != nil {
		logger.Error("running job", "error", err)
		return 2
	}

	logger.Info("job finished", "status", job.Status, "progress", job.ProgressPct, "summary", job.ResultSummary)
	if job.Status == core.JobFailed {
		logger.Error("job failed", "stage", job.CurrentStage, "error", job.Error)
		return 1
	}
	return 0
}

// ingestDir reads every .xlsx workbook and .csv file directly under dir
// into RawRuns, in lexical filename order for determinism. A CSV
// filename's year (e.g. "2019_run.csv", see yearFromFilename) becomes the
// run's context year; a CSV without one is still parsed, with no context
// year. The first file that fails to open or parse aborts the whole
// ingestion with an error; no file is skipped.
func ingestDir(dir string) ([]ingest.RawRun, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	var runs []ingest.RawRun
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx":
			wb, err := ingest.ParseWorkbookFile(path)
			if err != nil {
				return nil, fmt.Errorf("parsing workbook %s: %w", name, err)
			}
			runs = append(runs, wb...)
		case ".csv":
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", name, err)
			}
			run, err := ingest.ParseCSV(f, yearFromFilename(name))
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parsing csv %s: %w", name, err)
			}
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// yearFromFilename extracts a four-digit year from a CSV filename: the
// first four characters of the span running from its first digit to its
// last digit, returning 0 (no context year) when that span is shorter
// than four characters or those four are not all digits.
func yearFromFilename(name string) int {
	digits := strings.TrimFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	if len(digits) < 4 {
		return 0
	}
	y, err := strconv.Atoi(digits[:4])
	if err != nil {
		return 0
	}
	return y
}
