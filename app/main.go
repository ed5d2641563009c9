package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openrecordsets/schedproc/app/cfg"
	"github.com/openrecordsets/schedproc/app/docstore"
	"github.com/openrecordsets/schedproc/app/normalize"
	"github.com/openrecordsets/schedproc/app/output"
	"github.com/openrecordsets/schedproc/app/pipeline"
	"github.com/openrecordsets/schedproc/app/registry"
	"github.com/openrecordsets/schedproc/app/validate"
)

func main() {
	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting schedproc", "version", appCfg.Version)

	// A run interrupted mid-way leaves the previous corpus in place: output
	// files are only ever replaced atomically.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load(appCfg.AgenciesFile, appCfg.JurisdictionsFile)
	if err != nil {
		slog.Error("Failed to load registry", "error", err)
		os.Exit(1)
	}

	store, err := docstore.Open(appCfg.StoreDir)
	if err != nil {
		slog.Error("Failed to open document store", "error", err)
		os.Exit(1)
	}
	slog.Info("Document store opened", "dir", appCfg.StoreDir, "documents", len(store.Documents()))

	writer := output.New(appCfg.OutDir, appCfg.WriteCSV)
	p := pipeline.New(store, normalize.New(reg), validate.New(reg), writer)

	report, err := p.Run(ctx)
	if err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	if report.DocumentsFailed > 0 || len(report.Rejections) > 0 {
		slog.Warn("Run completed with problems, see report.json",
			"failed", report.DocumentsFailed,
			"rejected", len(report.Rejections),
			"out", appCfg.OutDir)
	}
}
