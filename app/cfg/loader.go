package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Input configuration
	StoreDir          string `long:"store-dir" env:"STORE_DIR" default:"./store" description:"Document store directory containing manifest.yaml and raw files"`
	AgenciesFile      string `long:"agencies" env:"AGENCIES_FILE" description:"Agency directory CSV for name resolution (optional)"`
	JurisdictionsFile string `long:"jurisdictions" env:"JURISDICTIONS_FILE" description:"Jurisdiction hierarchy YAML for validation (optional)"`

	// Output configuration
	OutDir   string `long:"out-dir" env:"OUT_DIR" default:"./out" description:"Output directory for the corpus and run report"`
	WriteCSV bool   `long:"csv" env:"WRITE_CSV" description:"Also write a flattened corpus.csv alongside the JSONL corpus"`

	// Processing configuration
	WorkerCount int `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of documents to extract concurrently"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for report timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker-count must be at least 1, got %d", raw.WorkerCount)
	}

	cfg := &Cfg{
		StoreDir:          raw.StoreDir,
		AgenciesFile:      raw.AgenciesFile,
		JurisdictionsFile: raw.JurisdictionsFile,
		OutDir:            raw.OutDir,
		WriteCSV:          raw.WriteCSV,
		WorkerCount:       raw.WorkerCount,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
