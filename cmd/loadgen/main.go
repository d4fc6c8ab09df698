package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/combatlog/internal/loadgen"
	"github.com/okian/combatlog/pkg/logger"
)

// Default configuration constants.
const (
	defaultDatasets = 50
	defaultEnemies  = 4
	defaultEvents   = 200
	defaultTimeout  = 30 * time.Second
	runTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		datasets = flag.Int("datasets", defaultDatasets, "Number of engagements to upload")
		enemies  = flag.Int("enemies", defaultEnemies, "Enemies per engagement")
		events   = flag.Int("events", defaultEvents, "Damage events per stream")
		workers  = flag.Int("workers", runtime.NumCPU(), "Concurrent uploaders")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 1, "Generator seed")
		verbose  = flag.Bool("verbose", false, "Log every verified dataset")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err := loadgen.Run(ctx, &loadgen.Config{
		BaseURL:         *baseURL,
		Datasets:        *datasets,
		Enemies:         *enemies,
		EventsPerStream: *events,
		Workers:         *workers,
		Timeout:         *timeout,
		Seed:            *seed,
		Verbose:         *verbose,
	}, logger.Named("loadgen"))
	if err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
