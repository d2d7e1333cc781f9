package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/app"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/pipeline"
)

var (
	configPath  = flag.String("config", "", "Configuration file path")
	sourcesFlag = flag.String("sources", "adzuna", "Comma-separated sources to sweep per city")
	maxJobs     = flag.Int("max-jobs", 0, "Per-query job cap for the aggregator")
	resumeHours = flag.Int("resume-hours", 0, "Skip companies processed within this many hours")
	showVersion = flag.Bool("version", false, "Print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: laboro-cities [flags] [city_code ...]\n\n")
	fmt.Fprintf(os.Stderr, "Sweeps each city in parallel. With no arguments, all configured\n")
	fmt.Fprintf(os.Stderr, "cities are swept.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("Laboro version %s\n", common.GetVersion())
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		if _, err := os.Stat("laboro.toml"); err == nil {
			path = "laboro.toml"
		} else if _, err := os.Stat("config/laboro.toml"); err == nil {
			path = "config/laboro.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	cities := flag.Args()
	if len(cities) == 0 {
		for code := range config.Adzuna.Cities {
			cities = append(cities, code)
		}
		sort.Strings(cities)
	}
	for _, code := range cities {
		if _, ok := config.Adzuna.Cities[code]; !ok {
			logger.Fatal().Str("city", code).Msg("Unknown city code")
			os.Exit(1)
		}
	}

	var sources []models.Source
	for _, name := range strings.Split(*sourcesFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		source, ok := models.ParseSource(name)
		if !ok {
			logger.Fatal().Str("source", name).Msg("Unknown source")
			os.Exit(1)
		}
		sources = append(sources, source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	logger.Info().Strs("cities", cities).Msg("Starting city sweeps")

	// each city runs a full sweep with its own accumulators; the stores
	// serialize concurrent writes
	var wg sync.WaitGroup
	for _, code := range cities {
		wg.Add(1)
		go func(cityCode string) {
			defer wg.Done()
			sweepCity(ctx, application, cityCode, sources)
		}(code)
	}
	wg.Wait()
}

func sweepCity(ctx context.Context, application *app.App, cityCode string, sources []models.Source) {
	allStats, err := application.Orchestrator.Run(ctx, pipeline.SweepOptions{
		Sources:     sources,
		CityCode:    cityCode,
		MaxJobs:     *maxJobs,
		ResumeHours: *resumeHours,
	})
	if err != nil && ctx.Err() == nil {
		application.Logger.Error().Err(err).Str("city", cityCode).Msg("City sweep failed")
	}

	for _, stats := range allStats {
		application.Logger.Info().
			Str("city", cityCode).
			Str("source", string(stats.Source)).
			Str("sweep_id", stats.SweepID).
			Int("jobs_kept", stats.JobsKept).
			Int("jobs_classified", stats.JobsClassified).
			Float64("cost_usd", stats.CostClassification).
			Float64("elapsed_seconds", stats.ElapsedSeconds).
			Msg("City sweep summary")
	}
}
