package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/app"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/pipeline"
)

var (
	configPath     = flag.String("config", "", "Configuration file path")
	sourcesFlag    = flag.String("sources", "", "Comma-separated sources to sweep (default: all enabled)")
	companiesFlag  = flag.String("companies", "", "Comma-separated employer slugs to restrict the sweep to")
	minDescription = flag.Int("min-description-length", 0, "Skip postings with shorter descriptions")
	resumeHours    = flag.Int("resume-hours", 0, "Skip companies processed within this many hours")
	skipClassify   = flag.Bool("skip-classification", false, "Stop after the raw write (debug)")
	skipStorage    = flag.Bool("skip-storage", false, "Run without any database writes (debug)")
	showVersion    = flag.Bool("version", false, "Print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: laboro [flags] <city_code> [max_jobs]\n\n")
	fmt.Fprintf(os.Stderr, "Sweeps the configured job sources for one city.\n\n")
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

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	cityCode := args[0]

	maxJobs := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "max_jobs must be a non-negative integer, got %q\n", args[1])
			os.Exit(2)
		}
		maxJobs = n
	}

	// Startup order: config, logger, banner, app
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

	sources, err := parseSources(*sourcesFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid --sources")
		os.Exit(1)
	}

	opts := pipeline.SweepOptions{
		Sources:              sources,
		CityCode:             cityCode,
		MaxJobs:              maxJobs,
		Companies:            splitList(*companiesFlag),
		MinDescriptionLength: *minDescription,
		ResumeHours:          *resumeHours,
		SkipClassification:   *skipClassify,
		SkipStorage:          *skipStorage,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if config.Pipeline.Schedule != "" {
		runDaemon(ctx, application, opts)
		return
	}

	runSweep(ctx, application, opts)
}

// runSweep executes one sweep. Per-posting failures are already folded into
// the stats; only a cancelled context surfaces here.
func runSweep(ctx context.Context, application *app.App, opts pipeline.SweepOptions) {
	allStats, err := application.Orchestrator.Run(ctx, opts)
	if err != nil && ctx.Err() == nil {
		application.Logger.Error().Err(err).Msg("Sweep failed")
	}

	for _, stats := range allStats {
		application.Logger.Info().
			Str("source", string(stats.Source)).
			Str("sweep_id", stats.SweepID).
			Int("jobs_kept", stats.JobsKept).
			Int("jobs_classified", stats.JobsClassified).
			Int("jobs_written_enriched", stats.JobsWrittenEnriched).
			Float64("cost_usd", stats.CostClassification).
			Float64("elapsed_seconds", stats.ElapsedSeconds).
			Msg("Sweep summary")
	}

	if !opts.SkipStorage {
		logCorpusTotals(application)
	}
}

// logCorpusTotals reports the running corpus size after a sweep
func logCorpusTotals(application *app.App) {
	bySource, err := application.Store.RawStorage().CountBySource()
	if err != nil {
		application.Logger.Warn().Err(err).Msg("Failed to count raw postings")
		return
	}
	byFamily, err := application.Store.EnrichedStorage().CountByFamily()
	if err != nil {
		application.Logger.Warn().Err(err).Msg("Failed to count enriched postings")
		return
	}

	event := application.Logger.Info()
	for _, source := range models.AllSources {
		if n, ok := bySource[source]; ok {
			event = event.Int("raw_"+string(source), n)
		}
	}
	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)
	for _, family := range families {
		event = event.Int("enriched_"+family, byFamily[family])
	}
	event.Msg("Corpus totals")
}

// runDaemon repeats the sweep on the configured cron schedule until a
// termination signal arrives.
func runDaemon(ctx context.Context, application *app.App, opts pipeline.SweepOptions) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(application.Config.Pipeline.Schedule, func() {
		runSweep(ctx, application, opts)
	})
	if err != nil {
		application.Logger.Fatal().
			Err(err).
			Str("schedule", application.Config.Pipeline.Schedule).
			Msg("Invalid cron schedule")
		os.Exit(1)
	}

	application.Logger.Info().
		Str("schedule", application.Config.Pipeline.Schedule).
		Msg("Starting scheduled sweeps")
	scheduler.Start()

	<-ctx.Done()
	application.Logger.Info().Msg("Shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // let a running sweep finish its company
}

func parseSources(list string) ([]models.Source, error) {
	var sources []models.Source
	for _, name := range splitList(list) {
		source, ok := models.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
