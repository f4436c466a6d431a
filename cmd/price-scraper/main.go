package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maltedev/price-scraper/internal/browser"
	"github.com/maltedev/price-scraper/internal/config"
	"github.com/maltedev/price-scraper/internal/database"
	"github.com/maltedev/price-scraper/internal/events"
	"github.com/maltedev/price-scraper/internal/ingest"
	"github.com/maltedev/price-scraper/internal/logger"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/maltedev/price-scraper/internal/ratelimit"
	"github.com/maltedev/price-scraper/internal/scraper"
	"github.com/maltedev/price-scraper/internal/storage"
	"github.com/maltedev/price-scraper/internal/stores"
	"github.com/redis/go-redis/v9"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	var (
		codesFile = flag.String("codes", cfg.Scraper.CodesFile, "CSV file with one product code per row")
		outputDir = flag.String("out", cfg.Scraper.OutputDir, "Directory for the results CSV")
		storeList = flag.String("stores", strings.Join(cfg.Scraper.Stores, ","), "Comma separated stores to visit (default all)")
		headless  = flag.Bool("headless", cfg.Browser.Headless, "Run browser in headless mode")
	)
	flag.Parse()

	cfg.Scraper.CodesFile = *codesFile
	cfg.Scraper.OutputDir = *outputDir
	cfg.Scraper.Stores = splitList(*storeList)
	cfg.Browser.Headless = *headless

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if err := cfg.ValidateScraper(); err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}

	registry, err := stores.Default().Select(cfg.Scraper.Stores...)
	if err != nil {
		log.Error("invalid store selection", "error", err, "available", stores.Default().Names())
		return 1
	}

	codes, err := ingest.ReadCodes(cfg.Scraper.CodesFile)
	if err != nil {
		log.Error("failed to read codes", "error", err, "file", cfg.Scraper.CodesFile)
		return 1
	}
	log.Info("codes loaded", "count", len(codes), "file", cfg.Scraper.CodesFile, "stores", registry.Names())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Scraper.NavTimeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	}, log)
	if err != nil {
		log.Error("failed to initialize browser", "error", err)
		return 1
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		log.Error("failed to open page", "error", err)
		return 1
	}
	defer page.Close()

	timeouts := scraper.Timeouts{
		Navigation:    cfg.Scraper.NavTimeout,
		RedirectWait:  cfg.Scraper.RedirectWait,
		ContainerWait: cfg.Scraper.ContainerWait,
		SettleDelay:   cfg.Scraper.SettleDelay,
	}
	pacer := ratelimit.NewPacer(cfg.Scraper.PacingMin, cfg.Scraper.PacingMax)

	result, runErr := scraper.NewRunner(page, registry, timeouts, pacer, log).Run(ctx, codes)
	if runErr != nil {
		log.Warn("run stopped early, exporting partial results", "error", runErr, "rows", len(result.Rows))
	}

	outputFile, err := storage.NewCSVWriter(cfg.Scraper.OutputDir).Write(result.Rows)
	switch {
	case errors.Is(err, storage.ErrNoRows):
		log.Info("no results to export")
	case err != nil:
		log.Error("failed to write results", "error", err)
		return 1
	default:
		log.Info("results exported", "file", outputFile, "rows", len(result.Rows))
	}

	if cfg.Database.Enabled {
		// The run is already on disk; storage failures are reported but do not fail it.
		if err := persist(cfg, result, outputFile, log); err != nil {
			log.Error("failed to store run", "error", err, "run_id", result.ID)
		}
	}

	if runErr != nil {
		return 130
	}
	return 0
}

// persist saves the run with its completion event and, when Redis is
// enabled, drains the outbox once so the event leaves with this process.
func persist(cfg *config.Config, run *models.Run, outputFile string, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	publisher := events.NewPublisher(db, cfg.Redis.Stream, log)
	if err := publisher.PublishRunCompleted(ctx, run, outputFile); err != nil {
		return err
	}

	if !cfg.Redis.Enabled {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	relay := database.NewRelay(database.NewOutboxRepository(db), redisClient, log, database.RelayConfig{})
	published, err := relay.Drain(ctx)
	if err != nil {
		return fmt.Errorf("failed to relay events: %w", err)
	}
	log.Info("events relayed", "count", published, "stream", cfg.Redis.Stream)

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
