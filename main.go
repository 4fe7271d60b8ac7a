package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"techevents/eventworker/config"
	"techevents/eventworker/helpers"
	"techevents/eventworker/internal/scraper"
	"techevents/eventworker/logger"
	"techevents/eventworker/services/cache"
	"techevents/eventworker/services/publisher"
	"techevents/eventworker/services/storage"
	"techevents/eventworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("targets", len(cfg.Targets)).
		Bool("openai_key_configured", cfg.OpenAIKeyConfigured()).
		Msg("Starting consolidated event scrape")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize services
	services := initializeServices(ctx, &cfg)
	defer services.Cleanup()

	// Build one scraper per configured target
	scrapers := buildScrapers(&cfg, services.Cache)

	// Run the scrape and build the consolidated report
	w := worker.NewWorker(
		scrapers,
		services.Publisher,
		cfg.Concurrency,
		cfg.RunDeadline,
		cfg.OpenAIKeyConfigured(),
	)
	report := w.Run(ctx)

	// Persist the report
	store := storage.NewFileStore(cfg.OutputDir)
	path, err := store.SaveReport(report)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save report")
	}

	log.Info().
		Str("path", path).
		Int("websites", report.Metadata.TotalWebsitesTargeted).
		Int("successful", report.Metadata.SuccessfulScrapes).
		Int("failed", report.Metadata.FailedScrapes).
		Int("events", report.Metadata.TotalEventsFound).
		Msg("Scrape finished")
}

// Services holds the optional external services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices wires up the optional cache and publisher. Both are
// enabled only when their address is configured.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using memcache rate-limit store at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewMemoryCache()
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Publishing events to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services
}

// buildScrapers creates the per-site pipelines in configuration order
func buildScrapers(cfg *config.Config, cacheSvc cache.CacheService) []scraper.Scraper {
	fetcher := helpers.NewHTTPFetcher(cfg.FetchTimeout)
	extractor := scraper.NewExtractor(cfg.MaxEventsPerSite)

	scrapers := make([]scraper.Scraper, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		scrapers = append(scrapers, scraper.NewSiteScraper(scraper.SiteScraperConfig{
			Site:      scraper.TargetSite{Name: target.Name, URL: target.URL},
			Fetcher:   fetcher,
			Extractor: extractor,
			Enricher:  scraper.NewEnricher(fetcher, cfg.EnrichLimit, cfg.EnrichDelay),
			CacheSvc:  cacheSvc,
			BlockTime: cfg.RateLimitBlock,
			Delay:     cfg.SiteDelay,
		}))
	}
	return scrapers
}
