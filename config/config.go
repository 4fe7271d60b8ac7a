package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"techevents/eventworker/helpers"
	apperr "techevents/eventworker/pkg/errors"
)

// Target is one configured listing page
type Target struct {
	Name string
	URL  string
}

// Config represents the application configuration
type Config struct {
	// Targets is the ordered list of listing pages to scrape
	Targets []Target

	// Fetching
	FetchTimeout     time.Duration
	MaxEventsPerSite int
	SiteDelay        time.Duration

	// Summary enrichment
	EnrichLimit int
	EnrichDelay time.Duration

	// Run shape
	Concurrency int
	RunDeadline time.Duration

	// Output
	OutputDir string

	// OpenAI key, recorded in report metadata only
	OpenAIKey string

	// Optional Redis publisher
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Optional memcache rate-limit store
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Environment
	Environment string
}

// defaultTargetURLs is the stock target list; override with TARGET_URLS
var defaultTargetURLs = []string{
	"https://www.geektime.co.il/event/",
	"https://www.excel.london/",
	"https://www.techuk.org/what-we-deliver/events.html?location=London",
	"https://testsmarter.com/events/",
	"https://internationalconferencealerts.com/argentina/artificial-intelligence",
	"https://www.lastartup.co.il/events/",
	"https://10times.com/japan/technology",
	"https://barcelona.aitinkerers.org/",
	"https://sf.aitinkerers.org/",
	"https://nyc.aitinkerers.org/",
	"https://miami.aitinkerers.org/",
	"https://tokyo.aitinkerers.org/",
	"https://london.aitinkerers.org/",
	"https://madrid.aitinkerers.org/",
	"https://buenos-aires.aitinkerers.org/",
	"https://tlv.aitinkerers.org/",
	"https://10times.com/argentina/technology",
	"https://10times.com/spain/technology/workshops",
	"https://www.geektime.co.il/events/",
	"https://developer.microsoft.com/reactor/",
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "20"))
	maxEvents, _ := strconv.Atoi(getEnv("MAX_EVENTS_PER_SITE", "30"))
	siteDelayMs, _ := strconv.Atoi(getEnv("SITE_DELAY_MS", "1000"))
	enrichLimit, _ := strconv.Atoi(getEnv("ENRICH_LIMIT", "5"))
	enrichDelayMs, _ := strconv.Atoi(getEnv("ENRICH_DELAY_MS", "500"))
	concurrency, _ := strconv.Atoi(getEnv("SCRAPE_CONCURRENCY", "0"))
	runDeadline, _ := strconv.Atoi(getEnv("RUN_DEADLINE_SECONDS", "0"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "1000"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "500"))

	return Config{
		Targets:              parseTargets(getEnv("TARGET_URLS", "")),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		MaxEventsPerSite:     maxEvents,
		SiteDelay:            time.Duration(siteDelayMs) * time.Millisecond,
		EnrichLimit:          enrichLimit,
		EnrichDelay:          time.Duration(enrichDelayMs) * time.Millisecond,
		Concurrency:          concurrency,
		RunDeadline:          time.Duration(runDeadline) * time.Second,
		OutputDir:            getEnv("OUTPUT_DIR", "scraped_events"),
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "events"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RateLimitBlock:       time.Duration(blockSeconds) * time.Second,
		Environment:          getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// parseTargets turns a comma-separated URL list into ordered targets, with
// names derived from each URL's host. Empty input means the stock list.
func parseTargets(raw string) []Target {
	urls := defaultTargetURLs
	if raw != "" {
		urls = nil
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
	}

	targets := make([]Target, 0, len(urls))
	for _, u := range urls {
		targets = append(targets, Target{
			Name: helpers.WebsiteName(u),
			URL:  u,
		})
	}
	return targets
}

// Validate checks the configuration for fatal problems
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return apperr.NewConfiguration("no target URLs configured", nil)
	}
	for _, t := range c.Targets {
		if _, err := url.ParseRequestURI(t.URL); err != nil {
			return apperr.NewConfiguration("invalid target URL: "+t.URL, err)
		}
	}
	if c.FetchTimeout <= 0 {
		return apperr.NewConfiguration("fetch timeout must be positive", nil)
	}
	if c.MaxEventsPerSite <= 0 {
		return apperr.NewConfiguration("max events per site must be positive", nil)
	}
	if c.EnrichLimit < 0 {
		return apperr.NewConfiguration("enrich limit must not be negative", nil)
	}
	return nil
}

// OpenAIKeyConfigured reports whether a real OpenAI API key is present. The
// core only records this flag in metadata; it never calls the API.
func (c *Config) OpenAIKeyConfigured() bool {
	return c.OpenAIKey != "" && c.OpenAIKey != "your_openai_api_key_here"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
