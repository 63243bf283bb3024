package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./feedgram.db" description:"Path to the SQLite database file"`

	// Application configuration
	ChannelsDir       string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel seed files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	PublicHost        string `long:"public-host" env:"PUBLIC_HOST" description:"Public host used to register the Telegram webhook (optional)"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for channel polling"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"2100" description:"Poll cycle interval in seconds"`
	StartupDelay      int    `long:"startup-delay" env:"STARTUP_DELAY" default:"10" description:"Delay in seconds before the initial poll cycle"`
	FetchTimeout      int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20" description:"Timeout in seconds for a single external fetch"`
	PollLimit         int    `long:"poll-limit" env:"POLL_LIMIT" default:"15" description:"Maximum items fetched per channel per poll"`
	BackfillLimit     int    `long:"backfill-limit" env:"BACKFILL_LIMIT" default:"5" description:"Maximum items fetched during channel backfill"`

	// Messaging configuration
	BotToken      string `long:"bot-token" env:"BOT_TOKEN" description:"Global Telegram bot token used for account linking"`
	WebhookSecret string `long:"webhook-secret" env:"WEBHOOK_SECRET" description:"Secret token expected on inbound Telegram webhooks (optional)"`

	// LLM configuration
	GeminiModel string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash" description:"Gemini model used to answer item questions"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Feedgram/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
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

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		ChannelsDir:       raw.ChannelsDir,
		Port:              raw.Port,
		PublicHost:        raw.PublicHost,
		APIAccessKey:      raw.APIAccessKey,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		StartupDelay:      raw.StartupDelay,
		FetchTimeout:      raw.FetchTimeout,
		PollLimit:         raw.PollLimit,
		BackfillLimit:     raw.BackfillLimit,
		BotToken:          raw.BotToken,
		WebhookSecret:     raw.WebhookSecret,
		GeminiModel:       raw.GeminiModel,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
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
