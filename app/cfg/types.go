package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	ChannelsDir       string
	Port              string
	PublicHost        string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval int
	StartupDelay      int
	FetchTimeout      int
	PollLimit         int
	BackfillLimit     int

	// Messaging configuration
	BotToken      string
	WebhookSecret string

	// LLM configuration
	GeminiModel string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
