package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration.
type Config struct {
	TelegramToken  string
	WebhookSecret  string
	AllowedChatIDs []int64

	DatabaseURL string
	ServerAddr  string

	LockTTL        time.Duration
	LockRetryDelay time.Duration
	DebounceWindow time.Duration
	DedupCacheSize int
	QueueSize      int
	WorkerCount    int

	GoogleServiceAccountJSON string
	SheetID                  string
	SheetRange               string
	DriveFolderID            string
	DashboardURL             string
}

// Load reads configuration from environment. An empty DATABASE_URL selects
// the in-memory repositories (single-process dev mode).
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	allowed, err := parseChatIDs(os.Getenv("ALLOWED_CHAT_IDS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramToken:  token,
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		AllowedChatIDs: allowed,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServerAddr:  getenv("SERVER_ADDR", "0.0.0.0:8080"),

		LockTTL:        parseDuration(getenv("LOCK_TTL", "3s"), 3*time.Second),
		LockRetryDelay: parseDuration(getenv("LOCK_RETRY_DELAY", "40ms"), 40*time.Millisecond),
		DebounceWindow: parseDuration(getenv("DEBOUNCE_WINDOW", "2s"), 2*time.Second),
		DedupCacheSize: parseInt(getenv("DEDUP_CACHE_SIZE", "4096"), 4096),
		QueueSize:      parseInt(getenv("QUEUE_SIZE", "256"), 256),
		WorkerCount:    parseInt(getenv("WORKER_COUNT", "8"), 8),

		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SA_JSON"),
		SheetID:                  os.Getenv("SHEET_ID"),
		SheetRange:               getenv("SHEET_RANGE", "TMS!A1"),
		DriveFolderID:            os.Getenv("DRIVE_FOLDER_ID"),
		DashboardURL:             getenv("DASHBOARD_URL", "https://danmiller22.github.io/us-team-fleet-dashboard/"),
	}, nil
}

func parseChatIDs(val string) ([]int64, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	parts := strings.Split(val, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_CHAT_IDS: bad id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
