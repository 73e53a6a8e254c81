package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND
const (
	BackendXLSX     = "xlsx"
	BackendPostgres = "postgres"
	BackendTurso    = "turso"
	BackendSQLite   = "sqlite"
)

const (
	defaultRegion       = "americas"
	defaultPlatform     = "na1"
	defaultQueueID      = 420 // ranked solo/duo
	defaultWorkbook     = "ranked.xlsx"
	defaultSQLitePath   = "ranked.db"
	defaultSchedule     = "@every 10m"
	defaultHistoryDepth = 100

	// DefaultAFKRatio flags a player whose XP gain per frame is below this
	// share of their team's average
	DefaultAFKRatio = 0.35

	// DefaultFallbackAfterPasses mirrors the role engine default
	DefaultFallbackAfterPasses = 3

	smiteSpellID = 11
)

// envPaths are tried in order; the first .env found wins
var envPaths = []string{".env", "../.env", "../../.env"}

// Config is everything the tracker binaries read from the environment
type Config struct {
	RiotAPIKey string
	RiotID     string
	Region     string
	Platform   string
	QueueID    int

	StoreBackend string
	WorkbookPath string
	DatabaseURL  string
	TursoURL     string
	TursoToken   string
	SQLitePath   string

	BlobStoragePath   string
	DiscordWebhookURL string
	DiscordBotToken   string // with DiscordChannelID, enables key recovery
	DiscordChannelID  string
	Location          *time.Location
	CheckDuoer        bool
	PollSchedule      string
	FeedAddr          string
	AffinityFile      string
	ChampionDBPath    string
	HistoryDepth      int

	LogLevel  string
	LogFormat string

	FallbackAfterPasses int
	JungleClearSpells   []int
	AFKRatio            float64
}

// LoadEnv loads the first .env file found and returns its path, or "" when
// none exists and only the process environment is used
func LoadEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		RiotAPIKey: firstEnv("RIOT_API_KEY", "RIOT-DEV-KEY"),
		RiotID:     env("RIOT_ID", ""),
		Region:     env("RIOT_REGION", defaultRegion),
		Platform:   env("RIOT_PLATFORM", defaultPlatform),

		StoreBackend: strings.ToLower(env("STORE_BACKEND", BackendXLSX)),
		WorkbookPath: env("WORKBOOK_PATH", defaultWorkbook),
		DatabaseURL:  env("DATABASE_URL", ""),
		TursoURL:     env("TURSO_DATABASE_URL", ""),
		TursoToken:   env("TURSO_AUTH_TOKEN", ""),
		SQLitePath:   env("SQLITE_PATH", defaultSQLitePath),

		BlobStoragePath:   env("BLOB_STORAGE_PATH", ""),
		DiscordWebhookURL: env("DISCORD_WEBHOOK_URL", ""),
		DiscordBotToken:   env("DISCORD_BOT_TOKEN", ""),
		DiscordChannelID:  env("DISCORD_CHANNEL_ID", ""),
		PollSchedule:      env("POLL_SCHEDULE", defaultSchedule),
		FeedAddr:          env("FEED_ADDR", ""),
		AffinityFile:      env("AFFINITY_FILE", ""),
		ChampionDBPath:    env("CHAMPION_DB_PATH", ""),

		LogLevel:  env("LOG_LEVEL", "info"),
		LogFormat: env("LOG_FORMAT", "text"),

		JungleClearSpells: []int{smiteSpellID},
	}

	var err error
	if cfg.QueueID, err = envInt("QUEUE_ID", defaultQueueID); err != nil {
		return nil, err
	}
	if cfg.HistoryDepth, err = envInt("HISTORY_DEPTH", defaultHistoryDepth); err != nil {
		return nil, err
	}
	if cfg.FallbackAfterPasses, err = envInt("ROLE_FALLBACK_PASSES", DefaultFallbackAfterPasses); err != nil {
		return nil, err
	}
	if cfg.AFKRatio, err = envFloat("AFK_RATIO", DefaultAFKRatio); err != nil {
		return nil, err
	}
	if cfg.CheckDuoer, err = envBool("CHECK_DUOER", false); err != nil {
		return nil, err
	}

	cfg.Location = time.Local
	if tz := env("TIMEZONE", ""); tz != "" {
		if cfg.Location, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("TIMEZONE: %w", err)
		}
	}

	return cfg, nil
}

// KeyRecoveryEnabled reports whether a rejected key can be replaced from Discord
func (c *Config) KeyRecoveryEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordChannelID != ""
}

// Validate checks the settings a tracker run cannot start without
func (c *Config) Validate() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set")
	}
	if _, _, err := SplitRiotID(c.RiotID); err != nil {
		return err
	}

	switch c.StoreBackend {
	case BackendXLSX:
		if c.WorkbookPath == "" {
			return fmt.Errorf("WORKBOOK_PATH not set")
		}
	case BackendPostgres:
		// db.New falls back to the local default when DATABASE_URL is empty
	case BackendTurso:
		if c.TursoURL == "" {
			return fmt.Errorf("TURSO_DATABASE_URL not set")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.AFKRatio <= 0 || c.AFKRatio >= 1 {
		return fmt.Errorf("AFK_RATIO must be between 0 and 1, got %v", c.AFKRatio)
	}
	return nil
}

// SplitRiotID splits "GameName#TagLine"
func SplitRiotID(id string) (gameName, tagLine string, err error) {
	parts := strings.SplitN(id, "#", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid Riot ID format '%s', expected 'GameName#TagLine'", id)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// MaskKey shows only the ends of an API key
func MaskKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func env(key, def string) string {
	// quotes survive some .env writers
	if v := strings.Trim(os.Getenv(key), "\""); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := env(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) (int, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
