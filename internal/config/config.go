package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Google struct {
	APIKey   string
	BaseURL  string
	Language string
	// QuerySuffix is appended to every text search so results lean toward
	// tourist attractions.
	QuerySuffix   string
	NearbyRadiusM int
	NearbyLimit   int
}

type Naver struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type Config struct {
	AppEnv string

	HTTPAddr string

	Google Google
	Naver  Naver

	UpstreamTimeout time.Duration
	// NearbyPause is slept after every nearby search to stay under the
	// places API rate limit.
	NearbyPause time.Duration

	RejectLatinAddresses bool
	ThumbnailWidth       int

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
	RedisURL  string

	CORSOrigins []string

	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// Load reads configuration from the environment (and .env when present).
// Missing API credentials are reported together in a single error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.Google = Google{
		APIKey:        getEnv("GOOGLE_API_KEY", getEnv("Google_key", "")),
		BaseURL:       strings.TrimRight(getEnv("GOOGLE_BASE_URL", "https://maps.googleapis.com"), "/"),
		Language:      getEnv("PLACES_LANGUAGE", "ko"),
		QuerySuffix:   getEnv("PLACES_QUERY_SUFFIX", "관광지"),
		NearbyRadiusM: getIntEnv("NEARBY_RADIUS_M", 2000),
		NearbyLimit:   getIntEnv("NEARBY_LIMIT", 15),
	}
	cfg.Naver = Naver{
		ClientID:     getEnv("NAVER_CLIENT_ID", ""),
		ClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
		BaseURL:      strings.TrimRight(getEnv("NAVER_BASE_URL", "https://openapi.naver.com"), "/"),
	}

	cfg.UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.NearbyPause = getDuration("NEARBY_PAUSE", 1*time.Second)

	cfg.RejectLatinAddresses = getBool("REJECT_LATIN_ADDRESSES", true)
	cfg.ThumbnailWidth = getIntEnv("THUMBNAIL_WIDTH", 640)

	// Rate Limiting Defaults: 60 reqs / 1 min
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getIntEnv("RL_LIMIT", 60)
	cfg.RLWindow = getDuration("RL_WINDOW", 1*time.Minute)
	cfg.RedisURL = getEnv("REDIS_URL", "")

	cfg.CORSOrigins = getList("CORS_ORIGINS", []string{"*"})

	cfg.ServiceName = getEnv("OTEL_SERVICE_NAME", "tour-eats")
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.OTLPInsecure = getBool("OTEL_EXPORTER_OTLP_INSECURE", true)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 60*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Google.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.Naver.ClientID == "" {
		missing = append(missing, "NAVER_CLIENT_ID")
	}
	if c.Naver.ClientSecret == "" {
		missing = append(missing, "NAVER_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	if c.Google.NearbyLimit <= 0 {
		return fmt.Errorf("NEARBY_LIMIT must be positive")
	}
	if c.Google.NearbyRadiusM <= 0 || c.Google.NearbyRadiusM > 50000 {
		return fmt.Errorf("NEARBY_RADIUS_M must be between 1 and 50000")
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
