package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ceblhub/team-tracker/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level

	CEBLBaseURL               string
	CEBLAPIKey                string
	CEBLSeason                string
	CEBLTeamIDs               []string
	CEBLTimeout               time.Duration
	CEBLMaxRetries            int
	CEBLCircuitEnabled        bool
	CEBLCircuitFailureCount   int
	CEBLCircuitOpenTimeout    time.Duration
	CEBLCircuitHalfOpenMaxReq int

	GeniusBaseURL               string
	GeniusTimeout               time.Duration
	GeniusCircuitEnabled        bool
	GeniusCircuitFailureCount   int
	GeniusCircuitOpenTimeout    time.Duration
	GeniusCircuitHalfOpenMaxReq int

	TrackerLiveInterval    time.Duration
	TrackerNearInterval    time.Duration
	TrackerIdleInterval    time.Duration
	TrackerNearWindow      time.Duration
	TrackerPregameGrace    time.Duration
	TrackerMaxGameDuration time.Duration
	TrackerAbandonTimeout  time.Duration
	TrackerScheduleTTL     time.Duration
	TrackerTickPoolSize    int

	WebhookEnabled               bool
	WebhookURL                   string
	WebhookToken                 string
	WebhookTimeout               time.Duration
	WebhookCircuitEnabled        bool
	WebhookCircuitFailureCount   int
	WebhookCircuitOpenTimeout    time.Duration
	WebhookCircuitHalfOpenMaxReq int

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "team-tracker"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg.CEBLBaseURL = strings.TrimSpace(getEnv("CEBL_BASE_URL", "https://api.data.cebl.ca"))
	cfg.CEBLAPIKey = strings.TrimSpace(getEnv("CEBL_API_KEY", ""))
	if cfg.CEBLAPIKey == "" {
		return Config{}, fmt.Errorf("CEBL_API_KEY is required")
	}
	cfg.CEBLSeason = strings.TrimSpace(getEnv("CEBL_SEASON", strconv.Itoa(time.Now().UTC().Year())))
	cfg.CEBLTeamIDs = splitCSV(getEnv("CEBL_TEAM_IDS", ""))
	if len(cfg.CEBLTeamIDs) == 0 {
		return Config{}, fmt.Errorf("CEBL_TEAM_IDS is required, expected a comma separated list of team ids")
	}
	cfg.CEBLTimeout, err = getEnvAsDuration("CEBL_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	cfg.CEBLMaxRetries, err = getEnvAsInt("CEBL_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CEBL_MAX_RETRIES: %w", err)
	}
	if cfg.CEBLMaxRetries < 0 {
		return Config{}, fmt.Errorf("CEBL_MAX_RETRIES must be >= 0")
	}
	cfg.CEBLCircuitEnabled, cfg.CEBLCircuitFailureCount, cfg.CEBLCircuitOpenTimeout, cfg.CEBLCircuitHalfOpenMaxReq, err = loadCircuitSettings("CEBL")
	if err != nil {
		return Config{}, err
	}

	cfg.GeniusBaseURL = strings.TrimSpace(getEnv("GENIUS_BASE_URL", "https://fibalivestats.dcd.shared.geniussports.com"))
	cfg.GeniusTimeout, err = getEnvAsDuration("GENIUS_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	cfg.GeniusCircuitEnabled, cfg.GeniusCircuitFailureCount, cfg.GeniusCircuitOpenTimeout, cfg.GeniusCircuitHalfOpenMaxReq, err = loadCircuitSettings("GENIUS")
	if err != nil {
		return Config{}, err
	}

	cfg.TrackerLiveInterval, err = getEnvAsDuration("TRACKER_LIVE_INTERVAL", "30s")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerNearInterval, err = getEnvAsDuration("TRACKER_NEAR_INTERVAL", "1m")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerIdleInterval, err = getEnvAsDuration("TRACKER_IDLE_INTERVAL", "10m")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerNearWindow, err = getEnvAsDuration("TRACKER_NEAR_WINDOW", "30m")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerPregameGrace, err = getEnvAsDuration("TRACKER_PREGAME_GRACE", "10m")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerMaxGameDuration, err = getEnvAsDuration("TRACKER_MAX_GAME_DURATION", "4h")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerAbandonTimeout, err = getEnvAsDuration("TRACKER_ABANDON_TIMEOUT", "1h")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerScheduleTTL, err = getEnvAsDuration("TRACKER_SCHEDULE_TTL", "1h")
	if err != nil {
		return Config{}, err
	}
	cfg.TrackerTickPoolSize, err = getEnvAsInt("TRACKER_TICK_POOL_SIZE", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_TICK_POOL_SIZE: %w", err)
	}
	if cfg.TrackerTickPoolSize < 1 {
		return Config{}, fmt.Errorf("TRACKER_TICK_POOL_SIZE must be >= 1")
	}
	if cfg.TrackerLiveInterval > cfg.TrackerNearInterval || cfg.TrackerNearInterval > cfg.TrackerIdleInterval {
		return Config{}, fmt.Errorf("tracker intervals must satisfy live <= near <= idle")
	}

	cfg.WebhookEnabled, err = getEnvAsBool("WEBHOOK_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookURL = strings.TrimSpace(getEnv("WEBHOOK_URL", ""))
	cfg.WebhookToken = strings.TrimSpace(getEnv("WEBHOOK_TOKEN", ""))
	if cfg.WebhookEnabled && cfg.WebhookURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED=true")
	}
	cfg.WebhookTimeout, err = getEnvAsDuration("WEBHOOK_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookCircuitEnabled, cfg.WebhookCircuitFailureCount, cfg.WebhookCircuitOpenTimeout, cfg.WebhookCircuitHalfOpenMaxReq, err = loadCircuitSettings("WEBHOOK")
	if err != nil {
		return Config{}, err
	}

	cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadCircuitSettings(prefix string) (enabled bool, failureCount int, openTimeout time.Duration, halfOpenMaxReq int, err error) {
	enabled, err = getEnvAsBool(prefix+"_CIRCUIT_ENABLED", "true")
	if err != nil {
		return false, 0, 0, 0, err
	}
	failureCount, err = getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return false, 0, 0, 0, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return false, 0, 0, 0, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err = getEnvAsDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return false, 0, 0, 0, err
	}
	halfOpenMaxReq, err = getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return false, 0, 0, 0, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return false, 0, 0, 0, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return enabled, failureCount, openTimeout, halfOpenMaxReq, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
