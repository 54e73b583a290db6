package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the reconcile passes.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	LogLevel     logging.Level
	LogFile      string
	LogMaxSizeMB int

	DBURL          string
	DBMaxOpenConns int
	DBLockTimeout  time.Duration
	StoreBackend   string
	RedisURL       string
	LockBackend    string
	LockTTL        time.Duration

	ResolveFuzzyThreshold    float64
	ResolveCandidateLimit    int
	DedupSimilarityThreshold float64
	StateAdjacency           string
	WorkerCount              int

	SourceMapCacheTTL       time.Duration
	AliasBloomEnabled       bool
	AliasBloomExpected      uint
	AliasBloomFalsePositive float64

	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
	MergeRetryMax           int

	MetricsPushURL string
	MetricsJob     string

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	LockMemory   = "memory"
	LockPostgres = "postgres"
	LockRedis    = "redis"
)

// LoadDotEnv reads .env and then .env.local into the process environment.
// Variables already set are left alone and missing files are ignored.
func LoadDotEnv() {
	for _, file := range []string{".env", ".env.local"} {
		_ = godotenv.Load(file)
	}
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logMaxSizeMB, err := getEnvAsInt("LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_MAX_SIZE_MB: %w", err)
	}
	if logMaxSizeMB <= 0 {
		return Config{}, fmt.Errorf("LOG_MAX_SIZE_MB must be > 0")
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	storeDefault := StoreMemory
	if dbURL != "" {
		storeDefault = StorePostgres
	}
	storeBackend := strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", storeDefault)))
	switch storeBackend {
	case StoreMemory:
	case StorePostgres:
		if dbURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s", storeBackend, StoreMemory, StorePostgres)
	}
	dbMaxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	if dbMaxOpenConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}

	lockDefault := LockMemory
	if storeBackend == StorePostgres {
		lockDefault = LockPostgres
	}
	lockBackend := strings.ToLower(strings.TrimSpace(getEnv("LOCK_BACKEND", lockDefault)))
	redisURL := strings.TrimSpace(getEnv("REDIS_URL", ""))
	switch lockBackend {
	case LockMemory:
	case LockPostgres:
		if storeBackend != StorePostgres {
			return Config{}, fmt.Errorf("LOCK_BACKEND=postgres needs STORE_BACKEND=postgres")
		}
	case LockRedis:
		if redisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when LOCK_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("invalid LOCK_BACKEND %q: valid values are %s, %s, %s", lockBackend, LockMemory, LockPostgres, LockRedis)
	}
	dbLockTimeout, err := time.ParseDuration(getEnv("DB_LOCK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_LOCK_TIMEOUT: %w", err)
	}
	if dbLockTimeout < 0 {
		return Config{}, fmt.Errorf("DB_LOCK_TIMEOUT must be >= 0")
	}
	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOCK_TTL: %w", err)
	}
	if lockTTL <= 0 {
		return Config{}, fmt.Errorf("LOCK_TTL must be > 0")
	}

	fuzzyThreshold, err := getEnvAsFloat("RESOLVE_FUZZY_THRESHOLD", 0.5)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_FUZZY_THRESHOLD: %w", err)
	}
	if fuzzyThreshold <= 0 || fuzzyThreshold > 1 {
		return Config{}, fmt.Errorf("RESOLVE_FUZZY_THRESHOLD must be in (0, 1]")
	}
	dedupThreshold, err := getEnvAsFloat("DEDUP_SIMILARITY_THRESHOLD", 0.75)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEDUP_SIMILARITY_THRESHOLD: %w", err)
	}
	if dedupThreshold <= 0 || dedupThreshold > 1 {
		return Config{}, fmt.Errorf("DEDUP_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	candidateLimit, err := getEnvAsInt("RESOLVE_CANDIDATE_LIMIT", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_CANDIDATE_LIMIT: %w", err)
	}
	if candidateLimit <= 0 {
		return Config{}, fmt.Errorf("RESOLVE_CANDIDATE_LIMIT must be > 0")
	}
	workerCount, err := getEnvAsInt("WORKER_COUNT", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse WORKER_COUNT: %w", err)
	}
	if workerCount <= 0 {
		return Config{}, fmt.Errorf("WORKER_COUNT must be > 0")
	}

	sourceMapCacheTTL, err := time.ParseDuration(getEnv("SOURCE_MAP_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_MAP_CACHE_TTL: %w", err)
	}
	if sourceMapCacheTTL < 0 {
		return Config{}, fmt.Errorf("SOURCE_MAP_CACHE_TTL must be >= 0")
	}

	aliasBloomEnabled, err := strconv.ParseBool(getEnv("ALIAS_BLOOM_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ALIAS_BLOOM_ENABLED: %w", err)
	}
	aliasBloomExpected, err := getEnvAsInt("ALIAS_BLOOM_EXPECTED", 500000)
	if err != nil {
		return Config{}, fmt.Errorf("parse ALIAS_BLOOM_EXPECTED: %w", err)
	}
	if aliasBloomExpected <= 0 {
		return Config{}, fmt.Errorf("ALIAS_BLOOM_EXPECTED must be > 0")
	}
	aliasBloomFP, err := getEnvAsFloat("ALIAS_BLOOM_FALSE_POSITIVE", 0.01)
	if err != nil {
		return Config{}, fmt.Errorf("parse ALIAS_BLOOM_FALSE_POSITIVE: %w", err)
	}
	if aliasBloomFP <= 0 || aliasBloomFP >= 1 {
		return Config{}, fmt.Errorf("ALIAS_BLOOM_FALSE_POSITIVE must be in (0, 1)")
	}

	breakerThreshold, err := getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse BREAKER_FAILURE_THRESHOLD: %w", err)
	}
	if breakerThreshold <= 0 {
		return Config{}, fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be > 0")
	}
	breakerOpenTimeout, err := time.ParseDuration(getEnv("BREAKER_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BREAKER_OPEN_TIMEOUT: %w", err)
	}
	if breakerOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("BREAKER_OPEN_TIMEOUT must be > 0")
	}
	mergeRetryMax, err := getEnvAsInt("MERGE_RETRY_MAX", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse MERGE_RETRY_MAX: %w", err)
	}
	if mergeRetryMax <= 0 {
		return Config{}, fmt.Errorf("MERGE_RETRY_MAX must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	serviceName := getEnv("SERVICE_NAME", "soccerview-reconcile")

	return Config{
		AppEnv:         appEnv,
		ServiceName:    serviceName,
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),

		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:      strings.TrimSpace(getEnv("LOG_FILE", "")),
		LogMaxSizeMB: logMaxSizeMB,

		DBURL:          dbURL,
		DBMaxOpenConns: dbMaxOpenConns,
		DBLockTimeout:  dbLockTimeout,
		StoreBackend:   storeBackend,
		RedisURL:       redisURL,
		LockBackend:    lockBackend,
		LockTTL:        lockTTL,

		ResolveFuzzyThreshold:    fuzzyThreshold,
		ResolveCandidateLimit:    candidateLimit,
		DedupSimilarityThreshold: dedupThreshold,
		StateAdjacency:           strings.TrimSpace(getEnv("STATE_ADJACENCY", "")),
		WorkerCount:              workerCount,

		SourceMapCacheTTL:       sourceMapCacheTTL,
		AliasBloomEnabled:       aliasBloomEnabled,
		AliasBloomExpected:      uint(aliasBloomExpected),
		AliasBloomFalsePositive: aliasBloomFP,

		BreakerFailureThreshold: breakerThreshold,
		BreakerOpenTimeout:      breakerOpenTimeout,
		MergeRetryMax:           mergeRetryMax,

		MetricsPushURL: strings.TrimSpace(getEnv("METRICS_PUSH_URL", "")),
		MetricsJob:     getEnv("METRICS_JOB", serviceName),

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
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

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
