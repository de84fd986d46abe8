package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"shopsense/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	API       APIConfig
	Mailjet   MailjetConfig
	Recommend RecommendConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
}

type APIConfig struct {
	// Keys accepted in the X-API-Key header for the public endpoints.
	Keys []string
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

type RecommendConfig struct {
	// Default signal weights used outside any experiment.
	CFWeight       float64
	CBWeight       float64
	ContextWeight  float64
	TrendingWeight float64

	// MMR trade-off: higher favors pure relevance.
	MMRLambda float64

	// Active experiment driving per-user weight variants, empty disables.
	ExperimentID string

	ScorerTimeout time.Duration
	CFCacheTTL    time.Duration
	CBCacheTTL    time.Duration
	TrendCacheTTL time.Duration
}

// Baseline returns the configured default weights.
func (r RecommendConfig) Baseline() domain.WeightConfig {
	return domain.WeightConfig{
		CFWeight:       r.CFWeight,
		CBWeight:       r.CBWeight,
		ContextWeight:  r.ContextWeight,
		TrendingWeight: r.TrendingWeight,
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ShopSense Recommendation API"),
			Version:     getEnv("APP_VERSION", "2.1.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "shopsense"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		API: APIConfig{
			Keys: splitKeys(getEnv("API_KEYS", "")),
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", ""),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", ""),
		},
		Recommend: RecommendConfig{
			CFWeight:       getEnvFloat("REC_CF_WEIGHT", 0.4),
			CBWeight:       getEnvFloat("REC_CB_WEIGHT", 0.3),
			ContextWeight:  getEnvFloat("REC_CONTEXT_WEIGHT", 0.2),
			TrendingWeight: getEnvFloat("REC_TRENDING_WEIGHT", 0.1),
			MMRLambda:      getEnvFloat("REC_MMR_LAMBDA", 0.7),
			ExperimentID:   getEnv("REC_EXPERIMENT_ID", ""),
			ScorerTimeout:  getEnvDuration("REC_SCORER_TIMEOUT", 50*time.Millisecond),
			CFCacheTTL:     getEnvDuration("REC_CF_CACHE_TTL", 5*time.Minute),
			CBCacheTTL:     getEnvDuration("REC_CB_CACHE_TTL", 5*time.Minute),
			TrendCacheTTL:  getEnvDuration("REC_TREND_CACHE_TTL", time.Minute),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if len(cfg.API.Keys) == 0 {
		return nil, errors.New("missing api keys")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Recommend.MMRLambda <= 0 || cfg.Recommend.MMRLambda > 1 {
		return nil, errors.New("mmr lambda must be in (0,1]")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}

func splitKeys(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}

	return keys
}
