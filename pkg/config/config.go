package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Ranker   RankerConfig
	Cache    CacheConfig
	Training TrainingConfig
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

type RankerConfig struct {
	ScoringWorkers int
	DefaultK       int
	MaxK           int
}

type CacheConfig struct {
	PreferencesTTL      time.Duration
	ScoreTTL            time.Duration
	PreferencesCapacity int
	ScoreCapacity       int
}

type TrainingConfig struct {
	WindowDays       int
	Epochs           int
	LearningRate     float64
	MinExamples      int
	PromoteTolerance float64
	MaxDwell         time.Duration
	Interval         time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "TripMatch Ranker"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
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
			Name:     getEnv("DB_NAME", "tripmatch"),
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
		Ranker: RankerConfig{
			ScoringWorkers: getEnvInt("RANKER_SCORING_WORKERS", 4),
			DefaultK:       getEnvInt("RANKER_DEFAULT_K", 10),
			MaxK:           getEnvInt("RANKER_MAX_K", 100),
		},
		Cache: CacheConfig{
			PreferencesTTL:      getEnvDuration("CACHE_PREFERENCES_TTL", 6*time.Hour),
			ScoreTTL:            getEnvDuration("CACHE_SCORE_TTL", 30*time.Minute),
			PreferencesCapacity: getEnvInt("CACHE_PREFERENCES_CAPACITY", 10000),
			ScoreCapacity:       getEnvInt("CACHE_SCORE_CAPACITY", 100000),
		},
		Training: TrainingConfig{
			WindowDays:       getEnvInt("TRAINING_WINDOW_DAYS", 30),
			Epochs:           getEnvInt("TRAINING_EPOCHS", 50),
			LearningRate:     getEnvFloat("TRAINING_LEARNING_RATE", 0.05),
			MinExamples:      getEnvInt("TRAINING_MIN_EXAMPLES", 500),
			PromoteTolerance: getEnvFloat("TRAINING_PROMOTE_TOLERANCE", 0.0),
			MaxDwell:         getEnvDuration("TRAINING_MAX_DWELL", 30*time.Minute),
			Interval:         getEnvDuration("TRAINING_INTERVAL", 24*time.Hour),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
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
