package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo       MongoConfig
	Redis       RedisConfig
	Recognition RecognitionConfig
	Parking     ParkingConfig
	Cleanup     CleanupConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auragate"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// RecognitionConfig points at the external feature-extraction service.
type RecognitionConfig struct {
	BaseURL        string `env:"RECOGNITION_URL,     default=http://localhost:5000"`
	TimeoutSeconds int    `env:"RECOGNITION_TIMEOUT, default=30"`
}

// ParkingConfig carries lot capacities and matching/counting policy.
type ParkingConfig struct {
	TotalCarSlots  int     `env:"TOTAL_CAR_SLOTS,  default=10"`
	TotalBikeSlots int     `env:"TOTAL_BIKE_SLOTS, default=20"`
	MatchThreshold float64 `env:"MATCH_THRESHOLD,  default=0.95"`
	// Legacy asymmetric gating: increment only for guests, decrement for
	// any typed session. Flip DecrementGuestOnly for symmetric counting.
	IncrementGuestOnly bool `env:"SLOTS_INCREMENT_GUEST_ONLY, default=true"`
	DecrementGuestOnly bool `env:"SLOTS_DECREMENT_GUEST_ONLY, default=false"`
}

// CleanupConfig controls guest-record removal after exit.
type CleanupConfig struct {
	DelaySeconds   int `env:"GUEST_CLEANUP_DELAY,   default=1"`
	MaxRetries     int `env:"GUEST_CLEANUP_RETRIES, default=3"`
	SweepMinutes   int `env:"GUEST_SWEEP_INTERVAL,  default=60"`
	SweepMinAgeMin int `env:"GUEST_SWEEP_MIN_AGE,   default=120"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
