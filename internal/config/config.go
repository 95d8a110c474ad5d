package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Listing  ListingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// UpstreamConfig points the gateway at the backend API that owns all
// business logic, and at the exchange-rate provider.
type UpstreamConfig struct {
	BaseURL       string
	RatesURL      string
	ClientTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type ListingConfig struct {
	PageSize          int
	ReferenceCurrency string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:4200")
	viper.SetDefault("UPSTREAM_BASE_URL", "http://localhost:7233/api")
	viper.SetDefault("RATES_URL", "https://api.exchangerate-api.com/v4/latest/USD")
	viper.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LISTING_PAGE_SIZE", 15)
	viper.SetDefault("REFERENCE_CURRENCY", "USD")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: viper.GetStringSlice("ALLOWED_ORIGINS"),
		},
		Upstream: UpstreamConfig{
			BaseURL:       viper.GetString("UPSTREAM_BASE_URL"),
			RatesURL:      viper.GetString("RATES_URL"),
			ClientTimeout: time.Duration(viper.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Listing: ListingConfig{
			PageSize:          viper.GetInt("LISTING_PAGE_SIZE"),
			ReferenceCurrency: viper.GetString("REFERENCE_CURRENCY"),
		},
	}
}
