package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Offers with no explicit deadline expire after this many days
	OfferExpiryDays int `mapstructure:"OFFER_EXPIRY_DAYS"`
	// How often the expiry sweep runs, in minutes
	OfferSweepIntervalMin int `mapstructure:"OFFER_SWEEP_INTERVAL_MIN"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("OFFER_EXPIRY_DAYS", 30)
	viper.SetDefault("OFFER_SWEEP_INTERVAL_MIN", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
