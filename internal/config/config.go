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

	// Chat settings. NotificationPreviewLength bounds the content stored on
	// offline-message notifications so payloads stay small.
	NotificationPreviewLength int `mapstructure:"NOTIFICATION_PREVIEW_LENGTH"`
	TypingThrottleSeconds     int `mapstructure:"TYPING_THROTTLE_SECONDS"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("NOTIFICATION_PREVIEW_LENGTH", 100)
	viper.SetDefault("TYPING_THROTTLE_SECONDS", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
