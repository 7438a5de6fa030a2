package internal

import (
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	BadgerFilepath     string `env:"BADGER_FILEPATH,required=true" validate:"required"`
	LogLevel           string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	InboxLimit         *int   `env:"INBOX_LIMIT" validate:"omitempty,gt=0"`
	MaxConflictRetries int    `env:"MAX_CONFLICT_RETRIES,default=3" validate:"gte=1,lte=20"`
}

// LoadConfig reads the environment, after merging an optional .env file.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}
