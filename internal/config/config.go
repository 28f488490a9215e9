/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (and an
 * optional .env file), providing a centralized way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the slack-health-bot.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix          string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	SurveyEventExchange           string `mapstructure:"SURVEY_EVENT_EXCHANGE"`
	SlackBotToken                 string `mapstructure:"SLACK_BOT_TOKEN"`
	SlackAPIBaseURL               string `mapstructure:"SLACK_API_BASE_URL"`
	SlackVerificationToken        string `mapstructure:"SLACK_VERIFICATION_TOKEN"`
	InteractionRateLimitPerMinute int    `mapstructure:"INTERACTION_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "drgut:rate_limit")
	viper.SetDefault("SURVEY_EVENT_EXCHANGE", "survey_events")
	viper.SetDefault("INTERACTION_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("SURVEY_EVENT_EXCHANGE")
	_ = viper.BindEnv("SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN", "BOT_TOKEN")
	_ = viper.BindEnv("SLACK_API_BASE_URL")
	_ = viper.BindEnv("SLACK_VERIFICATION_TOKEN", "SLACK_VERIFICATION_TOKEN", "VERIFICATION_TOKEN")
	_ = viper.BindEnv("INTERACTION_RATE_LIMIT_PER_MINUTE")

	// Read the config file if it exists.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		err = nil
	}

	// Unmarshal the config into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	// Railway-style platforms inject PORT; honor it only when SERVER_PORT was
	// never set explicitly. IsSet ignores defaults, so an explicit
	// SERVER_PORT=8080 still wins over PORT.
	if !viper.IsSet("SERVER_PORT") {
		if port := viper.GetString("PORT"); port != "" {
			config.ServerPort = port
		}
	}

	return config, nil
}
