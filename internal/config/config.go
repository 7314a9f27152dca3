package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	ClientOrigin  string `mapstructure:"CLIENT_ORIGIN"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	// Payments
	StripeAPIKey        string
	StripeWebhookSecret string
	DefaultCurrency     string `mapstructure:"DEFAULT_CURRENCY"`

	// Thank-you copy generation
	AnthropicAPIKey string

	// Email delivery. MailProvider selects "ses" or "smtp".
	MailProvider string `mapstructure:"MAIL_PROVIDER"`
	EmailFrom    string `mapstructure:"EMAIL_FROM"`
	AWSRegion    string `mapstructure:"AWS_REGION"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string

	// CMS content API
	CMSBaseURL  string `mapstructure:"CMS_BASE_URL"`
	CMSAPIToken string

	// Admin access
	AdminPasswordHash string
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read in environment variables that match

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {
		// Handle errors reading the config file, but allow it if it's just "not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// Secrets are read from the environment only, never from a checked-in .env.
	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.CMSAPIToken = os.Getenv("CMS_API_TOKEN")
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "usd"
	}
	if cfg.MailProvider == "" {
		cfg.MailProvider = "ses"
	}

	if cfg.StripeAPIKey == "" {
		return nil, fmt.Errorf("STRIPE_API_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	return &cfg, nil
}
