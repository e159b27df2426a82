package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug                        bool   `envconfig:"debug"`
	Port                         int    `envconfig:"port"`
	Env                          string `envconfig:"env"`
	Host                         string `envconfig:"host"`
	BaseUrl                      string `envconfig:"base_url"`
	PostgresHost                 string `envconfig:"postgres_host"`
	PostgresUser                 string `envconfig:"postgres_user"`
	PostgresDB                   string `envconfig:"postgres_db"`
	PostgresPort                 int    `envconfig:"postgres_port"`
	PostgresPassword             string `envconfig:"postgres_password"`
	JWTSecret                    string `envconfig:"jwt_secret"`
	InternalAPIToken             string `envconfig:"internal_api_token"`
	MailgunApiKey                string `envconfig:"mg_public_api_key"`
	MgDomain                     string `envconfig:"mg_domain"`
	MgEmailFrom                  string `envconfig:"email_from"`
	AwsRegion                    string `envconfig:"aws_region"`
	AwsBucket                    string `envconfig:"aws_bucket"`
	GoogleApplicationCredentials string `envconfig:"google_application_credentials"`
	AccessControlAllowOrigin     string `envconfig:"access_control_allow_origin"`
	TypingTTLSeconds             int    `envconfig:"typing_ttl_seconds"`
	MessageUndoWindowHours       int    `envconfig:"message_undo_window_hours"`
	MessageRetentionDays         int    `envconfig:"message_retention_days"`
	OfferExpiryHours             int    `envconfig:"offer_expiry_hours"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("rushr", c)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.TypingTTLSeconds == 0 {
		c.TypingTTLSeconds = 8
	}
	if c.MessageUndoWindowHours == 0 {
		c.MessageUndoWindowHours = 24
	}
	if c.MessageRetentionDays == 0 {
		c.MessageRetentionDays = 30
	}
	if c.OfferExpiryHours == 0 {
		c.OfferExpiryHours = 72
	}
}

// TypingTTL is how long a typing flag stays meaningful before readers
// must treat it as stale.
func (c *Config) TypingTTL() time.Duration {
	return time.Duration(c.TypingTTLSeconds) * time.Second
}

// UndoWindow is how long a message author may soft-delete their own message.
func (c *Config) UndoWindow() time.Duration {
	return time.Duration(c.MessageUndoWindowHours) * time.Hour
}

// RetentionPeriod is how long soft-deleted messages are kept before the
// purge sweep may remove them.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.MessageRetentionDays) * 24 * time.Hour
}

// OfferTTL is how long an offer stays open before the expiry sweep
// marks it expired.
func (c *Config) OfferTTL() time.Duration {
	return time.Duration(c.OfferExpiryHours) * time.Hour
}
