// internal/config/config.go
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings for the server process.
// Values are loaded once at startup; a .env file is picked up via godotenv
// autoload in main before this is processed.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// RedisAddr enables the message feed queue when set. Empty disables it.
	RedisAddr        string `envconfig:"REDIS_ADDR"`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	MessageFeedQueue string `envconfig:"MESSAGE_FEED_QUEUE" default:"amity_messages"`

	// Retention settings for the feed worker. A conversation's messages
	// older than MessageRetention are pruned once the conversation has been
	// idle for ConversationIdleAfter.
	MessageRetention      time.Duration `envconfig:"MESSAGE_RETENTION" default:"720h"`
	ConversationIdleAfter time.Duration `envconfig:"CONVERSATION_IDLE_AFTER" default:"10m"`

	// Ed25519 key files for JWT signing. When unset a fresh pair is
	// generated at startup, which invalidates tokens across restarts.
	JWTPrivateKeyPath string `envconfig:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string `envconfig:"JWT_PUBLIC_KEY_PATH"`
}

// Load processes the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
