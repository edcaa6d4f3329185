package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env  string `env:"ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"8080"`

	DBURL string `env:"DB_URL" env-required:"true"`

	AccessTokenSecret string `env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	AccessExpiryMin   int    `env:"ACCESS_TOKEN_EXPIRY" env-default:"15"`
	RefreshExpiryDays int    `env:"REFRESH_TOKEN_EXPIRY_DAYS" env-default:"30"`

	CookieDomain string `env:"COOKIE_DOMAIN" env-default:""`

	TwitchClientID     string `env:"TWITCH_CLIENT_ID" env-default:""`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET" env-default:""`
	TwitchTokenURL     string `env:"TWITCH_TOKEN_URL" env-default:"https://id.twitch.tv/oauth2/token"`
	IGDBBaseURL        string `env:"IGDB_BASE_URL" env-default:"https://api.igdb.com/v4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if len(cfg.AccessTokenSecret) < 32 {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET must be at least 32 bytes")
	}

	return &cfg, nil
}
