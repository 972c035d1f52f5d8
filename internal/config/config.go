package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"local"`
	Addr     string `env:"HTTP_ADDR" env-default:"0.0.0.0:8080"`
	Doodle   DoodleConfig
	Postgres PostgresConfig
	JWT      JWTConfig
}

type DoodleConfig struct {
	ConsumerKey    string        `env:"DOODLE_CONSUMER_KEY" env-required:"true"`
	ConsumerSecret string        `env:"DOODLE_CONSUMER_SECRET" env-required:"true"`
	BaseURL        string        `env:"DOODLE_BASE_URL" env-default:"https://doodle.com/api1"`
	Timeout        time.Duration `env:"DOODLE_TIMEOUT" env-default:"30s"`
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `env:"POSTGRES_PORT" env-default:"5432"`
	User     string `env:"POSTGRES_USER" env-default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	DB       string `env:"POSTGRES_DB" env-default:"dood"`
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET" env-required:"true"`
	Issuer string `env:"JWT_ISSUER"`
}

func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.DB)
}

// Load reads the given .env files, if they exist, and then the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot load %s: %w", f, err)
		}
	}
	return nil
}

// LoadPostgres reads only the database settings, for tools that never talk
// to doodle.com.
func LoadPostgres(envFiles ...string) (*PostgresConfig, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var cfg PostgresConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read postgres config: %w", err)
	}
	return &cfg, nil
}
