package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	TurnSeconds   int           `env:"TURN_SECONDS" envDefault:"90"`
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"60m"`
	SweepEvery    time.Duration `env:"SWEEP_EVERY" envDefault:"5m"`
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
