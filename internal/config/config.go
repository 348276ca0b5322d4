package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"squabble_server/internal/logger"
)

type Config struct {
	AppPort       string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL      string `env:"REDIS_URL"`
	BotToken      string `env:"BOT_TOKEN"`
	JWTSecret     string `env:"JWT_SECRET"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// TON
	TONNetwork         string `env:"TON_NETWORK" envDefault:"mainnet"`
	TONAPIKey          string `env:"TON_API_KEY"`
	TONWalletMnemonic  string `env:"TON_WALLET_MNEMONIC"`
	SettlementContract string `env:"TON_SETTLEMENT_CONTRACT"`
	StakeVerify        bool   `env:"TON_STAKE_VERIFY" envDefault:"false"`

	// Игра
	GameDuration   time.Duration `env:"GAME_DURATION" envDefault:"60s"`
	TickInterval   time.Duration `env:"GAME_TICK_INTERVAL" envDefault:"1200ms"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	DictionaryPath string        `env:"DICTIONARY_PATH" envDefault:"data/words.txt"`
	CallTimeout    time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"10s"`

	// лимиты
	WSMessagesPerSecond float64 `env:"WS_RATE_LIMIT" envDefault:"20"`
	WSBurst             int     `env:"WS_RATE_BURST" envDefault:"40"`
	APIRequestsPerSec   float64 `env:"API_RATE_LIMIT" envDefault:"10"`
	APIBurst            int     `env:"API_RATE_BURST" envDefault:"20"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Parse читает окружение без .env файла
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load подхватывает .env если он есть и завершает процесс при ошибке
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env not loaded", "error", err)
	}
	cfg, err := Parse()
	if err != nil {
		logger.Fatal("config load failed", "error", err)
	}
	return cfg
}

// GameDurationSeconds - длительность раунда в тиках по одной секунде
func (c *Config) GameDurationSeconds() int {
	return int(c.GameDuration / time.Second)
}

func (c *Config) IsTestnet() bool {
	return c.TONNetwork == "testnet"
}

func (c *Config) validate() error {
	if c.GameDuration < time.Second {
		return fmt.Errorf("%w: GAME_DURATION must be at least 1s", ErrInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: GAME_TICK_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.TONNetwork != "mainnet" && c.TONNetwork != "testnet" {
		return fmt.Errorf("%w: TON_NETWORK must be mainnet or testnet", ErrInvalidConfig)
	}
	return nil
}
