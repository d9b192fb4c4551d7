package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pior/sam"
	"github.com/pior/sam/reply"
	"github.com/rs/zerolog"
)

type cliConfig struct {
	Bridges       []string
	MaxSize       int32
	Timeout       time.Duration
	IdleTimeout   time.Duration
	SignatureType int
	LogLevel      zerolog.Level
	MetricsAddr   string
	Breaker       bool
}

func defaultConfig() cliConfig {
	return cliConfig{
		Bridges:       []string{fmt.Sprintf("127.0.0.1:%d", reply.DefaultPort)},
		MaxSize:       sam.DefaultMaxSize,
		Timeout:       time.Minute,
		IdleTimeout:   5 * time.Minute,
		SignatureType: sam.DefaultSignatureType,
		LogLevel:      zerolog.InfoLevel,
	}
}

type fileConfig struct {
	Bridges       []string `toml:"bridges"`
	MaxSize       int32    `toml:"max_size"`
	Timeout       string   `toml:"timeout"`
	IdleTimeout   string   `toml:"idle_timeout"`
	SignatureType int      `toml:"signature_type"`
	LogLevel      string   `toml:"log_level"`
	MetricsAddr   string   `toml:"metrics_addr"`
	Breaker       bool     `toml:"circuit_breaker"`
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("bridges") {
		cfg.Bridges = normalizeBridges(raw.Bridges)
	}

	if meta.IsDefined("max_size") {
		cfg.MaxSize = raw.MaxSize
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}

	if meta.IsDefined("signature_type") {
		cfg.SignatureType = raw.SignatureType
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("circuit_breaker") {
		cfg.Breaker = raw.Breaker
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("unknown config keys: %v", undecoded)
	}

	return cfg, nil
}

func normalizeBridges(in []string) []string {
	out := make([]string, 0, len(in))
	for _, bridge := range in {
		v := strings.TrimSpace(bridge)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// clientConfig builds the client configuration.
func (c cliConfig) clientConfig(logger *zerolog.Logger) sam.Config {
	config := sam.Config{
		MaxSize:             c.MaxSize,
		MaxConnIdleTime:     c.IdleTimeout,
		HealthCheckInterval: c.IdleTimeout / 2,
		Logger:              logger,
	}
	if c.Breaker {
		config.NewCircuitBreaker = sam.NewLoggingCircuitBreakerConfig(3, time.Minute, 30*time.Second, *logger)
	}
	return config
}
