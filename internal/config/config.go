// Package config loads service settings by layering defaults, an optional
// YAML file and NETDOCTOR_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/netdoctor/netdoctor/internal/models"
)

// Config captures every setting required to boot the diagnostics service.
type Config struct {
	Server     ServerConfig       `koanf:"server"`
	Logging    LoggingConfig      `koanf:"logging"`
	Thresholds models.Thresholds  `koanf:"thresholds"`
	Detector   DetectorConfig     `koanf:"detector"`
	Baseline   models.BaselineSet `koanf:"baseline"`
	Rules      RulesConfig        `koanf:"rules"`
	Classifier ClassifierConfig   `koanf:"classifier"`
	Probe      ProbeConfig        `koanf:"probe"`
	Database   DatabaseConfig     `koanf:"database"`
	NATS       NATSConfig         `koanf:"nats"`
	Cache      CacheConfig        `koanf:"cache"`
}

// ServerConfig controls the gRPC, HTTP and metrics listeners.
type ServerConfig struct {
	Address         string        `koanf:"address"`
	HTTPAddress     string        `koanf:"http_address"`
	MetricsAddress  string        `koanf:"metrics_address"`
	GracefulTimeout time.Duration `koanf:"graceful_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// DetectorConfig holds the z-score cut-offs of the anomaly detector.
type DetectorConfig struct {
	MediumZ float64 `koanf:"medium_z"`
	HighZ   float64 `koanf:"high_z"`
}

// RulesConfig points at the suggestion tip pack; empty uses the built-in pack.
type RulesConfig struct {
	Path string `koanf:"path"`
}

// ClassifierConfig points at the training corpus and knowledge base; empty
// paths use the built-in data.
type ClassifierConfig struct {
	CorpusPath        string `koanf:"corpus_path"`
	KnowledgeBasePath string `koanf:"knowledge_base_path"`
}

// ProbeConfig configures the live network probes.
type ProbeConfig struct {
	ConnectivityTargets []string      `koanf:"connectivity_targets"`
	DNSHost             string        `koanf:"dns_host"`
	Health              string        `koanf:"health"`
	HealthURL           string        `koanf:"health_url"`
	SampleTarget        string        `koanf:"sample_target"`
	SampleCount         int           `koanf:"sample_count"`
	SampleInterval      time.Duration `koanf:"sample_interval"`
	Timeout             time.Duration `koanf:"timeout"`
	ConnectionType      string        `koanf:"connection_type"`
}

// DatabaseConfig enables the Postgres sample history when DSN is set.
type DatabaseConfig struct {
	DSN    string `koanf:"dsn"`
	Window int    `koanf:"window"`
}

// NATSConfig enables report publication when URL is set.
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// CacheConfig controls the in-memory baseline cache.
type CacheConfig struct {
	Enabled     bool          `koanf:"enabled"`
	BaselineTTL time.Duration `koanf:"baseline_ttl"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
			RequestTimeout:  15 * time.Second,
		},
		Logging:    LoggingConfig{Level: "info", JSON: false},
		Thresholds: models.DefaultThresholds(),
		Detector:   DetectorConfig{MediumZ: 2, HighZ: 3},
		Baseline:   models.DefaultBaselines(),
		Probe: ProbeConfig{
			ConnectivityTargets: []string{"1.1.1.1:443", "8.8.8.8:53"},
			DNSHost:             "example.com",
			Health:              "tcp",
			HealthURL:           "http://127.0.0.1:5000/network-health",
			SampleTarget:        "example.com:443",
			SampleCount:         4,
			SampleInterval:      200 * time.Millisecond,
			Timeout:             3 * time.Second,
		},
		Database: DatabaseConfig{Window: 200},
		NATS:     NATSConfig{Subject: "netdoctor.reports"},
		Cache:    CacheConfig{Enabled: true, BaselineTTL: time.Minute},
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, errors.New("server.address must not be empty"))
	}
	for name, addr := range map[string]string{
		"server.address":         c.Server.Address,
		"server.http_address":    c.Server.HTTPAddress,
		"server.metrics_address": c.Server.MetricsAddress,
	} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}
	if c.Detector.MediumZ <= 0 || c.Detector.HighZ <= c.Detector.MediumZ {
		errs = append(errs, fmt.Errorf("detector: need 0 < medium_z < high_z, got %.2f / %.2f", c.Detector.MediumZ, c.Detector.HighZ))
	}
	for field, b := range c.Baseline {
		if b.StdDev < 0 {
			errs = append(errs, fmt.Errorf("baseline.%s: stddev must not be negative", field))
		}
	}
	switch c.Probe.Health {
	case "tcp", "http":
	default:
		errs = append(errs, fmt.Errorf("probe.health must be tcp or http, got %q", c.Probe.Health))
	}
	if c.Probe.Health == "http" && c.Probe.HealthURL == "" {
		errs = append(errs, errors.New("probe.health_url is required for http health"))
	}
	if c.Probe.Health == "tcp" && c.Probe.SampleTarget == "" {
		errs = append(errs, errors.New("probe.sample_target is required for tcp health"))
	}
	return errors.Join(errs...)
}
