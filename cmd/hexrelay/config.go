package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/hexrelay/internal/server"
)

type fileConfig struct {
	Name             string   `toml:"name"`
	Addr             string   `toml:"addr"`
	CorsOrigins      []string `toml:"cors_origins"`
	Workers          int      `toml:"workers"`
	SubscriberBuffer int      `toml:"subscriber_buffer"`
	MaxBodyBytes     int64    `toml:"max_body_bytes"`
	ShutdownTimeout  string   `toml:"shutdown_timeout"`
	TLSCertFile      string   `toml:"tls_cert_file"`
	TLSKeyFile       string   `toml:"tls_key_file"`
	IngestToken      string   `toml:"ingest_token"`
	LogFile          string   `toml:"log_file"`
	LogMaxSizeMB     int      `toml:"log_max_size_mb"`
}

func loadServiceConfig(path string) (server.ServiceConfig, error) {
	cfg := server.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.ServiceConfig{}, fmt.Errorf("load hexrelay config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return server.ServiceConfig{}, fmt.Errorf("load hexrelay config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("workers") {
		if raw.Workers <= 0 {
			return server.ServiceConfig{}, fmt.Errorf("parse workers: must be positive, got %d", raw.Workers)
		}
		cfg.Workers = raw.Workers
	}

	if meta.IsDefined("subscriber_buffer") {
		if raw.SubscriberBuffer <= 0 {
			return server.ServiceConfig{}, fmt.Errorf("parse subscriber_buffer: must be positive, got %d", raw.SubscriberBuffer)
		}
		cfg.SubscriberBuffer = raw.SubscriberBuffer
	}

	if meta.IsDefined("max_body_bytes") {
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}

	if meta.IsDefined("shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ShutdownTimeout))
		if err != nil {
			return server.ServiceConfig{}, fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if meta.IsDefined("tls_cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}

	if meta.IsDefined("tls_key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}

	if meta.IsDefined("ingest_token") {
		cfg.IngestToken = strings.TrimSpace(raw.IngestToken)
	}

	if meta.IsDefined("log_file") {
		cfg.Log.File = strings.TrimSpace(raw.LogFile)
	}

	if meta.IsDefined("log_max_size_mb") {
		cfg.Log.MaxSizeMB = raw.LogMaxSizeMB
	}

	if err := cfg.Validate(); err != nil {
		return server.ServiceConfig{}, fmt.Errorf("load hexrelay config: %w", err)
	}
	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
