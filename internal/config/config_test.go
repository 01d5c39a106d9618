package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.AMQPQueue != "mirror_journal" {
		t.Errorf("AMQPQueue = %q", cfg.AMQPQueue)
	}
	if cfg.MirrorBatchSize != 10 {
		t.Errorf("MirrorBatchSize = %d, want 10", cfg.MirrorBatchSize)
	}
	if cfg.BillingStrategy != "calendar" {
		t.Errorf("BillingStrategy = %q, want calendar", cfg.BillingStrategy)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MIRROR_INTERVAL", "2m")
	t.Setenv("BILLING_STRATEGY", "anchored")
	t.Setenv("BILLING_ANCHOR_MONTH", "7")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.MirrorInterval != 2*time.Minute {
		t.Errorf("MirrorInterval = %v, want 2m", cfg.MirrorInterval)
	}
	if cfg.BillingStrategy != "anchored" || cfg.BillingAnchorMonth != 7 {
		t.Errorf("billing = %q/%d", cfg.BillingStrategy, cfg.BillingAnchorMonth)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "http" },
			wantErr: "invalid port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "must be between",
		},
		{
			name:    "bad amqp scheme",
			mutate:  func(c *Config) { c.AMQPURL = "http://localhost" },
			wantErr: "invalid AMQP URL scheme",
		},
		{
			name:    "empty queue with amqp",
			mutate:  func(c *Config) { c.AMQPQueue = "" },
			wantErr: "queue name cannot be empty",
		},
		{
			name:    "batch size too small",
			mutate:  func(c *Config) { c.MirrorBatchSize = 0 },
			wantErr: "mirror batch size",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.MirrorInterval = 100 * time.Millisecond },
			wantErr: "mirror interval",
		},
		{
			name:    "unknown billing strategy",
			mutate:  func(c *Config) { c.BillingStrategy = "fiscal" },
			wantErr: "billing strategy",
		},
		{
			name:    "anchor month out of range",
			mutate:  func(c *Config) { c.BillingAnchorMonth = 13 },
			wantErr: "billing anchor month",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			cfg.SQLiteDBPath = t.TempDir() + "/zawadi.db"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
