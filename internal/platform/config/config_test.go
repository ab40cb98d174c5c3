package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PAYSTACK_MOCK", "true")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VotePriceMinor != 100 || cfg.VoteCurrency != "GHS" {
		t.Fatalf("unexpected price: %d %s", cfg.VotePriceMinor, cfg.VoteCurrency)
	}
	if cfg.PendingVoteTTL != 30*time.Minute || cfg.CountCacheTTL != 3*time.Second || cfg.VerifyTimeout != 10*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.DatabaseDriver != DriverPostgres || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VOTE_PRICE", "2.50")
	t.Setenv("VOTE_CURRENCY", "ngn")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "votes.db")
	t.Setenv("PENDING_VOTE_TTL", "45m")
	t.Setenv("ENABLE_COUNTER_AUDITOR", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VotePriceMinor != 250 || cfg.VoteCurrency != "NGN" {
		t.Fatalf("unexpected price: %d %s", cfg.VotePriceMinor, cfg.VoteCurrency)
	}
	if cfg.DatabaseDriver != DriverSQLite || cfg.DatabaseDSN != "votes.db" {
		t.Fatalf("unexpected database: %s %s", cfg.DatabaseDriver, cfg.DatabaseDSN)
	}
	if cfg.PendingVoteTTL != 45*time.Minute || cfg.EnableAuditor {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":        {"DATABASE_DRIVER": "mysql"},
		"bad duration":          {"VERIFY_TIMEOUT": "soon"},
		"negative duration":     {"STORE_TIMEOUT": "-1s"},
		"reconcile after ttl":   {"RECONCILE_MIN_AGE": "1h", "PENDING_VOTE_TTL": "30m"},
		"sub-minor price":       {"VOTE_PRICE": "1.005"},
		"missing paystack key":  {"PAYSTACK_MOCK": "false"},
		"non-numeric retry max": {"PAYSTACK_RETRY_MAX": "many"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("PAYSTACK_SECRET_KEY", "")
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	setRequired(t)
	// godotenv never overrides variables that are already set.
	for _, name := range []string{"VOTE_PRICE", "SERVICE_NAME"} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte("VOTE_PRICE=5\nSERVICE_NAME=awards\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VotePriceMinor != 500 || cfg.ServiceName != "awards" {
		t.Fatalf("dotenv not applied: %d %s", cfg.VotePriceMinor, cfg.ServiceName)
	}
}

func TestParsePriceMinor(t *testing.T) {
	cases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1", want: 100},
		{raw: "1.00", want: 100},
		{raw: " 0.5 ", want: 50},
		{raw: "12.34", want: 1234},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "1.001", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePriceMinor(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %d, %v", tc.raw, got, err)
		}
	}
}
