package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_StorageDriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("STORAGE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid STORAGE_DRIVER")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != StoragePostgres {
		t.Fatalf("unexpected StorageDriver: %q", cfg.StorageDriver)
	}
	if cfg.MidtransBaseURL != "https://api.sandbox.midtrans.com" {
		t.Fatalf("unexpected MidtransBaseURL: %q", cfg.MidtransBaseURL)
	}
	if cfg.MidtransOrderPrefix != "MABAR" {
		t.Fatalf("unexpected MidtransOrderPrefix: %q", cfg.MidtransOrderPrefix)
	}
	if cfg.PollerInterval != time.Minute {
		t.Fatalf("unexpected PollerInterval: %s", cfg.PollerInterval)
	}
	if cfg.PollerPendingAge != 2*time.Minute {
		t.Fatalf("unexpected PollerPendingAge: %s", cfg.PollerPendingAge)
	}
	if cfg.PollerAlertAge != 25*time.Hour {
		t.Fatalf("unexpected PollerAlertAge: %s", cfg.PollerAlertAge)
	}
	if cfg.PollerWorkers != 8 {
		t.Fatalf("unexpected PollerWorkers: %d", cfg.PollerWorkers)
	}
}

func TestLoad_PollerAgesMustBeOrdered(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("POLLER_PENDING_AGE", "26h")
	t.Setenv("POLLER_ALERT_AGE", "25h")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when POLLER_PENDING_AGE >= POLLER_ALERT_AGE")
	}
}

func TestLoad_MidtransCircuitParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("MIDTRANS_CIRCUIT_ENABLED", "true")
	t.Setenv("MIDTRANS_CIRCUIT_FAILURE_COUNT", "7")
	t.Setenv("MIDTRANS_CIRCUIT_OPEN_TIMEOUT", "30s")
	t.Setenv("MIDTRANS_CIRCUIT_HALF_OPEN_MAX_REQ", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.MidtransCircuitEnabled {
		t.Fatalf("expected MidtransCircuitEnabled=true")
	}
	if cfg.MidtransCircuitFailureCount != 7 {
		t.Fatalf("unexpected MidtransCircuitFailureCount: %d", cfg.MidtransCircuitFailureCount)
	}
	if cfg.MidtransCircuitOpenTimeout != 30*time.Second {
		t.Fatalf("unexpected MidtransCircuitOpenTimeout: %s", cfg.MidtransCircuitOpenTimeout)
	}
	if cfg.MidtransCircuitHalfOpenMaxReq != 3 {
		t.Fatalf("unexpected MidtransCircuitHalfOpenMaxReq: %d", cfg.MidtransCircuitHalfOpenMaxReq)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
	}
}

func TestLoad_PyroscopeRequiresAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://mabar.lokastream.id, https://overlay.lokastream.id")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[1] != "https://overlay.lokastream.id" {
		t.Fatalf("unexpected origin: %q", cfg.CORSAllowedOrigins[1])
	}
}
