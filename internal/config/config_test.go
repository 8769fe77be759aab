package config

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("UDT_TEST_STRING", "value")

	if got := getEnvString("UDT_TEST_STRING", "fallback"); got != "value" {
		t.Errorf("getEnvString() = %q, want %q", got, "value")
	}
	if got := getEnvString("UDT_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnvString() = %q, want %q", got, "fallback")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"WithUnit", "45s", 45 * time.Second},
		{"Minutes", "2m", 2 * time.Minute},
		{"BareSeconds", "90", 90 * time.Second},
		{"Garbage", "soon", time.Minute},
		{"Empty", "", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("UDT_TEST_DURATION", tt.value)
			if got := getEnvDuration("UDT_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "FirestoreOK",
			cfg: Config{
				StoreBackend:      BackendFirestore,
				FirebaseAPIKey:    "key",
				FirebaseProjectID: "proj",
				RefreshInterval:   time.Minute,
			},
		},
		{
			name: "FirestoreMissingProject",
			cfg: Config{
				StoreBackend:    BackendFirestore,
				FirebaseAPIKey:  "key",
				RefreshInterval: time.Minute,
			},
			wantErr: true,
		},
		{
			name: "SQLiteStillNeedsAuthKey",
			cfg: Config{
				StoreBackend:    BackendSQLite,
				DatabasePath:    "usage.db",
				RefreshInterval: time.Minute,
			},
			wantErr: true,
		},
		{
			name: "UnknownBackend",
			cfg: Config{
				StoreBackend:    "dynamo",
				FirebaseAPIKey:  "key",
				RefreshInterval: time.Minute,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.StoreBackend == BackendSQLite {
				tt.cfg.DatabasePath = t.TempDir() + "/usage.db"
			}
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ClampsRefreshInterval(t *testing.T) {
	cfg := Config{
		StoreBackend:      BackendFirestore,
		FirebaseAPIKey:    "key",
		FirebaseProjectID: "proj",
		RefreshInterval:   time.Millisecond,
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
}
