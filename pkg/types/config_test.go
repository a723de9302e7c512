package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "mysql", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "postgres without dsn returns ErrDSNRequired",
			config:  Config{Backend: BackendPostgres},
			wantErr: ErrDSNRequired,
		},
		{
			name:    "unknown secrets store returns ErrSecretsUnknown",
			config:  Config{Backend: BackendSQLite, Secrets: "vault"},
			wantErr: ErrSecretsUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
		},
		{
			name:   "valid postgres config with keyring secrets",
			config: Config{Backend: BackendPostgres, DSN: "postgres://localhost/pets", Secrets: SecretsKeyring},
		},
		{
			name:   "memory with empty DataDir is valid",
			config: Config{Backend: BackendMemory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
