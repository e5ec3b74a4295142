package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "Defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "InvalidLogLevel",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "TRACE" },
			wantErr: "Level",
		},
		{
			name:    "InvalidLogFormat",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "Format",
		},
		{
			name:    "NegativeMaxHandles",
			mutate:  func(cfg *Config) { cfg.Library.MaxHandles = -1 },
			wantErr: "MaxHandles",
		},
		{
			name:    "ZeroShutdownTimeout",
			mutate:  func(cfg *Config) { cfg.Library.ShutdownTimeout = 0 },
			wantErr: "ShutdownTimeout",
		},
		{
			name:    "UnknownConnector",
			mutate:  func(cfg *Config) { cfg.Connector.Type = "hdf5" },
			wantErr: "Connector.Type",
		},
		{
			name:    "UnknownSnapshot",
			mutate:  func(cfg *Config) { cfg.Snapshot.Type = "ftp" },
			wantErr: "Snapshot.Type",
		},
		{
			name: "SnapshotRequiresMemory",
			mutate: func(cfg *Config) {
				cfg.Connector.Type = "badger"
				cfg.Snapshot.Type = "filesystem"
			},
			wantErr: "requires the memory connector",
		},
		{
			name: "MinDenseAboveMaxCompact",
			mutate: func(cfg *Config) {
				cfg.Groups.MaxCompact = 4
				cfg.Groups.MinDense = 10
			},
			wantErr: "min_dense",
		},
		{
			name:    "MaxCompactTooLarge",
			mutate:  func(cfg *Config) { cfg.Groups.MaxCompact = 70000 },
			wantErr: "MaxCompact",
		},
		{
			name: "IndexWithoutTracking",
			mutate: func(cfg *Config) {
				cfg.Groups.IndexCreationOrder = true
				cfg.Groups.TrackCreationOrder = false
			},
			wantErr: "track_creation_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
