package config

import "testing"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		lc      LoggingConfig
		wantErr bool
	}{
		{"defaults", LoggingConfig{}, false},
		{"json info", LoggingConfig{Level: "info", Format: "json"}, false},
		{"console warn", LoggingConfig{Level: "warn", Format: "console"}, false},
		{"debug", LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", LoggingConfig{Level: "banana", Format: "json"}, true},
		{"invalid format", LoggingConfig{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.lc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%+v) error = %v, wantErr %v", tt.lc, err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}
