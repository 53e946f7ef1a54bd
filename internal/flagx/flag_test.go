package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "postgres://x", "-a", ":8080"},
			allowed: []string{"-d"},
			want:    []string{"-d", "postgres://x"},
		},
		{
			name:    "equals form",
			args:    []string{"-k=openssl", "-a", ":8080"},
			allowed: []string{"-k"},
			want:    []string{"-k=openssl"},
		},
		{
			name:    "order preserved",
			args:    []string{"-a=:1", "-x", "1", "-d", "dsn"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a=:1", "-d", "dsn"},
		},
		{
			name:    "unknown flags and positionals ignored",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "flag followed by another flag",
			args:    []string{"-c", "-k", "word"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "value containing equals",
			args:    []string{"-d=postgres://u:p@h/db?sslmode=disable"},
			allowed: []string{"-d"},
			want:    []string{"-d=postgres://u:p@h/db?sslmode=disable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed...))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-a", ":1", "-c", "conf.json"}, "conf.json"},
		{"long", []string{"-config", "other.json"}, "other.json"},
		{"double dash equals", []string{"--config=x.json"}, "x.json"},
		{"absent", []string{"-a", ":1"}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
