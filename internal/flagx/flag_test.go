package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-s", "http://localhost:8090", "-x", "1"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s", "http://localhost:8090"},
		},
		{
			name:         "equals form",
			args:         []string{"-d=state.db", "-s", "x"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d=state.db"},
		},
		{
			name:         "value looking like a flag is not consumed",
			args:         []string{"-c", "-t", "5"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "dash inside equals value is kept",
			args:         []string{"-config=--odd.json"},
			allowedFlags: []string{"-config"},
			want:         []string{"-config=--odd.json"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-c", "a.json", "-c", "b.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "a.json", "-c", "b.json"},
		},
		{
			name:         "nothing allowed matches",
			args:         []string{"home", "-v"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/blog.json", ConfigPath([]string{"-c", "/etc/blog.json"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-c", "a.json", "-config", "b.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-s", "http://x"}))
}

func TestEnvFilePath(t *testing.T) {
	assert.Equal(t, ".env.local", EnvFilePath([]string{"-s", "x", "-env=.env.local"}))
	assert.Equal(t, "", EnvFilePath(nil))
}
