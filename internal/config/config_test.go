package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHEALERT_CONTACTS", "SHEALERT_LOG", "SHEALERT_GEO_TIMEOUT", "SHEALERT_GEO_TTL",
		"SHEALERT_STT", "WHISPER_MODEL", "OPENAI_API_KEY", "SHEALERT_SPEAK", "BUS_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "contacts.csv", cfg.ContactsPath)
	assert.Equal(t, "alert_log.csv", cfg.AlertLogPath)
	assert.Equal(t, 8*time.Second, cfg.GeoTimeout)
	assert.Equal(t, STTWhisper, cfg.STT)
	assert.False(t, cfg.Speak)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SHEALERT_CONTACTS")
	os.Unsetenv("SHEALERT_GEO_TIMEOUT")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHEALERT_CONTACTS=/data/people.csv\nSHEALERT_GEO_TIMEOUT=5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/people.csv", cfg.ContactsPath)
	assert.Equal(t, 5*time.Second, cfg.GeoTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timeout", map[string]string{"SHEALERT_GEO_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"SHEALERT_GEO_TIMEOUT": "-1s"}},
		{"bad bool", map[string]string{"SHEALERT_SPEAK": "loud"}},
		{"unknown stt", map[string]string{"SHEALERT_STT": "vosk"}},
		{"openai without key", map[string]string{"SHEALERT_STT": "openai"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
