package config

import (
	"fmt"
	log "log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ContactsPath string
	AlertLogPath string
	ImageDir     string

	GeoURL     string
	GeoTimeout time.Duration
	GeoTTL     time.Duration
	ProxyAddr  string

	CameraBinary string
	CameraFormat string
	CameraDevice string

	MessengerHost string

	STT          string // "whisper" or "openai"
	WhisperModel string
	Language     string
	OpenAIKey    string

	BusURL    string
	BeepPath  string
	Speak     bool
	SpeakLang string
}

const (
	STTWhisper = "whisper"
	STTOpenAI  = "openai"
)

// Load reads envFile if present and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Debug("No env file, using environment", "path", envFile)
		}
	}

	cfg := &Config{
		ContactsPath:  getEnv("SHEALERT_CONTACTS", "contacts.csv"),
		AlertLogPath:  getEnv("SHEALERT_LOG", "alert_log.csv"),
		ImageDir:      getEnv("SHEALERT_IMAGE_DIR", "alert_images"),
		GeoURL:        getEnv("SHEALERT_GEO_URL", "https://ipinfo.io/json"),
		ProxyAddr:     getEnv("SHEALERT_PROXY", ""),
		CameraBinary:  getEnv("SHEALERT_CAMERA_BIN", "ffmpeg"),
		CameraFormat:  getEnv("SHEALERT_CAMERA_FORMAT", "v4l2"),
		CameraDevice:  getEnv("SHEALERT_CAMERA_DEVICE", "/dev/video0"),
		MessengerHost: getEnv("SHEALERT_MESSENGER_HOST", "api.whatsapp.com"),
		STT:           strings.ToLower(getEnv("SHEALERT_STT", STTWhisper)),
		WhisperModel:  getEnv("WHISPER_MODEL", "third_party/whisper.cpp/models/ggml-base.en.bin"),
		Language:      getEnv("SHEALERT_LANGUAGE", "en"),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		BusURL:        getEnv("BUS_URL", ""),
		BeepPath:      getEnv("SHEALERT_BEEP", ""),
		SpeakLang:     getEnv("SHEALERT_SPEAK_LANG", "en"),
	}

	var err error
	if cfg.GeoTimeout, err = getDuration("SHEALERT_GEO_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeoTTL, err = getDuration("SHEALERT_GEO_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Speak, err = getBool("SHEALERT_SPEAK", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.STT {
	case STTWhisper:
		if c.WhisperModel == "" {
			return fmt.Errorf("WHISPER_MODEL must be set for whisper transcription")
		}
	case STTOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for openai transcription")
		}
	default:
		return fmt.Errorf("unknown SHEALERT_STT %q (want %s or %s)", c.STT, STTWhisper, STTOpenAI)
	}
	if c.GeoTimeout <= 0 {
		return fmt.Errorf("SHEALERT_GEO_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are seconds
		n, nerr := strconv.Atoi(v)
		if nerr != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		d = time.Duration(n) * time.Second
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
