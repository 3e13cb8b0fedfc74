package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Transport  TransportConfig  `yaml:"transport"`
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Session    SessionConfig    `yaml:"session"`
	Generation GenerationConfig `yaml:"generation"`
	TTS        TTSConfig        `yaml:"tts"`
	Import     ImportConfig     `yaml:"import"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SessionConfig holds the tunable session/SRS/buffer parameters.
type SessionConfig struct {
	SessionSize         int     `yaml:"session_size"`
	MinReadyQuestions   int     `yaml:"min_ready_questions"`
	ArchiveIntervalDays float64 `yaml:"archive_interval_days"`

	// SweepSchedule is a cron expression for the periodic archival sweep
	// that opportunistically re-checks word/cluster pairs needing new
	// questions, independent of the live buffer's in-session top-ups.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// GenerationConfig selects and configures the question-generation backend.
type GenerationConfig struct {
	Backend  string `yaml:"backend"` // "local" or "mock"
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// TTSConfig selects and configures the audio-narration backend.
type TTSConfig struct {
	Backend string `yaml:"backend"` // "noop" until a real backend is wired
	Voice   string `yaml:"voice"`
}

// ImportConfig controls the (out-of-core) source-file watcher.
type ImportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads configuration from an optional YAML file and environment
// variables, in that precedence order over the struct-literal defaults
// below.
func Load() (Config, error) {
	defaultDBPath := "vocabtrainer.db"
	if exePath, err := os.Executable(); err == nil {
		defaultDBPath = filepath.Join(filepath.Dir(exePath), "vocabtrainer.db")
	}

	cfg := Config{
		Transport: TransportConfig{Mode: "stdio"},
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB:        DBConfig{Path: defaultDBPath},
		Log:       LogConfig{Level: "info"},
		Session: SessionConfig{
			SessionSize:         20,
			MinReadyQuestions:   3,
			ArchiveIntervalDays: 21,
			SweepSchedule:       "@every 15m",
		},
		Generation: GenerationConfig{
			Backend: "local",
			Model:   "gpt-4o-mini",
		},
		TTS: TTSConfig{Backend: "noop"},
		Import: ImportConfig{
			Enabled: false,
			Dir:     "vocab",
		},
	}

	if path := os.Getenv("VOCABTRAINER_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if mode := os.Getenv("VOCABTRAINER_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if host := os.Getenv("VOCABTRAINER_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := intEnv("VOCABTRAINER_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if dbPath := os.Getenv("VOCABTRAINER_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("VOCABTRAINER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if err := intEnv("VOCABTRAINER_SESSION_SIZE", &cfg.Session.SessionSize); err != nil {
		return err
	}
	if err := intEnv("VOCABTRAINER_MIN_READY_QUESTIONS", &cfg.Session.MinReadyQuestions); err != nil {
		return err
	}
	if err := floatEnv("VOCABTRAINER_ARCHIVE_INTERVAL_DAYS", &cfg.Session.ArchiveIntervalDays); err != nil {
		return err
	}
	if schedule := os.Getenv("VOCABTRAINER_SWEEP_SCHEDULE"); schedule != "" {
		cfg.Session.SweepSchedule = schedule
	}
	if backend := os.Getenv("VOCABTRAINER_GENERATION_BACKEND"); backend != "" {
		cfg.Generation.Backend = backend
	}
	if model := os.Getenv("VOCABTRAINER_GENERATION_MODEL"); model != "" {
		cfg.Generation.Model = model
	}
	if endpoint := os.Getenv("VOCABTRAINER_GENERATION_ENDPOINT"); endpoint != "" {
		cfg.Generation.Endpoint = endpoint
	}
	if apiKey := os.Getenv("VOCABTRAINER_GENERATION_API_KEY"); apiKey != "" {
		cfg.Generation.APIKey = apiKey
	}
	if backend := os.Getenv("VOCABTRAINER_TTS_BACKEND"); backend != "" {
		cfg.TTS.Backend = backend
	}
	if voice := os.Getenv("VOCABTRAINER_TTS_VOICE"); voice != "" {
		cfg.TTS.Voice = voice
	}
	if enabled := os.Getenv("VOCABTRAINER_AUTO_IMPORT_ENABLED"); enabled != "" {
		value, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid VOCABTRAINER_AUTO_IMPORT_ENABLED: %w", err)
		}
		cfg.Import.Enabled = value
	}
	if dir := os.Getenv("VOCABTRAINER_IMPORT_DIR"); dir != "" {
		cfg.Import.Dir = dir
	}
	return nil
}

func intEnv(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

func floatEnv(name string, dst *float64) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
