package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendFFmpeg    = "ffmpeg"
	BackendSynthetic = "synthetic"

	StorageDisk   = "disk"
	StorageMemory = "memory"
)

type Config struct {
	DataDir    string
	ConfigPath string
	DBPath     string
	MediaDir   string
	LogPath    string

	Backend     string
	FFmpegPath  string
	AudioFormat string
	AudioDevice string
	VideoFormat string
	VideoDevice string

	DownloadDir    string
	MediaStorage   string
	PersistHistory bool
	LogLevel       string
}

type fileConfig struct {
	Backend        string `yaml:"backend"`
	FFmpegPath     string `yaml:"ffmpeg_path"`
	AudioFormat    string `yaml:"audio_format"`
	AudioDevice    string `yaml:"audio_device"`
	VideoFormat    string `yaml:"video_format"`
	VideoDevice    string `yaml:"video_device"`
	DownloadDir    string `yaml:"download_dir"`
	MediaStorage   string `yaml:"media_storage"`
	PersistHistory *bool  `yaml:"persist_history"`
	LogLevel       string `yaml:"log_level"`
}

// New resolves configuration from defaults, the optional YAML file and
// AVREC_* environment variables, in that order. An empty dataDir selects
// the per-user default; an empty configPath selects <dataDir>/config.yaml
// when it exists.
func New(dataDir, configPath string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = DefaultDataDir()
	}
	dataDir = expandTilde(dataDir)

	cfg := defaults(dataDir)

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(dataDir, "config.yaml")
	}
	raw, err := os.ReadFile(expandTilde(configPath))
	switch {
	case err == nil:
		fc := fileConfig{}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", configPath, err)
		}
		fc.apply(&cfg)
		cfg.ConfigPath = configPath
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFFmpeg, BackendSynthetic:
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	switch c.MediaStorage {
	case StorageDisk, StorageMemory:
	default:
		return fmt.Errorf("unsupported media storage %q", c.MediaStorage)
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download dir is required")
	}
	return nil
}

func defaults(dataDir string) Config {
	cfg := Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "avrec.db"),
		MediaDir:     filepath.Join(dataDir, "media"),
		LogPath:      filepath.Join(dataDir, "avrec.log"),
		Backend:      BackendFFmpeg,
		FFmpegPath:   "ffmpeg",
		DownloadDir:  defaultDownloadDir(),
		MediaStorage: StorageDisk,
		LogLevel:     "info",
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.AudioFormat, cfg.AudioDevice = "avfoundation", "default"
		cfg.VideoFormat, cfg.VideoDevice = "avfoundation", "0"
	case "windows":
		cfg.AudioFormat, cfg.AudioDevice = "dshow", "audio=default"
		cfg.VideoFormat, cfg.VideoDevice = "dshow", "video=default"
	default:
		cfg.AudioFormat, cfg.AudioDevice = "pulse", "default"
		cfg.VideoFormat, cfg.VideoDevice = "v4l2", "/dev/video0"
	}
	return cfg
}

func (fc fileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&cfg.Backend, fc.Backend)
	set(&cfg.FFmpegPath, fc.FFmpegPath)
	set(&cfg.AudioFormat, fc.AudioFormat)
	set(&cfg.AudioDevice, fc.AudioDevice)
	set(&cfg.VideoFormat, fc.VideoFormat)
	set(&cfg.VideoDevice, fc.VideoDevice)
	set(&cfg.MediaStorage, fc.MediaStorage)
	set(&cfg.LogLevel, fc.LogLevel)
	if fc.DownloadDir != "" {
		cfg.DownloadDir = expandTilde(fc.DownloadDir)
	}
	if fc.PersistHistory != nil {
		cfg.PersistHistory = *fc.PersistHistory
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AVREC_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("AVREC_FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("AVREC_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = expandTilde(v)
	}
	if v := os.Getenv("AVREC_MEDIA_STORAGE"); v != "" {
		cfg.MediaStorage = v
	}
	if v := os.Getenv("AVREC_PERSIST_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PersistHistory = b
		}
	}
	if v := os.Getenv("AVREC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// DefaultDataDir follows XDG_DATA_HOME, falling back to ~/.local/share.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "avrec")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "avrec")
	}
	return filepath.Join(".", ".avrec")
}

func defaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
