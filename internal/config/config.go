// Package config loads cwkeyer settings through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppName       = "cwkeyer"
	ConfigType    = "yaml"
	DefaultConfig = `# CW Keyer Configuration

# Serial link to the remote peer
serial_port: "/dev/ttyUSB0"  # UART device (use 'cwkeyer devices' to list)
baud_rate: 9600

# Key input
key_source: "serial"    # serial = modem status line, audio = keyed tone on an input device
key_line: "cts"         # cts, dsr, dcd or ri when key_source is serial
key_invert: false       # true when the key pulls the line low

# Timing
wpm: 10                 # Keying speed in words per minute (5-60)
poll_interval_ms: 5     # Key sampling period in milliseconds (1-100)

# Symbol buffer
capacity: 20            # Buffer limit
capacity_policy: "separators"  # separators = limit counts letter+word spaces, length = limit counts all symbols

# Sidetone
tone_enabled: true
tone_frequency: 800     # Sidetone pitch, and the keyed tone frequency for audio keying (Hz)
tone_volume: 0.5        # 0.0-1.0

# Audio keying (key_source: audio)
device_index: -1        # -1 for default device
sample_rate: 48000      # Audio sample rate in Hz
block_size: 480         # Goertzel block size (samples per detection window)
threshold: 0.4          # Detection threshold (0.0-1.0)
hysteresis: 2           # Consecutive blocks required to confirm a key change

# History
history_enabled: true
history_db: ""          # empty = $XDG_DATA_HOME/cwkeyer/history.db

# Output
debug: false            # Enable debug logging
`
)

// Valid key sources.
const (
	KeySourceSerial = "serial"
	KeySourceAudio  = "audio"
)

// Settings holds all application configuration
type Settings struct {
	// Serial link
	SerialPort string `mapstructure:"serial_port"`
	BaudRate   int    `mapstructure:"baud_rate"`

	// Key input
	KeySource string `mapstructure:"key_source"`
	KeyLine   string `mapstructure:"key_line"`
	KeyInvert bool   `mapstructure:"key_invert"`

	// Timing
	WPM            int `mapstructure:"wpm"`
	PollIntervalMS int `mapstructure:"poll_interval_ms"`

	// Symbol buffer
	Capacity       int    `mapstructure:"capacity"`
	CapacityPolicy string `mapstructure:"capacity_policy"`

	// Sidetone
	ToneEnabled   bool    `mapstructure:"tone_enabled"`
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	ToneVolume    float64 `mapstructure:"tone_volume"`

	// Audio keying
	DeviceIndex int     `mapstructure:"device_index"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	BlockSize   int     `mapstructure:"block_size"`
	Threshold   float64 `mapstructure:"threshold"`
	Hysteresis  int     `mapstructure:"hysteresis"`

	// History
	HistoryEnabled bool   `mapstructure:"history_enabled"`
	HistoryDB      string `mapstructure:"history_db"`

	// Output
	Debug bool `mapstructure:"debug"`
}

func setDefaults() {
	viper.SetDefault("serial_port", "/dev/ttyUSB0")
	viper.SetDefault("baud_rate", 9600)
	viper.SetDefault("key_source", KeySourceSerial)
	viper.SetDefault("key_line", "cts")
	viper.SetDefault("key_invert", false)
	viper.SetDefault("wpm", 10)
	viper.SetDefault("poll_interval_ms", 5)
	viper.SetDefault("capacity", 20)
	viper.SetDefault("capacity_policy", "separators")
	viper.SetDefault("tone_enabled", true)
	viper.SetDefault("tone_frequency", 800)
	viper.SetDefault("tone_volume", 0.5)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("block_size", 480)
	viper.SetDefault("threshold", 0.4)
	viper.SetDefault("hysteresis", 2)
	viper.SetDefault("history_enabled", true)
	viper.SetDefault("history_db", "")
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwkeyer/
func Init() error {
	setDefaults()

	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// .config.yaml (hidden) wins over config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.HistoryDB == "" {
		s.HistoryDB = DefaultHistoryPath()
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// DefaultHistoryPath returns $XDG_DATA_HOME/cwkeyer/history.db, falling back
// to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultHistoryPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(dataDir, AppName, "history.db")
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Serial link
	if s.SerialPort == "" {
		errs = append(errs, errors.New("serial_port is required"))
	}
	if s.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud_rate must be positive, got %d", s.BaudRate))
	}

	// Key input
	switch s.KeySource {
	case KeySourceSerial, KeySourceAudio:
	default:
		errs = append(errs, fmt.Errorf("key_source must be serial or audio, got %q", s.KeySource))
	}
	switch strings.ToLower(s.KeyLine) {
	case "cts", "dsr", "dcd", "ri":
	default:
		errs = append(errs, fmt.Errorf("key_line must be one of cts, dsr, dcd, ri, got %q", s.KeyLine))
	}

	// Timing
	if s.WPM < 5 || s.WPM > 60 {
		errs = append(errs, fmt.Errorf("wpm must be between 5 and 60, got %d", s.WPM))
	}
	if s.PollIntervalMS < 1 || s.PollIntervalMS > 100 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be between 1 and 100, got %d", s.PollIntervalMS))
	}

	// Symbol buffer
	if s.Capacity < 1 {
		errs = append(errs, fmt.Errorf("capacity must be at least 1, got %d", s.Capacity))
	}
	switch s.CapacityPolicy {
	case "separators", "length":
	default:
		errs = append(errs, fmt.Errorf("capacity_policy must be separators or length, got %q", s.CapacityPolicy))
	}

	// Sidetone
	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.ToneVolume < 0 || s.ToneVolume > 1 {
		errs = append(errs, fmt.Errorf("tone_volume must be between 0.0 and 1.0, got %v", s.ToneVolume))
	}

	// Audio keying
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.BlockSize < 32 || s.BlockSize > 4096 {
		errs = append(errs, fmt.Errorf("block_size must be between 32 and 4096, got %d", s.BlockSize))
	}
	if s.Threshold < 0.0 || s.Threshold > 1.0 {
		errs = append(errs, fmt.Errorf("threshold must be between 0.0 and 1.0, got %v", s.Threshold))
	}
	if s.Hysteresis < 1 || s.Hysteresis > 50 {
		errs = append(errs, fmt.Errorf("hysteresis must be between 1 and 50, got %d", s.Hysteresis))
	}
	if s.ToneFrequency >= s.SampleRate/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, s.SampleRate/2))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
