package config

import (
	"path/filepath"

	"github.com/kirsle/configdir"

	"github.com/mkarpenko/cryptdrive/internal/cryptox"
)

const appName = "cryptdrive"

// ValidBufferSizes are the stream chunk sizes the settings accept.
var ValidBufferSizes = []int{1024, 2048, 4096, 8192}

// IsValidBufferSize reports whether n is one of ValidBufferSizes.
func IsValidBufferSize(n int) bool {
	for _, v := range ValidBufferSizes {
		if n == v {
			return true
		}
	}
	return false
}

// Config holds runtime settings for the cryptdrive CLI.
type Config struct {
	// ServerURL is the base URL of the storage server.
	ServerURL string
	// Username is offered as the default at the login prompt.
	Username string
	// BufferSize is the stream codec chunk size in bytes.
	BufferSize int
	// DataDir is where synced plaintext files live.
	DataDir string

	settingsPath string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Username = ""
	c.BufferSize = cryptox.DefaultBufferSize
	c.DataDir = filepath.Join(configdir.LocalConfig(appName), "files")
}

// LoadConfig constructs a Config by applying defaults, then persisted
// settings, then the optional JSON file, then command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	dir := configdir.LocalConfig(appName)
	_ = configdir.MakePath(dir)
	cfg.settingsPath = filepath.Join(dir, "settings.json")
	loadSettings(cfg, cfg.settingsPath)

	parseJson(cfg)
	parseFlags(cfg)

	if !IsValidBufferSize(cfg.BufferSize) {
		cfg.BufferSize = cryptox.DefaultBufferSize
	}
	return cfg
}

// Save persists the user-changeable settings (server URL, username, buffer
// size) so the next run starts from them. A Config built without LoadConfig
// saves nowhere and returns nil.
func (c *Config) Save() error {
	if c.settingsPath == "" {
		return nil
	}
	return saveSettings(c, c.settingsPath)
}
