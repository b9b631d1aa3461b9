package config

import (
	"encoding/json"
	"os"

	"github.com/mkarpenko/cryptdrive/internal/flagx"
)

// fileConfig is the DTO for both the persisted settings file and the
// optional -c/-config JSON file.
type fileConfig struct {
	ServerURL  string `json:"server_url"`
	Username   string `json:"username"`
	BufferSize int    `json:"buffer_size"`
	DataDir    string `json:"data_dir,omitempty"`
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.Username != "" {
		cfg.Username = fc.Username
	}
	if IsValidBufferSize(fc.BufferSize) {
		cfg.BufferSize = fc.BufferSize
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
}

// loadSettings overlays cfg with the persisted settings file, if present.
// A missing or unreadable file is ignored: settings are a convenience.
func loadSettings(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return
	}
	applyFileConfig(cfg, fc)
}

func saveSettings(cfg *Config, path string) error {
	fc := fileConfig{
		ServerURL:  cfg.ServerURL,
		Username:   cfg.Username,
		BufferSize: cfg.BufferSize,
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. No flag, no file. Unlike the persisted settings, an
// explicitly named file that cannot be read is a hard error.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		panic(err)
	}
	applyFileConfig(cfg, fc)
}
