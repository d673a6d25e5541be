// Package config holds the manager's own settings: where SteamCMD lives and
// where the dedicated server is installed.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
)

// FileName is the name of the config file written beside the executable.
const FileName = "config.json"

// ServerSubPath is where SteamCMD installs the dedicated server, relative
// to the SteamCMD directory.
var ServerSubPath = filepath.Join("steamapps", "common", "Return to Moria Dedicated Server")

// AppConfig holds the manager settings persisted in config.json.
type AppConfig struct {
	SteamCmdPath string `json:"SteamCmdPath"`
	ServerPath   string `json:"ServerPath"`
}

// DefaultAppConfig returns an AppConfig rooted in the user's cache
// directory (LocalAppData on Windows).
func DefaultAppConfig() *AppConfig {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	steam := filepath.Join(base, "SteamCMD")
	return &AppConfig{
		SteamCmdPath: steam,
		ServerPath:   ServerPathFor(steam),
	}
}

// ServerPathFor returns the dedicated server directory for a SteamCMD
// install.
func ServerPathFor(steamCmdPath string) string {
	return filepath.Join(steamCmdPath, ServerSubPath)
}

// Validate checks that all config values are valid.
func (c *AppConfig) Validate() error {
	if c.SteamCmdPath == "" {
		return fmt.Errorf("SteamCMD path must be set")
	}
	if c.ServerPath == "" {
		return fmt.Errorf("server path must be set")
	}
	return nil
}

// DefaultPath returns config.json in the directory of the running
// executable, or in the working directory when that cannot be resolved.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// Store loads and saves an AppConfig at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for path. A nil logger uses slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config file. A missing or unreadable file yields the
// defaults. Fields absent from the file keep their default values.
func (s *Store) Load() *AppConfig {
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("config file not found, using defaults", "path", s.path)
		} else {
			s.logger.Error("reading config file", "path", s.path, "err", err)
		}
		return cfg
	}

	var loaded AppConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("ignoring unparseable config file", "path", s.path, "err", err)
		return cfg
	}
	if loaded.SteamCmdPath != "" {
		cfg.SteamCmdPath = loaded.SteamCmdPath
		cfg.ServerPath = ServerPathFor(loaded.SteamCmdPath)
	}
	if loaded.ServerPath != "" {
		cfg.ServerPath = loaded.ServerPath
	}
	return cfg
}

// Save writes cfg as indented JSON, replacing the file atomically.
// ServerPath is recomputed from SteamCmdPath whenever the latter is set.
func (s *Store) Save(cfg *AppConfig) error {
	if cfg.SteamCmdPath != "" {
		cfg.ServerPath = ServerPathFor(cfg.SteamCmdPath)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := platform.WriteFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	s.logger.Debug("saved config", "path", s.path, "steamcmd", cfg.SteamCmdPath, "server", cfg.ServerPath)
	return nil
}
