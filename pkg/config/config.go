// Package config holds the data root, the persisted user preferences and the
// SSH host configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const (
	DataDirName     = ".chess4fun"
	PreferencesFile = "preferences.yaml"
	BookFile        = "openings.db"
	GamesDir        = "games"
	EnvPrefix       = "CHESS4FUN"
)

// DataRoot returns the data root, creating it if needed. An empty root means
// ~/.chess4fun.
func DataRoot(root string) (string, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot find home directory: %w", err)
		}
		root = filepath.Join(home, DataDirName)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("cannot create data root path %s: %w", root, err)
	}
	return root, nil
}

// Preferences are the user settings edited from the preferences dialog.
type Preferences struct {
	EnginePath       string  `mapstructure:"chess_engine_exe_path"`
	EngineSearchTime float64 `mapstructure:"chess_engine_search_time"`
	EngineDepth      int     `mapstructure:"chess_engine_depth"`
	SoundEnabled     bool    `mapstructure:"sound_enabled"`
	SoundDir         string  `mapstructure:"sound_dir"`
	BookPath         string  `mapstructure:"opening_book_path"`
	Theme            string  `mapstructure:"theme"`
	FlipBoard        bool    `mapstructure:"flip_board"`
	WhiteName        string  `mapstructure:"white_name"`
	BlackName        string  `mapstructure:"black_name"`
	WhiteEngine      bool    `mapstructure:"white_engine"`
	BlackEngine      bool    `mapstructure:"black_engine"`

	root string
	v    *viper.Viper
}

func defaults(v *viper.Viper, root string) {
	v.SetDefault("chess_engine_exe_path", "")
	v.SetDefault("chess_engine_search_time", 1.0)
	v.SetDefault("chess_engine_depth", 0)
	v.SetDefault("sound_enabled", true)
	v.SetDefault("sound_dir", filepath.Join(root, "sounds"))
	v.SetDefault("opening_book_path", "")
	v.SetDefault("theme", "basic")
	v.SetDefault("flip_board", false)
	v.SetDefault("white_name", "")
	v.SetDefault("black_name", "")
	v.SetDefault("white_engine", false)
	v.SetDefault("black_engine", false)
}

// Load reads root/preferences.yaml. A missing file yields the defaults.
// CHESS4FUN_* environment variables override the file.
func Load(root string) (*Preferences, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(root, PreferencesFile))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v, root)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	}

	p := &Preferences{root: root, v: v}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// Save writes the preferences back to root/preferences.yaml.
func (p *Preferences) Save() error {
	v := p.v
	if v == nil {
		v = viper.New()
		p.v = v
	}
	v.Set("chess_engine_exe_path", p.EnginePath)
	v.Set("chess_engine_search_time", p.EngineSearchTime)
	v.Set("chess_engine_depth", p.EngineDepth)
	v.Set("sound_enabled", p.SoundEnabled)
	v.Set("sound_dir", p.SoundDir)
	v.Set("opening_book_path", p.BookPath)
	v.Set("theme", p.Theme)
	v.Set("flip_board", p.FlipBoard)
	v.Set("white_name", p.WhiteName)
	v.Set("black_name", p.BlackName)
	v.Set("white_engine", p.WhiteEngine)
	v.Set("black_engine", p.BlackEngine)
	if err := v.WriteConfigAs(p.Path()); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

func (p *Preferences) Root() string {
	return p.root
}

func (p *Preferences) Path() string {
	return filepath.Join(p.root, PreferencesFile)
}

func (p *Preferences) GamesDir() string {
	return filepath.Join(p.root, GamesDir)
}

// SearchTime is the engine move time.
func (p *Preferences) SearchTime() time.Duration {
	return time.Duration(p.EngineSearchTime * float64(time.Second))
}

// ServerConfig configures the SSH host.
type ServerConfig struct {
	Addr        string        `env:"CHESS4FUN_SSH_ADDR" envDefault:":2222"`
	HostKey     string        `env:"CHESS4FUN_HOST_KEY"`
	IdleTimeout time.Duration `env:"CHESS4FUN_IDLE_TIMEOUT" envDefault:"5m"`
	ClientBin   string        `env:"CHESS4FUN_CLIENT_BIN" envDefault:"chess4fun"`
	ClientArgs  []string      `env:"CHESS4FUN_CLIENT_ARGS" envSeparator:" "`
}

// ParseServerConfig reads the server configuration from the environment. An
// unset host key lives in the data root.
func ParseServerConfig(root string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HostKey == "" {
		cfg.HostKey = filepath.Join(root, "ssh_host_ed25519_key")
	}
	return cfg, nil
}
