package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix           = "CLIENT_CHAT"
	DefaultTheme        = "dark"
	DefaultReplyTimeout = 60 * time.Second
)

var themes = map[string]string{
	"dark":  "dark",
	"light": "light",
}

type AppConfig struct {
	ChannelsFile   string
	InitialChannel string
	ReplyURL       string
	ReplyTimeout   time.Duration
	Theme          string
	ExportDir      string
	LogFile        string
	LogLevel       string
}

// BindFlags registers the command-line flags AppConfig is read from.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, toml or json)")
	fs.String("channels", "", "path to a YAML channel list (defaults to the built-in channels)")
	fs.String("channel", "", "channel to open at startup")
	fs.String("reply-url", "", "HTTP endpoint producing replies; empty uses the synthetic replier")
	fs.Duration("reply-timeout", DefaultReplyTimeout, "timeout for one reply request")
	fs.String("theme", DefaultTheme, "color theme: dark or light")
	fs.String("export-dir", "", "directory for transcript exports (default ./exports)")
	fs.String("log-file", "", "log file path (default $XDG_STATE_HOME/client-chat/client-chat.log)")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
}

// Load resolves AppConfig from flags, CLIENT_CHAT_* environment variables,
// an optional .env file in the working directory, and an optional config file.
// Flags set explicitly win over the environment, which wins over the file.
func Load(fs *pflag.FlagSet) (AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, errors.Wrap(err, "load .env")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return cfg, errors.Wrap(err, "bind flags")
	}

	if path := strings.TrimSpace(v.GetString("config")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
	}

	cfg = AppConfig{
		ChannelsFile:   strings.TrimSpace(v.GetString("channels")),
		InitialChannel: strings.TrimSpace(v.GetString("channel")),
		ReplyURL:       strings.TrimSpace(v.GetString("reply-url")),
		ReplyTimeout:   v.GetDuration("reply-timeout"),
		Theme:          strings.ToLower(strings.TrimSpace(v.GetString("theme"))),
		ExportDir:      strings.TrimSpace(v.GetString("export-dir")),
		LogFile:        strings.TrimSpace(v.GetString("log-file")),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("log-level"))),
	}
	return cfg.normalize()
}

func (cfg AppConfig) normalize() (AppConfig, error) {
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if _, ok := themes[cfg.Theme]; !ok {
		return cfg, errors.Errorf("unknown theme %q (want dark or light)", cfg.Theme)
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	logFile, err := DetectLogFile(cfg.LogFile)
	if err != nil {
		return cfg, err
	}
	cfg.LogFile = logFile
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return cfg, errors.Wrap(err, "create log dir")
	}
	return cfg, nil
}

// GlamourStyle maps a theme to the glamour standard style rendering it.
func GlamourStyle(theme string) string {
	if s, ok := themes[theme]; ok {
		return s
	}
	return themes[DefaultTheme]
}

func DetectLogFile(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if fromEnv := os.Getenv("XDG_STATE_HOME"); fromEnv != "" {
		return filepath.Join(fromEnv, "client-chat", "client-chat.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".local", "state", "client-chat", "client-chat.log"), nil
}
