// Package config loads config.yaml from the configuration directory.
//
// Values resolve in this order: environment (GUINEAPAL_BACKEND, GUINEAPAL_DSN,
// GUINEAPAL_SECRETS, GUINEAPAL_LOG_LEVEL, GUINEAPAL_LOG_FORMAT), then
// config.yaml, then built-in defaults. A .env file in the config directory
// or the working directory is read into the environment first, without
// overriding variables that are already set. data_dir is returned raw; the
// caller resolves it with paths.ResolveDataDir so the --data-dir flag can
// take precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file inside the configuration directory.
	FileName = "config.yaml"
	// EnvFileName is the optional dotenv file.
	EnvFileName = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GUINEAPAL"
)

// Config keys.
const (
	KeyBackend   = "backend"
	KeyDataDir   = "data_dir"
	KeyDSN       = "dsn"
	KeySecrets   = "secrets"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
)

// envKeys are the keys environment variables may override. data_dir is left
// out because GUINEAPAL_DATA_DIR ranks below config.yaml.
var envKeys = map[string]string{
	KeyBackend:   EnvPrefix + "_BACKEND",
	KeyDSN:       EnvPrefix + "_DSN",
	KeySecrets:   EnvPrefix + "_SECRETS",
	KeyLogLevel:  EnvPrefix + "_LOG_LEVEL",
	KeyLogFormat: EnvPrefix + "_LOG_FORMAT",
}

// Settings is the loaded configuration.
type Settings struct {
	Store     types.Config
	LogLevel  string
	LogFormat string
	// Path is the config.yaml that was read, empty when none existed.
	Path string
}

// Logger builds the logger described by the log settings, writing to w.
func (s Settings) Logger(w io.Writer) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(s.LogLevel),
		Format: logger.ParseFormat(s.LogFormat),
		App:    "guineapal",
		Output: w,
	})
}

// File is the on-disk shape of config.yaml.
type File struct {
	Backend string  `yaml:"backend"`
	DataDir string  `yaml:"data_dir,omitempty"`
	DSN     string  `yaml:"dsn,omitempty"`
	Secrets string  `yaml:"secrets,omitempty"`
	Log     LogFile `yaml:"log"`
}

type LogFile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the file written by Init.
func Default() File {
	return File{
		Backend: types.BackendSQLite,
		Secrets: types.SecretsStore,
		Log:     LogFile{Level: "info", Format: string(logger.FormatText)},
	}
}

// Load reads the configuration from configDir. A missing config.yaml is not
// an error; defaults apply.
func Load(configDir string) (Settings, error) {
	if err := loadDotEnv(configDir); err != nil {
		return Settings{}, err
	}

	def := Default()
	v := viper.New()
	v.SetDefault(KeyBackend, def.Backend)
	v.SetDefault(KeySecrets, def.Secrets)
	v.SetDefault(KeyLogLevel, def.Log.Level)
	v.SetDefault(KeyLogFormat, def.Log.Format)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Settings{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var s Settings
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		s.Path = v.ConfigFileUsed()
	}

	s.Store = types.Config{
		Backend: v.GetString(KeyBackend),
		DataDir: v.GetString(KeyDataDir),
		DSN:     v.GetString(KeyDSN),
		Secrets: v.GetString(KeySecrets),
	}
	s.LogLevel = v.GetString(KeyLogLevel)
	s.LogFormat = v.GetString(KeyLogFormat)
	return s, nil
}

// loadDotEnv reads .env from configDir and then from the working directory.
// Files that do not exist are skipped.
func loadDotEnv(configDir string) error {
	candidates := []string{filepath.Join(configDir, EnvFileName), EnvFileName}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Init creates configDir and writes f as config.yaml unless the file
// already exists. It reports whether the file was written.
func Init(configDir string, f File) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
