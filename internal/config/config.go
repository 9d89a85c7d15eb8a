package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/danielledeleo/wikicore/internal/logger"
	"github.com/danielledeleo/wikicore/wiki"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory unless --config says otherwise.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. WIKICORE_DBFILE.
const EnvPrefix = "WIKICORE"

// AddFlags registers the bootstrap flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config", DefaultConfigFile, "path to the YAML config file")
	flags.String("dbfile", "", "SQLite database file (overrides config)")
	flags.String("host", "", "listen address (overrides config)")
	flags.String("log-level", "", "debug, info, warn or error (overrides config)")
}

// SetupConfig loads file-based configuration needed for bootstrap. Values
// come from, in increasing precedence: defaults, the config file,
// WIKICORE_* environment variables and flags. A missing config file is
// written with the effective values. The global logger is initialized from
// the result.
func SetupConfig(flags *pflag.FlagSet) (*wiki.Config, error) {
	v := viper.New()
	v.SetDefault("dbfile", "wikicore.db")
	v.SetDefault("host", "0.0.0.0:8080")
	v.SetDefault("wiki_name", "Project")
	v.SetDefault("log_format", "pretty") // pretty, json, or text
	v.SetDefault("log_level", "info")    // debug, info, warn, error
	v.SetDefault("busy_timeout_ms", 5000)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	configFilename := DefaultConfigFile
	if flags != nil {
		if name, err := flags.GetString("config"); err == nil && name != "" {
			configFilename = name
		}
		for key, flag := range map[string]string{"dbfile": "dbfile", "host": "host", "log_level": "log-level"} {
			if f := flags.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	v.SetConfigFile(configFilename)
	err := v.ReadInConfig()

	createDefaultConfigFile := false
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			createDefaultConfigFile = true
		} else {
			return nil, fmt.Errorf("read config %s: %w", configFilename, err)
		}
	}

	// Initialize logger with configured format and level
	logger.InitLogger(
		logger.ParseLogFormat(v.GetString("log_format")),
		logger.ParseLogLevel(v.GetString("log_level")),
	)

	config := &wiki.Config{
		DatabaseFile:  v.GetString("dbfile"),
		Host:          v.GetString("host"),
		WikiName:      strings.TrimSpace(v.GetString("wiki_name")),
		LogFormat:     v.GetString("log_format"),
		LogLevel:      v.GetString("log_level"),
		BusyTimeoutMS: v.GetInt("busy_timeout_ms"),
	}

	if createDefaultConfigFile {
		slog.Info("config not found, writing defaults", "file", configFilename)
		if err := writeConfig(configFilename, config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func writeConfig(name string, config *wiki.Config) error {
	conf, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer conf.Close()

	if err := yaml.NewEncoder(conf).Encode(config); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
