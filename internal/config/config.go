package config

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const DefaultSocketPath = "/tmp/timerless.sock"

type Config struct {
	ServerURL             string `mapstructure:"server_url"`
	PollIntervalSeconds   int    `mapstructure:"poll_interval_seconds"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	DatabasePath          string `mapstructure:"database_path"`
	SocketPath            string `mapstructure:"socket_path"`
	ExportDir             string `mapstructure:"export_dir"`
	ResumeOpenCycle       bool   `mapstructure:"resume_open_cycle"`
}

func LoadConfig(configPath string) (*Config, error) {
	viper.Reset()
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/timerless")
		viper.AddConfigPath("/etc/timerless/")
	}

	viper.SetEnvPrefix("TIMERLESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://127.0.0.1:8000")
	viper.SetDefault("poll_interval_seconds", 1)
	viper.SetDefault("request_timeout_seconds", 5)
	viper.SetDefault("database_path", "timerless.db")
	viper.SetDefault("socket_path", DefaultSocketPath)
	viper.SetDefault("export_dir", ".")
	viper.SetDefault("resume_open_cycle", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	cfg, err := decode()
	if err != nil {
		return nil, err
	}
	log.Printf("Configuration loaded: %+v", *cfg)
	return cfg, nil
}

// Watch reloads the config file on change and hands the result to onChange.
// A file that no longer decodes is logged and ignored.
func Watch(onChange func(*Config)) {
	if viper.ConfigFileUsed() == "" {
		log.Println("Warning: no config file in use, hot reload disabled.")
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode()
		if err != nil {
			log.Printf("Warning: ignoring config change in %s: %v", e.Name, err)
			return
		}
		log.Printf("Config reloaded from %s", e.Name)
		onChange(cfg)
	})
	viper.WatchConfig()
}

func decode() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.PollIntervalSeconds < 1 {
		log.Println("Warning: poll_interval_seconds too low, setting to 1")
		cfg.PollIntervalSeconds = 1
	}
	if cfg.RequestTimeoutSeconds < 1 {
		log.Println("Warning: request_timeout_seconds too low, setting to 1")
		cfg.RequestTimeoutSeconds = 1
	}
	if cfg.ServerURL == "" {
		log.Println("Warning: empty server_url, defaulting to http://127.0.0.1:8000")
		cfg.ServerURL = "http://127.0.0.1:8000"
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	return &cfg, nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
