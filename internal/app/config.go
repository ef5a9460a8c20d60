package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/query"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string   `toml:"redis_url"`
		TokenHeader      string   `toml:"token_header"`
		TokenKeyTemplate string   `toml:"token_key_template"`
		AllowedEmails    []string `toml:"allowed_emails"`
	} `toml:"auth"`

	Local struct {
		DSN      string `toml:"dsn"`
		Key      string `toml:"key"`
		MaxBytes int    `toml:"max_bytes"`
	} `toml:"local"`

	// an empty remote DSN means local-only mode
	Remote struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
		Region        string `toml:"region"`
		Endpoint      string `toml:"endpoint"`
		ListLimit     int    `toml:"list_limit"`
	} `toml:"remote"`

	Form struct {
		Classes []string `toml:"classes"`
	} `toml:"form"`

	Export struct {
		Filename  string `toml:"filename"`
		OutputDir string `toml:"output_dir"`
		Schedule  string `toml:"schedule"`
	} `toml:"export"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(path, data)
}

func ParseConfig(path string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	if config.Server.EnableAuth && config.Auth.RedisURL == "" {
		return nil, fmt.Errorf("auth is enabled but auth.redis_url is empty")
	}

	config.applyDefaults()

	logger.Debug.Printf("Loaded local store config: %+v", config.Local)
	if config.Remote.DSN == "" {
		logger.Info.Println("No remote store configured, running in local mode")
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = "Authorization"
	}
	if c.Auth.TokenKeyTemplate == "" {
		c.Auth.TokenKeyTemplate = "scratchdrop:staff:{token}"
	}
	if c.Local.DSN == "" {
		c.Local.DSN = "scratchdrop-local.db"
	}
	if c.Local.Key == "" {
		c.Local.Key = store.DefaultLocalKey
	}
	if c.Local.MaxBytes == 0 {
		c.Local.MaxBytes = store.DefaultLocalMaxBytes
	}
	if c.Local.MaxBytes < 0 {
		c.Local.MaxBytes = 0
	}
	if c.Remote.MigrationsDir == "" {
		c.Remote.MigrationsDir = "./migrations"
	}
	if c.Remote.ListLimit <= 0 || c.Remote.ListLimit > store.RemoteListLimit {
		c.Remote.ListLimit = store.RemoteListLimit
	}

	classes := make([]string, 0, len(c.Form.Classes))
	for _, class := range c.Form.Classes {
		if class = strings.TrimSpace(class); class != "" {
			classes = append(classes, class)
		}
	}
	if len(classes) == 0 {
		classes = append(classes, models.DefaultClasses...)
	}
	c.Form.Classes = classes

	if c.Export.Filename == "" {
		c.Export.Filename = query.ExportFilename
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
	if c.Export.Schedule == "" {
		c.Export.Schedule = "0 18 * * *"
	}
}
