package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StorageFS     = "fs"
	StorageSQLite = "sqlite"
)

type Config struct {
	Root         string `yaml:"root"`
	PageDir      string `yaml:"page_dir"`
	StaticDir    string `yaml:"static_dir"`
	TemplateDir  string `yaml:"template_dir"`
	PageExt      string `yaml:"page_ext"`
	IndexPage    string `yaml:"index_page"`
	MacroPage    string `yaml:"macro_page"`
	ListenAddr   string `yaml:"listen_addr"`
	Storage      string `yaml:"storage"`
	DatabasePath string `yaml:"database_path"`
	OutputDir    string `yaml:"output_dir"`
	LogLevel     string `yaml:"log_level"`
	LogPretty    bool   `yaml:"log_pretty"`
	LogFile      string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Root:         ".",
		PageDir:      "pages",
		StaticDir:    "static",
		TemplateDir:  "templates",
		PageExt:      ".md",
		IndexPage:    "Welcome",
		MacroPage:    "__default",
		ListenAddr:   "127.0.0.1:9999",
		Storage:      StorageFS,
		DatabasePath: "wiki.sqlite",
		OutputDir:    "output",
		LogLevel:     "info",
	}
}

// Load layers configuration: defaults, then the YAML file named by
// WIKI_CONFIG (or ./wiki.yaml when present), then .env, then WIKI_*
// environment variables.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("WIKI_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := loadFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := loadEnvFile(envFileName); err != nil {
		return Config{}, fmt.Errorf("read %s: %w", envFileName, err)
	}
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const defaultConfigFile = "wiki.yaml"

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Root = envOr("WIKI_ROOT", cfg.Root)
	cfg.PageDir = envOr("WIKI_PAGE_DIR", cfg.PageDir)
	cfg.StaticDir = envOr("WIKI_STATIC_DIR", cfg.StaticDir)
	cfg.TemplateDir = envOr("WIKI_TEMPLATE_DIR", cfg.TemplateDir)
	cfg.PageExt = envOr("WIKI_PAGE_EXT", cfg.PageExt)
	cfg.IndexPage = envOr("WIKI_INDEX_PAGE", cfg.IndexPage)
	cfg.MacroPage = envOr("WIKI_MACRO_PAGE", cfg.MacroPage)
	cfg.ListenAddr = envOr("WIKI_LISTEN_ADDR", cfg.ListenAddr)
	cfg.Storage = strings.ToLower(envOr("WIKI_STORAGE", cfg.Storage))
	cfg.DatabasePath = envOr("WIKI_DATABASE_PATH", cfg.DatabasePath)
	cfg.OutputDir = envOr("WIKI_OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = envOr("WIKI_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envOr("WIKI_LOG_FILE", cfg.LogFile)
	cfg.LogPretty = parseBoolOr("WIKI_LOG_PRETTY", cfg.LogPretty)
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageFS, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage %q (want %q or %q)", c.Storage, StorageFS, StorageSQLite)
	}
	if c.PageExt != "" && !strings.HasPrefix(c.PageExt, ".") {
		return fmt.Errorf("page extension %q must start with a dot", c.PageExt)
	}
	if c.IndexPage == "" {
		return errors.New("index page must not be empty")
	}
	return nil
}

// Path resolves a configured directory or file against Root.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
