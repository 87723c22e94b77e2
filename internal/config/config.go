package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	InputDir   string
	OutputDir  string
	MergedFile string
	FinalFile  string
	XLSXFile   string

	DBPath     string
	RecordRuns bool

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		InputDir:   getEnv("SURSAUD_INPUT_DIR", "CSV"),
		OutputDir:  getEnv("SURSAUD_OUTPUT_DIR", "outputs"),
		MergedFile: getEnv("SURSAUD_MERGED_FILE", "merged_passages_urgences_clean.csv"),
		FinalFile:  getEnv("SURSAUD_FINAL_FILE", "Data_set_final.csv"),
		XLSXFile:   getEnv("SURSAUD_XLSX_FILE", "Data_set_final.xlsx"),

		DBPath:     getEnv("DB_PATH", filepath.Join("data", "sursaud.db")),
		RecordRuns: getEnvBool("SURSAUD_RECORD_RUNS", true),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MergedPath is the Stage A output and the Stage B input.
func (c Config) MergedPath() string {
	return filepath.Join(c.OutputDir, c.MergedFile)
}

func (c Config) FinalPath() string {
	return filepath.Join(c.OutputDir, c.FinalFile)
}

func (c Config) XLSXPath() string {
	return filepath.Join(c.OutputDir, c.XLSXFile)
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputDir) == "" {
		return fmt.Errorf("SURSAUD_INPUT_DIR cannot be empty")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("SURSAUD_OUTPUT_DIR cannot be empty")
	}
	for name, file := range map[string]string{
		"SURSAUD_MERGED_FILE": cfg.MergedFile,
		"SURSAUD_FINAL_FILE":  cfg.FinalFile,
		"SURSAUD_XLSX_FILE":   cfg.XLSXFile,
	} {
		if err := validateFileName(file); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := validateLogFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("invalid LOG_FORMAT: %w", err)
	}
	return nil
}

func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("must be a bare file name, got: %s", name)
	}
	return nil
}

func validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, level)
}

func validateLogFormat(format string) error {
	if format == "console" || format == "json" {
		return nil
	}
	return fmt.Errorf("LOG_FORMAT must be console or json, got: %s", format)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
