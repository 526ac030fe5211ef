package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Directories DirectoryConfig
	Limits      LimitsConfig
	Convert     ConvertConfig
	DocAI       DocAIConfig
	Retention   RetentionConfig
}

// DatabaseConfig holds record-store configuration. An empty DSN means
// "run without a database" (the pipeline then uses a no-op record store).
type DatabaseConfig struct {
	DSN              string
	MaxConns         int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DirectoryConfig holds the shared upload/output directories.
type DirectoryConfig struct {
	UploadDir string
	OutputDir string
}

// LimitsConfig holds the file constraints enforced by the divider.
type LimitsConfig struct {
	MaxFileSizeMB int
	MaxPDFPages   int
}

// ConvertConfig holds format-normalization configuration.
type ConvertConfig struct {
	LibreOffice string        // binary name or absolute path; if empty -> "libreoffice"
	Timeout     time.Duration // ceiling on a single conversion subprocess
}

// DocAIConfig holds the remote extraction service configuration.
type DocAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	ChunkSize        int
}

// RetentionConfig holds housekeeping age thresholds.
type RetentionConfig struct {
	UploadMaxAge time.Duration
	OutputMaxAge time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt("DB_MAX_CONNS", 10),
			ConnMaxLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Directories: DirectoryConfig{
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
			OutputDir: getEnv("OUTPUT_DIR", "./outputs"),
		},
		Limits: LimitsConfig{
			MaxFileSizeMB: getEnvAsInt("MAX_FILE_SIZE_MB", 20),
			MaxPDFPages:   getEnvAsInt("MAX_PDF_PAGES", 15),
		},
		Convert: ConvertConfig{
			LibreOffice: getEnv("LIBREOFFICE_BIN", "libreoffice"),
			Timeout:     getEnvAsDuration("CONVERT_TIMEOUT", 2*time.Minute),
		},
		DocAI: DocAIConfig{
			ProjectID:        getEnv("DOCAI_PROJECT_ID", ""),
			Location:         getEnv("DOCAI_LOCATION", "us"),
			ProcessorID:      getEnv("DOCAI_PROCESSOR_ID", ""),
			ProcessorVersion: getEnv("DOCAI_PROCESSOR_VERSION", "rc"),
			ChunkSize:        getEnvAsInt("DOCAI_CHUNK_SIZE", 1000),
		},
		Retention: RetentionConfig{
			UploadMaxAge: getEnvAsDuration("UPLOAD_MAX_AGE", time.Hour),
			OutputMaxAge: getEnvAsDuration("OUTPUT_MAX_AGE", 24*time.Hour),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Limits.MaxFileSizeMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_FILE_SIZE_MB must be positive", ErrInvalidInput)
	}
	if c.Limits.MaxPDFPages <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_PDF_PAGES must be positive", ErrInvalidInput)
	}
	if c.Directories.UploadDir == "" || c.Directories.OutputDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR and OUTPUT_DIR are required", ErrInvalidInput)
	}
	return nil
}
