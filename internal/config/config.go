// Package config loads the application configuration from config
// files, environment variables, and .env files.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend names the persistence adapter to run against.
const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
)

// Config holds the application configuration loaded from all sources.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Persistence
	Backend     string // "local" or "postgres"
	DataDir     string // local adapter record directory
	BlobDir     string // local blob directory
	DatabaseDSN string // postgres connection string

	// Object storage (remote deployments)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// HTTP server
	ServerAddr string
	JWTSecret  string

	// Admin credentials
	AdminUsername string
	AdminPassword string
	AdminName     string

	// Session file for CLI admin state. Empty disables persistence.
	SessionFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra, applied after Load)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.gacetas.yaml)
//  5. Defaults
func Load() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GACETAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".gacetas")
		}
	}

	// Missing config file is fine; every setting has a default.
	_ = viper.ReadInConfig()

	setDefaults()

	cfg := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		Backend:     viper.GetString("backend"),
		DataDir:     viper.GetString("data_dir"),
		BlobDir:     viper.GetString("blob_dir"),
		DatabaseDSN: viper.GetString("database_dsn"),

		MinioEndpoint:  viper.GetString("minio_endpoint"),
		MinioAccessKey: viper.GetString("minio_access_key"),
		MinioSecretKey: viper.GetString("minio_secret_key"),
		MinioBucket:    viper.GetString("minio_bucket"),
		MinioUseSSL:    viper.GetBool("minio_use_ssl"),

		ServerAddr: viper.GetString("server_addr"),
		JWTSecret:  viper.GetString("jwt_secret"),

		AdminUsername: viper.GetString("admin_username"),
		AdminPassword: viper.GetString("admin_password"),
		AdminName:     viper.GetString("admin_name"),

		SessionFile: viper.GetString("session_file"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return cfg, nil
}

// setDefaults registers the fallback values.
func setDefaults() {
	viper.SetDefault("backend", BackendLocal)
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("blob_dir", "blobs")
	viper.SetDefault("minio_bucket", "gacetas")
	viper.SetDefault("server_addr", ":8080")
	viper.SetDefault("admin_username", "admin")
	viper.SetDefault("admin_password", "admin123")
	viper.SetDefault("admin_name", "Administrador")
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the
// default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
