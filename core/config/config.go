package config

import (
	"reflect"
	"strings"

	"prefmodel/core/database"
	"prefmodel/core/logger"
	"prefmodel/core/server"
	"prefmodel/core/storage"
	"prefmodel/feature/bulk"
	"prefmodel/feature/export"
	"prefmodel/feature/filemodel"
	"prefmodel/feature/sqlmodel"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend names accepted in model.backend.
const (
	BackendSQL  = "sql"
	BackendFile = "file"
	BackendBulk = "bulk"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Model selects and configures the preference backend.
	Model ModelConfig `mapstructure:"model"`
	// Export holds configuration for the Redis export.
	Export export.Config `mapstructure:"export"`
}

// ModelConfig selects the backend and holds each backend's settings.
type ModelConfig struct {
	// Backend is one of sql, file or bulk.
	Backend string           `mapstructure:"backend" default:"sql"`
	SQL     sqlmodel.Config  `mapstructure:"sql"`
	File    filemodel.Config `mapstructure:"file"`
	Bulk    bulk.Config      `mapstructure:"bulk"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. MODEL_FILE_PATH -> model.file.path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Untagged fields are not configurable
		if tag == "" {
			continue
		}

		// Build the dotted key, e.g. model.file.reload_interval
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// Backend sections (model.sql, model.file, model.bulk) are nested structs, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
