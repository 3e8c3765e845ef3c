// Package config provides configuration management for prefmodel.
//
// It uses Viper to read environment variables, optionally seeded from a .env
// file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, metrics path
//   - Log: level and format
//   - Database: driver (mysql or sqlite) and connection details
//   - Storage: S3/MinIO credentials and bucket for the bulk corpus
//   - Model: the backend (sql, file, bulk) and the settings of each
//   - Export: Redis target for the export command
//
// Nested keys map to upper-case environment variables joined by underscores,
// so model.file.reload_interval is MODEL_FILE_RELOAD_INTERVAL.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Model.Backend)
package config
