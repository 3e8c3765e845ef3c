package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// MetricsPath is where the Prometheus registry is exposed. Empty disables it.
	MetricsPath string `mapstructure:"metrics_path" default:"/metrics"`
}

// Addr returns the listen address for Fiber.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}
