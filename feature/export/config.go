package export

// Config holds settings for exporting a model to Redis.
type Config struct {
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password authenticates to Redis.
	Password string `mapstructure:"password" default:""`
	// DB selects the Redis database.
	DB int `mapstructure:"db" default:"0"`
	// Prefix namespaces every key written.
	Prefix string `mapstructure:"prefix" default:"cf"`
	// BatchSize is the number of keys sent per pipeline.
	BatchSize int `mapstructure:"batch_size" default:"500"`
	// TTLSeconds expires exported keys; zero keeps them forever.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"0"`
}
