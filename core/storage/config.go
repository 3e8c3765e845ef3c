package storage

// Config holds the S3/MinIO connection used to read rating corpora.
type Config struct {
	// Endpoint is host:port of the service; an http(s):// scheme is stripped.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	// Bucket holds the corpus read by the bulk loader.
	Bucket string `mapstructure:"bucket" default:"netflix-prize"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing, TLS and response headers. Corpus files
	// are streamed, so it does not cap a whole download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
