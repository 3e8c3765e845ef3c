package database

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path for sqlite (":memory:" for an in-memory database).
	Name string `mapstructure:"name" default:"taste"`
	// TimeoutSeconds bounds connection setup and each read/write.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxOpenConns caps the pool. Each streaming enumeration holds one connection until drained.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"100"`
	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"10"`
}
