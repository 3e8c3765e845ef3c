package bulk

// Config describes the layout of a Netflix-prize style corpus.
type Config struct {
	// Source selects where the corpus lives: "dir" or "bucket".
	Source string `mapstructure:"source" default:"dir"`
	// Dir is the corpus root when Source is "dir".
	Dir string `mapstructure:"dir" default:"data/netflix"`
	// Prefix is the corpus root inside the storage bucket when Source is "bucket".
	Prefix string `mapstructure:"prefix" default:""`
	// MetadataFile lists "<id>,<year>,<title>" per item.
	MetadataFile string `mapstructure:"metadata_file" default:"movie_titles.txt"`
	// TrainingDir holds one preference file per item.
	TrainingDir string `mapstructure:"training_dir" default:"training_set"`
	// FilePrefix selects the preference files inside TrainingDir.
	FilePrefix string `mapstructure:"file_prefix" default:"mv_"`
	// Workers bounds how many preference files are parsed at once.
	Workers int `mapstructure:"workers" default:"4"`
	// MaxItems is the largest item id accepted from the metadata file.
	MaxItems int `mapstructure:"max_items" default:"1000000"`
}

// DefaultConfig returns the stock corpus layout.
func DefaultConfig() Config {
	return Config{
		Source:       "dir",
		Dir:          "data/netflix",
		MetadataFile: "movie_titles.txt",
		TrainingDir:  "training_set",
		FilePrefix:   "mv_",
		Workers:      4,
		MaxItems:     1000000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MetadataFile == "" {
		c.MetadataFile = d.MetadataFile
	}
	if c.TrainingDir == "" {
		c.TrainingDir = d.TrainingDir
	}
	if c.FilePrefix == "" {
		c.FilePrefix = d.FilePrefix
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	return c
}
