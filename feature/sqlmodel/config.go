package sqlmodel

// Config names the preference table and its columns.
type Config struct {
	Table            string `mapstructure:"table" default:"taste_preferences"`
	UserColumn       string `mapstructure:"user_column" default:"user_id"`
	ItemColumn       string `mapstructure:"item_column" default:"item_id"`
	PreferenceColumn string `mapstructure:"preference_column" default:"preference"`
}

// DefaultConfig returns the stock table layout.
func DefaultConfig() Config {
	return Config{
		Table:            "taste_preferences",
		UserColumn:       "user_id",
		ItemColumn:       "item_id",
		PreferenceColumn: "preference",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Table == "" {
		c.Table = d.Table
	}
	if c.UserColumn == "" {
		c.UserColumn = d.UserColumn
	}
	if c.ItemColumn == "" {
		c.ItemColumn = d.ItemColumn
	}
	if c.PreferenceColumn == "" {
		c.PreferenceColumn = d.PreferenceColumn
	}
	return c
}
