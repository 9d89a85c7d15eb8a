package wiki

// Config holds the file-based configuration for the content store.
// These are bootstrap settings loaded from config.yaml that are needed
// before the database connection is established.
type Config struct {
	DatabaseFile  string `yaml:"dbfile"`
	Host          string `yaml:"host"`
	WikiName      string `yaml:"wiki_name"`
	LogFormat     string `yaml:"log_format"`
	LogLevel      string `yaml:"log_level"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}
