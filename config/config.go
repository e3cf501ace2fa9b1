package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHIPDOCS_DB_HOST
const EnvPrefix = "SHIPDOCS"

// Config holds all configuration for the shipping document service
type Config struct {
	// Server Configuration
	HTTPPort string
	LogLevel string

	// Database Configuration
	DatabaseHost    string
	DatabasePort    string
	DatabaseUser    string
	DatabasePass    string
	DatabaseName    string
	DatabaseSSLMode string

	// Order system gateway
	SourceEndpoint string // e.g., "http://localhost:7000"
	SourceTimeout  time.Duration

	// Snapshot journal
	JournalPath     string
	JournalInMemory bool
	JournalTTL      time.Duration

	// Layout
	PageCapacity            int
	KeepFirstPageBoundaries bool
	ExcludedNoteSubstring   string

	// Freight classification table (YAML); empty uses the built-in table
	FreightTablePath string

	// Logos
	DefaultLogoPath string
	SpecialLogoPath string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "6000")
	v.SetDefault("log_level", "info")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgrespassword")
	v.SetDefault("db.name", "shipdocs")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("source.endpoint", "http://localhost:7000")
	v.SetDefault("source.timeout", "30s")

	v.SetDefault("journal.path", "./data/journal")
	v.SetDefault("journal.in_memory", false)
	v.SetDefault("journal.ttl", "0s")

	v.SetDefault("layout.capacity", 35)
	v.SetDefault("layout.keep_first_page_boundaries", false)
	v.SetDefault("layout.excluded_note_substring", "OPTIONS")

	v.SetDefault("freight_table", "")

	v.SetDefault("logos.default", "logos/versteel.png")
	v.SetDefault("logos.special", "logos/versteel-special.png")
}

// LoadConfig reads defaults, then the optional config file, then
// SHIPDOCS_* environment variables (dots become underscores)
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	return &Config{
		HTTPPort: v.GetString("http_port"),
		LogLevel: v.GetString("log_level"),

		DatabaseHost:    v.GetString("db.host"),
		DatabasePort:    v.GetString("db.port"),
		DatabaseUser:    v.GetString("db.user"),
		DatabasePass:    v.GetString("db.password"),
		DatabaseName:    v.GetString("db.name"),
		DatabaseSSLMode: v.GetString("db.sslmode"),

		SourceEndpoint: strings.TrimRight(v.GetString("source.endpoint"), "/"),
		SourceTimeout:  v.GetDuration("source.timeout"),

		JournalPath:     v.GetString("journal.path"),
		JournalInMemory: v.GetBool("journal.in_memory"),
		JournalTTL:      v.GetDuration("journal.ttl"),

		PageCapacity:            v.GetInt("layout.capacity"),
		KeepFirstPageBoundaries: v.GetBool("layout.keep_first_page_boundaries"),
		ExcludedNoteSubstring:   v.GetString("layout.excluded_note_substring"),

		FreightTablePath: v.GetString("freight_table"),

		DefaultLogoPath: v.GetString("logos.default"),
		SpecialLogoPath: v.GetString("logos.special"),
	}, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePass,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port is required")
	}
	if c.DatabaseHost == "" || c.DatabaseName == "" {
		return fmt.Errorf("db.host and db.name are required")
	}
	if c.SourceEndpoint == "" {
		return fmt.Errorf("source.endpoint is required")
	}
	if u, err := url.Parse(c.SourceEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.endpoint %q is not an absolute URL", c.SourceEndpoint)
	}
	if c.SourceTimeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if c.PageCapacity <= 0 {
		return fmt.Errorf("layout.capacity must be positive, got %d", c.PageCapacity)
	}
	if c.JournalTTL < 0 {
		return fmt.Errorf("journal.ttl must not be negative")
	}
	if !c.JournalInMemory && c.JournalPath == "" {
		return fmt.Errorf("journal.path is required unless journal.in_memory is set")
	}
	return nil
}
