// Package config provides configuration functionality for the mail
// authentication service.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// DNS settings
	DNSResolvers       []string `mapstructure:"dns_resolvers"`
	DNSQueryTimeoutMs  int      `mapstructure:"dns_query_timeout_ms"`
	DNSLookupTimeoutMs int      `mapstructure:"dns_lookup_timeout_ms"`

	// Mail authentication settings
	MailAuth MailAuthConfig `mapstructure:"mail_auth"`
}

// MailAuthConfig holds the SPF/DMARC evaluation limits spec.md §4.4/§4.7/§5
// fixes. They are loaded and shown by PrintConfig, but they are not passed to
// the evaluator or the service adapter, which use their own constants with
// the same default values; changing them here does not change evaluation.
type MailAuthConfig struct {
	SPFMaxLookups   int `mapstructure:"spf_max_lookups"`
	SPFMaxDepth     int `mapstructure:"spf_max_depth"`
	CheckDeadlineMs int `mapstructure:"check_deadline_ms"`
}

// APIConfig contains API configuration options
type APIConfig struct {
	// Rate limiting settings
	RateLimitRequestsPerMinute int           // Number of requests allowed per minute per IP
	RateLimitBurstSize         int           // Burst size for rate limiting
	RateLimitCleanupInterval   time.Duration // How often to clean up old entries in the rate limiter

	// Server settings
	Port int    // The port on which the API server listens
	Host string // The host address to bind to
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",

		DNSResolvers:       []string{"8.8.8.8:53", "1.1.1.1:53"},
		DNSQueryTimeoutMs:  2000,
		DNSLookupTimeoutMs: 4000,

		MailAuth: MailAuthConfig{
			SPFMaxLookups:   10,
			SPFMaxDepth:     20,
			CheckDeadlineMs: 10000,
		},
	}
}

// NewAPIConfig creates a new API configuration with defaults and environment overrides
func NewAPIConfig() *APIConfig {
	config := &APIConfig{
		RateLimitRequestsPerMinute: 60,
		RateLimitBurstSize:         10,
		RateLimitCleanupInterval:   time.Minute * 5,
		Port:                       8080,
		Host:                       "0.0.0.0",
	}

	if val := os.Getenv("MAILAUTH_API_PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil && port > 0 {
			config.Port = port
		}
	}
	if val := os.Getenv("MAILAUTH_API_HOST"); val != "" {
		config.Host = val
	}

	return config
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	defaultConfig := DefaultConfig()
	v.SetDefault("log_level", defaultConfig.LogLevel)
	v.SetDefault("dns_resolvers", defaultConfig.DNSResolvers)
	v.SetDefault("dns_query_timeout_ms", defaultConfig.DNSQueryTimeoutMs)
	v.SetDefault("dns_lookup_timeout_ms", defaultConfig.DNSLookupTimeoutMs)
	v.SetDefault("mail_auth.spf_max_lookups", defaultConfig.MailAuth.SPFMaxLookups)
	v.SetDefault("mail_auth.spf_max_depth", defaultConfig.MailAuth.SPFMaxDepth)
	v.SetDefault("mail_auth.check_deadline_ms", defaultConfig.MailAuth.CheckDeadlineMs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mailauth")
		v.AddConfigPath("/etc/mailauth")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MAILAUTH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return config, nil
}

// PrintConfig prints the configuration to the console
func (c *Config) PrintConfig() {
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Log Level: %s\n", c.LogLevel)
	fmt.Printf("  DNS Resolvers: %v\n", c.DNSResolvers)
	fmt.Printf("  DNS Query Timeout: %d ms\n", c.DNSQueryTimeoutMs)
	fmt.Printf("  DNS Lookup Timeout: %d ms\n", c.DNSLookupTimeoutMs)
	fmt.Printf("  SPF Max Lookups: %d\n", c.MailAuth.SPFMaxLookups)
	fmt.Printf("  SPF Max Depth: %d\n", c.MailAuth.SPFMaxDepth)
	fmt.Printf("  Check Deadline: %d ms\n", c.MailAuth.CheckDeadlineMs)
}
