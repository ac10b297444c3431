package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/github"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("cms-oauth-relay version %s, commit %s, built at %s", version, commit, date)
}

const (
	// DefaultPort matches the port the relay has always listened on.
	DefaultPort = 5000

	// DefaultScopes is the scope list requested from GitHub. The comma is sent literally.
	DefaultScopes = "repo,user"

	// DefaultCORSMaxAge is the preflight cache lifetime in seconds.
	DefaultCORSMaxAge = 3600
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scopes       string `mapstructure:"scopes"`
	AuthURL      string `mapstructure:"auth_url"`  // GitHub authorize endpoint
	TokenURL     string `mapstructure:"token_url"` // GitHub access token endpoint
	// ExchangeTimeout bounds the outbound token call. Zero leaves it unbounded.
	ExchangeTimeout time.Duration `mapstructure:"exchange_timeout"`
	// ErrorStatus is the status code of the rendered error page.
	ErrorStatus int `mapstructure:"error_status"`
}

type CORSConfig struct {
	Origin string `mapstructure:"origin"`
	// QuoteOrigin wraps the origin in literal double quotes, which is what
	// deployed front ends have always received.
	QuoteOrigin bool `mapstructure:"quote_origin"`
	MaxAge      int  `mapstructure:"max_age"`
}

// AllowOrigin returns the Access-Control-Allow-Origin header value.
func (c CORSConfig) AllowOrigin() string {
	if c.QuoteOrigin {
		return `"` + c.Origin + `"`
	}
	return c.Origin
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// legacyEnv maps config keys to the unprefixed variables the relay has always read.
var legacyEnv = map[string]string{
	"oauth.client_id":     "OAUTH_CLIENT_ID",
	"oauth.client_secret": "OAUTH_CLIENT_SECRET",
	"cors.origin":         "ORIGIN_HEADER",
	"server.port":         "PORT",
}

// InitFlags registers command line flags on the given set (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config file")
	flags.String("host", "0.0.0.0", "Host to listen on")
	flags.Int("port", DefaultPort, "Port to listen on")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.disable_stacktrace", false)
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.append_to_file", true)
	v.SetDefault("logging.disable_console", false)

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.scopes", DefaultScopes)
	v.SetDefault("oauth.auth_url", github.Endpoint.AuthURL)
	v.SetDefault("oauth.token_url", github.Endpoint.TokenURL)
	v.SetDefault("oauth.exchange_timeout", 30*time.Second)
	v.SetDefault("oauth.error_status", http.StatusOK)

	v.SetDefault("cors.origin", "")
	v.SetDefault("cors.quote_origin", true)
	v.SetDefault("cors.max_age", DefaultCORSMaxAge)

	v.SetDefault("telemetry.service_name", "cms-oauth-relay")
	v.SetDefault("telemetry.otlp_endpoint", "")

	v.SetDefault("metrics.enabled", false)
}

// Load builds the configuration from defaults, an optional config file,
// environment variables and flags, in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, name := range legacyEnv {
		prefixed := "RELAY_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, err
		}
	}

	configFile := ""
	if flags != nil {
		for key, flag := range map[string]string{
			"server.host":   "host",
			"server.port":   "port",
			"logging.level": "log-level",
		} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cms-oauth-relay")

		// The config file is optional, env vars alone are enough to run
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values the relay cannot run without.
func (c *Config) Validate() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required, please adjust the config or set OAUTH_CLIENT_ID environment variable")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required, please adjust the config or set OAUTH_CLIENT_SECRET environment variable")
	}
	if strings.TrimSpace(c.OAuth.Scopes) == "" {
		return fmt.Errorf("oauth.scopes must not be empty")
	}
	if c.OAuth.AuthURL == "" || c.OAuth.TokenURL == "" {
		return fmt.Errorf("oauth.auth_url and oauth.token_url must not be empty")
	}
	if c.OAuth.ExchangeTimeout < 0 {
		return fmt.Errorf("oauth.exchange_timeout must not be negative")
	}
	if http.StatusText(c.OAuth.ErrorStatus) == "" {
		return fmt.Errorf("oauth.error_status %d is not a valid HTTP status", c.OAuth.ErrorStatus)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console|json)", c.Logging.Format)
	}
	return nil
}
