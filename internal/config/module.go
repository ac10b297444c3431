package config

import "go.uber.org/fx"

// Module exposes the sections of a supplied *Config to the other modules
var Module = fx.Module("config",
	fx.Provide(
		func(c *Config) *OAuthConfig { return &c.OAuth },
		func(c *Config) *CORSConfig { return &c.CORS },
		func(c *Config) *ServerConfig { return &c.Server },
	),
)
