package configtest

import (
	"time"

	"github.com/kyunghoon/twasm/internal/config"
)

func NewTestTwasmConfig() *config.TwasmConfig {
	return &config.TwasmConfig{
		LogLevel: "panic",
		Debug:    true,
		Version:  "v1",
		Tags:     []string{"test"},
		Server: config.ServerConfig{
			Host:       "localhost",
			Port:       8080,
			SourceRoot: "testdata",
		},
		Transform: config.TransformConfig{
			Format: "umd",
		},
		Cache: config.CacheConfig{
			Enabled:  true,
			TTL:      time.Minute,
			MaxItems: 64,
		},
	}
}

func NewTestTwasmConfigNoCache() *config.TwasmConfig {
	conf := NewTestTwasmConfig()
	conf.Cache.Enabled = false
	return conf
}
