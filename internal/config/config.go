package config

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	TwasmConfig struct {
		Version  string `koanf:"version"`
		LogLevel string `koanf:"log_level,string"`
		LogJson  bool   `koanf:"log_json"`
		LogColor bool   `koanf:"log_color"`

		NodeId    string           `koanf:"node_id"`
		Logging   *LoggingConfig   `koanf:"logging"`
		Server    ServerConfig     `koanf:"server"`
		Transform TransformConfig  `koanf:"transform"`
		Cache     CacheConfig      `koanf:"cache"`

		DisableMetrics bool     `koanf:"disable_metrics"`
		Debug          bool     `koanf:"debug"`
		Tags           []string `koanf:"tags"`
	}

	LoggingConfig struct {
		ZapConfig *zap.Config `koanf:",squash"`
	}

	ServerConfig struct {
		Host          string            `koanf:"host"`
		Port          int               `koanf:"port"`
		TLS           *TLSConfig        `koanf:"tls"`
		EnableH2C     bool              `koanf:"enable_h2c"`
		EnableHTTP2   bool              `koanf:"enable_http2"`
		SourceRoot    string            `koanf:"source_root"`
		GlobalHeaders map[string]string `koanf:"global_headers"`
	}

	TransformConfig struct {
		Format           string `koanf:"format"`
		NoInterop        bool   `koanf:"no_interop"`
		GlobalNamePrefix string `koanf:"global_name_prefix"`
	}

	CacheConfig struct {
		Enabled  bool          `koanf:"enabled"`
		TTL      time.Duration `koanf:"ttl"`
		MaxItems int           `koanf:"max_items"`
	}

	TLSConfig struct {
		Port     int    `koanf:"port"`
		CertFile string `koanf:"cert_file"`
		KeyFile  string `koanf:"key_file"`
	}
)

func (conf *TwasmConfig) GetLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	if conf.Logging == nil {
		conf.Logging = &LoggingConfig{}
	}
	if conf.Logging.ZapConfig == nil {
		config := zap.NewProductionConfig()
		config.Level = level
		config.DisableCaller = true
		config.DisableStacktrace = true
		config.Development = conf.Debug
		config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		config.OutputPaths = []string{"stdout"}

		if config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder; conf.LogColor {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		if config.Encoding = "console"; conf.LogJson {
			config.InitialFields = map[string]interface{}{
				"version":     conf.Version,
				"server_tags": conf.Tags,
				"node_id":     conf.NodeId,
			}
			config.Encoding = "json"
		}

		conf.Logging.ZapConfig = &config
	}

	if logger, err := conf.Logging.ZapConfig.Build(); err != nil {
		return nil, err
	} else {
		return logger, nil
	}
}
