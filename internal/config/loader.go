package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/kyunghoon/twasm/pkg/util"
	"github.com/mitchellh/mapstructure"
)

var (
	EnvVarRegex  = regexp.MustCompile(`\${(?P<var_name>[a-zA-Z0-9_]{1,})(:-(?P<default>.*?)?)?}`)
	CommandRegex = regexp.MustCompile(`\$\((?P<cmd>.*?)\)`)
)

func LoadConfig(twasmConfigPath string) (*TwasmConfig, error) {
	ctx := context.Background()
	var twasmConfigData string
	if twasmConfigPath == "" {
		twasmConfigPath = os.Getenv("TWASM_CONFIG_PATH")
		twasmConfigData = os.Getenv("TWASM_CONFIG_DATA")
	}

	configDataType := os.Getenv("TWASM_CONFIG_TYPE")
	if configDataType == "" && twasmConfigPath != "" {
		fileExt := strings.ToLower(path.Ext(twasmConfigPath))
		if fileExt == "" {
			return nil, errors.New("no config file extension: set env TWASM_CONFIG_TYPE to json, toml or yaml")
		}
		configDataType = fileExt[1:]
	}

	var k = koanf.New(".")
	var parser koanf.Parser

	twasmConfig := &TwasmConfig{}
	if twasmConfigPath != "" {
		parser, err := determineParser(configDataType)
		if err != nil {
			return nil, err
		}
		err = k.Load(file.Provider(twasmConfigPath), parser)
		if err != nil {
			return nil, fmt.Errorf("error loading '%s' with %s parser: %v", twasmConfigPath, configDataType, err)
		}
	} else if twasmConfigData != "" {
		configFileData, err := base64.StdEncoding.DecodeString(
			strings.TrimSpace(twasmConfigData))
		if err != nil {
			return nil, err
		}
		if configDataType == "" {
			configDataType = "yaml"
		}
		parser, err = determineParser(configDataType)
		if err != nil {
			return nil, err
		}
		err = k.Load(rawbytes.Provider(configFileData), parser)
		if err != nil {
			return nil, err
		}
	} else {
		defaultConfigExts := []string{
			"yml", "yaml", "json", "toml",
		}

		var err error
		for _, ext := range defaultConfigExts {
			parser, err = determineParser(ext)
			if err != nil {
				return nil, err
			}
			err = k.Load(file.Provider("./config.twasm."+ext), parser)
			if err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf(
				"no config file: ./config.twasm.%s",
				defaultConfigExts,
			)
		}
	}

	panicVars := []string{}
	if !util.EnvBool("TWASM_DISABLE_SHELL_PARSER") {
		data := k.All()
		shell := "/bin/sh"
		if shellEnv := os.Getenv("SHELL"); shellEnv != "" {
			shell = shellEnv
		}
		expandPatterns(data, CommandRegex, func(value string, results map[string]string) (string, error) {
			cmdResult, err := exec.CommandContext(
				ctx, shell, "-c", results["cmd"]).Output()
			if err != nil {
				panicVars = append(panicVars, results["cmd"])
				return "", err
			}
			return strings.TrimSpace(string(cmdResult)), nil
		}, func(results map[string]string, err error) {
			panic("error on command - `" + results["cmd"] + "`: " + err.Error())
		})
		k.Load(confmap.Provider(data, "."), nil)
	}

	if !util.EnvBool("TWASM_DISABLE_ENV_PARSER") {
		data := k.All()
		expandPatterns(data, EnvVarRegex, func(value string, results map[string]string) (string, error) {
			if envVar := os.Getenv(results["var_name"]); envVar != "" {
				return envVar, nil
			} else if strings.Contains(value, results["var_name"]+":-") {
				return results["default"], nil
			}
			return "", nil
		}, func(results map[string]string, err error) {
			panicVars = append(panicVars, results["var_name"])
		})

		if len(panicVars) > 0 {
			panic("required env vars not set: " + strings.Join(panicVars, ", "))
		}
		k.Load(confmap.Provider(data, "."), nil)
	}

	// validate configuration
	var err error
	setDefault(k, "log_level", "info")
	err = requireKeys(k, "version")
	if err != nil {
		return nil, err
	}
	nodeId := os.Getenv("TWASM_NODE_ID")
	if nodeId == "" {
		nodeId = os.Getenv("HOST")
	}
	setDefault(k, "node_id", nodeId)

	setDefault(k, "server.host", "127.0.0.1")
	setDefault(k, "server.port", 8080)
	setDefault(k, "server.source_root", ".")
	setDefault(k, "server.enable_h2c", false)
	setDefault(k, "server.enable_http2", false)

	if k.Get("server.enable_h2c") == true &&
		k.Get("server.enable_http2") == false {
		return nil, errors.New("server: enable_h2c is true but enable_http2 is false")
	}

	err = requireWhenSet(k, "server.tls", "server.tls.port")
	if err != nil {
		return nil, err
	}

	setDefault(k, "transform.format", "umd")
	switch format := k.Get("transform.format"); format {
	case "umd", "amd":
	default:
		return nil, fmt.Errorf("transform: invalid format: %v", format)
	}

	setDefault(k, "cache.enabled", true)
	setDefault(k, "cache.ttl", "5m")
	setDefault(k, "cache.max_items", 1024)

	err = k.UnmarshalWithConf("", twasmConfig, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result: twasmConfig,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringCoerceHookFunc(),
			),
		},
	})
	if err != nil {
		return nil, err
	}
	return twasmConfig, nil
}

func determineParser(configDataType string) (koanf.Parser, error) {
	switch configDataType {
	case "json":
		return kjson.Parser(), nil
	case "toml":
		return ktoml.Parser(), nil
	case "yaml", "yml":
		return kyaml.Parser(), nil
	default:
		return nil, errors.New("unknown config type: " + configDataType)
	}
}
