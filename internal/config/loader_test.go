package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/kyunghoon/twasm/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConfig_EnvVarRegex(t *testing.T) {
	re := config.EnvVarRegex
	inputs := []string{
		"${var_name1}",
		"${var_name2:-default}",
		"${var_name3:-}",
		"${var_name4:default}",
		"${var_name5:}",
	}
	results := make(map[string]string)
	for _, input := range inputs {
		matches := re.FindAllStringSubmatch(input, -1)
		for _, match := range matches {
			results[input] = match[1] + "//" + match[3]
		}
	}
	assert.Equal(t, results, map[string]string{
		"${var_name1}":          "var_name1//",
		"${var_name2:-default}": "var_name2//default",
		"${var_name3:-}":        "var_name3//",
	})
}

func TestConfig_CommandRegex(t *testing.T) {
	re := config.CommandRegex
	inputs := []string{
		"$(cmd1)",
		"$(cmd2 arg1 arg2)",
		"$(cmd3 \"arg1\" 'arg2')",
	}
	results := make(map[string]string)
	for _, input := range inputs {
		matches := re.FindAllStringSubmatch(input, -1)
		for _, match := range matches {
			results[input] = match[1]
		}
	}
	assert.Equal(t, results, map[string]string{
		"$(cmd1)":                 "cmd1",
		"$(cmd2 arg1 arg2)":       "cmd2 arg1 arg2",
		"$(cmd3 \"arg1\" 'arg2')": "cmd3 \"arg1\" 'arg2'",
	})
}

func TestConfig_LoaderVariables(t *testing.T) {
	os.Setenv("ENV1", "test1")
	os.Setenv("ENV2", "test2")
	os.Setenv("ENV3", "test3")
	os.Setenv("ENV4", "")
	os.Setenv("ENV5", "test5")
	os.Setenv("SERVER_PORT", "9090")
	conf, err := config.LoadConfig("testdata/env.config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{
		"test1",
		"$ENV2",
		"test3",
		"test4",
		"testing",
		"test test5",
	}, conf.Tags)
	assert.Equal(t, "v1", conf.Version)
	assert.Equal(t, "localhost", conf.Server.Host)
	assert.Equal(t, 9090, conf.Server.Port)
	assert.Equal(t, "./src", conf.Server.SourceRoot)
	assert.Equal(t, "test1-test2-testing",
		conf.Server.GlobalHeaders["X-Served-By"])
	assert.Equal(t, "amd", conf.Transform.Format)
	assert.Equal(t, "app", conf.Transform.GlobalNamePrefix)
	assert.Equal(t, true, conf.Cache.Enabled)
	assert.Equal(t, 30*time.Second, conf.Cache.TTL)
	assert.Equal(t, 1024, conf.Cache.MaxItems)
}

func TestConfig_Defaults(t *testing.T) {
	conf, err := config.LoadConfig("testdata/minimal.config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, "127.0.0.1", conf.Server.Host)
	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, "umd", conf.Transform.Format)
	assert.Equal(t, 5*time.Minute, conf.Cache.TTL)
}

func TestConfig_VersionRequired(t *testing.T) {
	_, err := config.LoadConfig("testdata/noversion.config.yaml")
	assert.Error(t, err)
}

func TestConfig_InvalidFormat(t *testing.T) {
	_, err := config.LoadConfig("testdata/badformat.config.yaml")
	assert.Error(t, err)
}
