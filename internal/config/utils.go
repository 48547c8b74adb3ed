package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/mapstructure"
)

// expandPatterns rewrites, in place, every string value in data whose
// text matches re. Each match is replaced by the result of expand,
// called with the full original value and the match's named groups.
// String slices are rewritten element-wise; non-string values pass
// through untouched.
func expandPatterns(
	data map[string]any,
	re *regexp.Regexp,
	expand func(value string, groups map[string]string) (string, error),
	onErr func(groups map[string]string, err error),
) {
	for key, raw := range data {
		switch v := raw.(type) {
		case string:
			if out, changed := expandString(v, re, expand, onErr); changed {
				data[key] = out
			}
		case []string:
			for i, s := range v {
				if out, changed := expandString(s, re, expand, onErr); changed {
					v[i] = out
				}
			}
		case []any:
			for i, item := range v {
				s, isString := item.(string)
				if !isString {
					continue
				}
				if out, changed := expandString(s, re, expand, onErr); changed {
					v[i] = out
				}
			}
		}
	}
}

func expandString(
	value string,
	re *regexp.Regexp,
	expand func(value string, groups map[string]string) (string, error),
	onErr func(groups map[string]string, err error),
) (string, bool) {
	if value == "" || !re.MatchString(value) {
		return value, false
	}
	out := re.ReplaceAllStringFunc(value, func(match string) string {
		groups := namedGroups(re, match)
		result, err := expand(value, groups)
		if err != nil {
			onErr(groups, err)
		}
		return result
	})
	return out, true
}

func namedGroups(re *regexp.Regexp, s string) map[string]string {
	groups := make(map[string]string)
	sub := re.FindStringSubmatch(s)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(sub) {
			groups[name] = sub[i]
		}
	}
	return groups
}

// stringCoerceHookFunc converts string values to int or bool targets
// during unmarshal. Shell and env expansion always produce strings,
// so "8080" must still land in an int field.
func stringCoerceHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		switch to.Kind() {
		case reflect.Int:
			return strconv.Atoi(data.(string))
		case reflect.Bool:
			return strconv.ParseBool(data.(string))
		default:
			return data, nil
		}
	}
}

func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) || k.Get(key) == nil || value == "" {
		k.Set(key, value)
	}
}

func requireKeys(k *koanf.Koanf, keys ...string) error {
	for _, key := range keys {
		if !k.Exists(key) {
			return errors.New(key + " is required")
		}
	}
	return nil
}

// requireWhenSet demands the target keys once the dependent key is
// present; absent dependents leave the targets optional.
func requireWhenSet(k *koanf.Koanf, dependent string, targets ...string) error {
	if !k.Exists(dependent) {
		return nil
	}
	for _, target := range targets {
		if k.Get(target) == "" {
			return fmt.Errorf("%s is required, if %s is set", target, dependent)
		}
	}
	return nil
}
