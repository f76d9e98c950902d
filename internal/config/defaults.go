package config

import (
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Key joins a package namespace and a key: ("rinvex/subscriptions",
// "autoload_migrations") is "rinvex.subscriptions.autoload_migrations".
func Key(namespace, key string) string {
	return strings.ReplaceAll(namespace, "/", ".") + "." + key
}

// ParseDefaults decodes a package's YAML configuration.
func ParseDefaults(data []byte, file string) (map[string]any, error) {
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	return out, nil
}

// MergeDefaults merges package defaults under the namespace of v. Values the
// host already configured win; missing keys, at any depth, come from
// defaults. The merged tree is installed as viper defaults, so environment
// variables keep their precedence. The effective namespace settings are
// returned.
func MergeDefaults(v *viper.Viper, namespace string, defaults map[string]any) (map[string]any, error) {
	root := strings.ReplaceAll(namespace, "/", ".")

	host := map[string]any{}
	if existing := v.Get(root); existing != nil {
		m, err := cast.ToStringMapE(existing)
		if err != nil {
			return nil, errors.NewConfigError(root, "existing configuration is not a map", err)
		}
		host = normalize(m)
	}

	if err := mergo.Merge(&host, normalize(defaults)); err != nil {
		return nil, errors.NewConfigError(root, "failed to merge package defaults", err)
	}

	v.SetDefault(root, host)
	return host, nil
}

// Bool reads a boolean setting, accepting strings such as "true" or "1"
// from environment variables.
func Bool(v *viper.Viper, key string) bool {
	return cast.ToBool(v.Get(key))
}

// normalize converts nested maps to map[string]any so they merge deeply.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		switch child := val.(type) {
		case map[string]any:
			out[strings.ToLower(k)] = normalize(child)
		case map[any]any:
			out[strings.ToLower(k)] = normalize(cast.ToStringMap(child))
		default:
			out[strings.ToLower(k)] = val
		}
	}
	return out
}
