package loom

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// properties is the merged configuration a registry serves to components.
// Lookup precedence: explicit overrides, the process environment, dotenv
// files, then TOML files.
type properties struct {
	overrides map[string]string
	env       map[string]string
	file      map[string]string
}

func loadProperties(cfg *registryConfig) (*properties, error) {
	p := &properties{
		overrides: cfg.overrides,
		env:       make(map[string]string),
		file:      make(map[string]string),
	}

	for _, path := range cfg.propertyFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, newError(ErrCodeMissingProperty, fmt.Sprintf("cannot read properties file %s", path), err)
		}
		var doc map[string]any
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return nil, newError(ErrCodeConversion, fmt.Sprintf("cannot parse properties file %s", path), err)
		}
		flattenInto(p.file, "", doc)
	}

	for _, path := range cfg.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, newError(ErrCodeMissingProperty, fmt.Sprintf("cannot read env file %s", path), err)
		}
		for k, v := range values {
			p.env[k] = v
		}
	}

	return p, nil
}

// flattenInto renders nested TOML tables as dotted keys, so
// [database] url = "..." becomes "database.url".
func flattenInto(dst map[string]string, prefix string, doc map[string]any) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(dst, key, nested)
			continue
		}
		dst[key] = renderPropertyValue(v)
	}
}

func renderPropertyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// envKey maps a property key to its environment variable form:
// "database.url" becomes "DATABASE_URL".
func envKey(key string) string {
	upper := strings.ToUpper(key)
	upper = strings.ReplaceAll(upper, ".", "_")
	return strings.ReplaceAll(upper, "-", "_")
}

func (p *properties) lookup(key string) (string, bool) {
	if v, ok := p.overrides[key]; ok {
		return v, true
	}
	if v, ok := os.LookupEnv(envKey(key)); ok {
		return v, true
	}
	if v, ok := p.env[envKey(key)]; ok {
		return v, true
	}
	if v, ok := p.file[key]; ok {
		return v, true
	}
	return "", false
}

// GetProperty returns the property bound under key, converted to T.
func GetProperty[T any](inj *Injector, key string) (T, error) {
	var zero T
	raw, ok := inj.registry.props.lookup(key)
	if !ok {
		return zero, newError(
			ErrCodeMissingProperty,
			fmt.Sprintf("no value configured for property %q", key),
			nil,
		)
	}
	return convertProperty[T](key, raw)
}

// GetPropertyOr returns the property bound under key, falling back to the
// given raw default when no source provides a value.
func GetPropertyOr[T any](inj *Injector, key, fallback string) (T, error) {
	raw, ok := inj.registry.props.lookup(key)
	if !ok {
		raw = fallback
	}
	return convertProperty[T](key, raw)
}

func convertProperty[T any](key, raw string) (T, error) {
	var zero T
	var out any
	var err error

	switch any(zero).(type) {
	case string:
		out = raw
	case bool:
		out, err = strconv.ParseBool(raw)
	case int:
		var n int64
		n, err = strconv.ParseInt(raw, 10, 0)
		out = int(n)
	case int64:
		out, err = strconv.ParseInt(raw, 10, 64)
	case uint:
		var n uint64
		n, err = strconv.ParseUint(raw, 10, 0)
		out = uint(n)
	case float64:
		out, err = strconv.ParseFloat(raw, 64)
	case time.Duration:
		out, err = time.ParseDuration(raw)
	default:
		return zero, newError(
			ErrCodeConversion,
			fmt.Sprintf("property %q: unsupported target type %s", key, typeName[T]()),
			nil,
		)
	}
	if err != nil {
		return zero, newError(
			ErrCodeConversion,
			fmt.Sprintf("property %q: cannot convert %q to %s", key, raw, typeName[T]()),
			err,
		)
	}
	return out.(T), nil
}
