package domain

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.trai.ch/zerr"
)

// ToolConfig is an opaque JSON configuration object handed to an external tool adapter
// (bundler, post-processor, minifier). The zero value is an empty object.
type ToolConfig struct {
	raw string
}

// NewToolConfig parses a JSON object.
func NewToolConfig(raw []byte) (ToolConfig, error) {
	if len(raw) == 0 {
		return ToolConfig{}, nil
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return ToolConfig{}, ErrInvalidToolConfig
	}
	return ToolConfig{raw: string(raw)}, nil
}

// ToolConfigFromMap builds a ToolConfig from a decoded document, e.g. a YAML mapping.
func ToolConfigFromMap(m map[string]any) (ToolConfig, error) {
	if len(m) == 0 {
		return ToolConfig{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return ToolConfig{}, zerr.Wrap(err, ErrInvalidToolConfig.Error())
	}
	return NewToolConfig(raw)
}

// Get returns the value at a gjson path.
func (c ToolConfig) Get(path string) gjson.Result {
	return gjson.Get(c.JSON(), path)
}

// Has reports whether a value exists at the path.
func (c ToolConfig) Has(path string) bool {
	return c.Get(path).Exists()
}

// With returns a copy of the config with the value at path replaced.
func (c ToolConfig) With(path string, value any) (ToolConfig, error) {
	updated, err := sjson.Set(c.JSON(), path, value)
	if err != nil {
		return c, zerr.With(zerr.Wrap(err, ErrToolConfigUpdateFailed.Error()), "path", path)
	}
	return ToolConfig{raw: updated}, nil
}

// WithDefault sets the value at path only when nothing is configured there.
func (c ToolConfig) WithDefault(path string, value any) (ToolConfig, error) {
	if c.Has(path) {
		return c, nil
	}
	return c.With(path, value)
}

// JSON returns the raw JSON document.
func (c ToolConfig) JSON() string {
	if c.raw == "" {
		return "{}"
	}
	return c.raw
}

// StringSlice reads a string or an array of strings at path.
func (c ToolConfig) StringSlice(path string) []string {
	v := c.Get(path)
	if !v.Exists() {
		return nil
	}
	if !v.IsArray() {
		return []string{v.String()}
	}
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		out = append(out, item.String())
	}
	return out
}

// StringMap reads an object of strings at path.
func (c ToolConfig) StringMap(path string) map[string]string {
	v := c.Get(path)
	if !v.IsObject() {
		return nil
	}
	out := make(map[string]string)
	v.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}
