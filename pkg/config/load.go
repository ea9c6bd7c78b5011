package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cardforge/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported config extension %q (want .json or .toml)", filepath.Ext(path))
}

// Load reads a document and merges it onto the defaults.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes a document and merges it onto the defaults. Nested objects
// merge key by key; any other override value replaces the default wholesale.
func Parse(data []byte, format Format) (*Config, error) {
	override, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}

	base, err := Default().Document()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode defaults")
	}
	merged := Merge(base, override)

	raw, err := marshal(merged)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "encode merged config")
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	return &cfg, nil
}

func decodeDocument(data []byte, format Format) (map[string]any, error) {
	doc := make(map[string]any)
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse TOML")
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse JSON")
		}
	}
	return doc, nil
}

// Merge returns base with override applied. Neither input is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		bm, baseIsMap := out[k].(map[string]any)
		om, overrideIsMap := v.(map[string]any)
		if baseIsMap && overrideIsMap {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// Document returns the config as a generic key/value tree, unknown keys
// included.
func (c *Config) Document() (map[string]any, error) {
	data, err := marshal(c)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode renders the document in the given format. JSON is indented with
// non-ASCII text left as is.
func (c *Config) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		doc, err := c.Document()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tomlValue(doc)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode TOML")
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode JSON")
		}
		return buf.Bytes(), nil
	}
}

// Save writes the document to path in the format its extension names.
func (c *Config) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := c.Encode(format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeOutput, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeOutput, err, "write config %s", path)
	}
	c.path = path
	return nil
}

// ResolveTemplate returns the template path. Relative paths join baseDir,
// then the directory of the loaded document, then the executable directory.
func (c *Config) ResolveTemplate(baseDir string) string {
	if c.Template == "" || filepath.IsAbs(c.Template) {
		return c.Template
	}
	if baseDir == "" && c.path != "" {
		baseDir = filepath.Dir(c.path)
	}
	if baseDir == "" {
		baseDir = executableDir()
	}
	return filepath.Join(baseDir, c.Template)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// tomlValue prepares a JSON-shaped tree for TOML: nulls are dropped and
// whole floats become integers.
func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = tomlValue(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			if val == nil {
				continue
			}
			out = append(out, tomlValue(val))
		}
		return out
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	default:
		return t
	}
}

// String renders the document as indented JSON.
func (c *Config) String() string {
	data, err := c.Encode(FormatJSON)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
