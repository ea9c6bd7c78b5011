package config

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Each document type decodes over its defaults and keeps undeclared keys in
// Extra. The local plain types drop the methods so decoding does not recurse.

func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*c = Config(p)
	return nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return encodeWithExtra(plain(c), c.Extra)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	p := plain(defaultField())
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*f = Field(p)
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	type plain Field
	return encodeWithExtra(plain(f), f.Extra)
}

func (m *MultilineField) UnmarshalJSON(data []byte) error {
	type plain MultilineField
	p := plain(defaultMultilineField())
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = MultilineField(p)
	return nil
}

func (m MultilineField) MarshalJSON() ([]byte, error) {
	type plain MultilineField
	return encodeWithExtra(plain(m), m.Extra)
}

func (b *ImageBox) UnmarshalJSON(data []byte) error {
	type plain ImageBox
	p := plain(defaultImageBox())
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*b = ImageBox(p)
	return nil
}

func (b ImageBox) MarshalJSON() ([]byte, error) {
	type plain ImageBox
	return encodeWithExtra(plain(b), b.Extra)
}

func (f *Font) UnmarshalJSON(data []byte) error {
	type plain Font
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*f = Font(p)
	return nil
}

func (f Font) MarshalJSON() ([]byte, error) {
	type plain Font
	return encodeWithExtra(plain(f), f.Extra)
}

// decodeWithExtra decodes data into v and returns the object keys that v's
// struct type does not declare.
func decodeWithExtra(data []byte, v any) (map[string]any, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key := range jsonKeys(reflect.TypeOf(v).Elem()) {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra marshals v and adds extra keys that v does not already set.
func encodeWithExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for key, val := range extra {
		if _, ok := m[key]; !ok {
			m[key] = val
		}
	}
	return marshal(m)
}

// marshal encodes without HTML escaping so template text stays readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = true
	}
	return keys
}
