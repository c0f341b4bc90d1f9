// Package source loads label field edits from files: the .label DSL, TOML,
// YAML and JSON. Every loader produces the same edit stream, ordered as
// label.Fields, so all formats fill the form identically.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/foodlabels/binding"
	"github.com/ByLCY/foodlabels/dsl"
	"github.com/ByLCY/foodlabels/label"
)

// ErrUnsupportedFormat is returned when no parser accepts a file.
var ErrUnsupportedFormat = errors.New("source: unsupported format")

// Parser turns file contents into an edit stream.
type Parser interface {
	Type() string
	Supports(name string) bool
	Parse(data []byte, name string) ([]label.Edit, error)
}

var parsers = []Parser{
	LabelFile{},
	TOMLFile{},
	YAMLFile{},
	JSONFile{},
}

// Parsers returns the registered parsers in lookup order.
func Parsers() []Parser { return append([]Parser(nil), parsers...) }

// For returns the parser for a file name or a bare format name ("toml", ".yml").
func For(name string) (Parser, error) {
	for _, p := range parsers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Load reads path and returns its edits with ${...} placeholders resolved against data.
func Load(path string, data any) ([]label.Edit, error) {
	p, err := For(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	edits, err := p.Parse(raw, path)
	if err != nil {
		return nil, err
	}
	return binding.InterpolateEdits(edits, data), nil
}

// Decode reads r in the given format ("label", "toml", "yaml", "json").
func Decode(r io.Reader, format string, data any) ([]label.Edit, error) {
	p, err := For(format)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read %s input: %w", format, err)
	}
	edits, err := p.Parse(raw, "<"+p.Type()+">")
	if err != nil {
		return nil, err
	}
	return binding.InterpolateEdits(edits, data), nil
}

func supportsExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.ToLower(strings.TrimSpace(name))
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// LabelFile parses the .label DSL.
type LabelFile struct{}

func (LabelFile) Type() string              { return "label" }
func (LabelFile) Supports(name string) bool { return supportsExt(name, ".label") }

func (LabelFile) Parse(data []byte, name string) ([]label.Edit, error) {
	doc, err := dsl.ParseFile(name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", name, err)
	}
	return doc.Edits()
}

// TOMLFile parses a flat TOML table of fields.
type TOMLFile struct{}

func (TOMLFile) Type() string              { return "toml" }
func (TOMLFile) Supports(name string) bool { return supportsExt(name, ".toml") }

func (TOMLFile) Parse(data []byte, name string) ([]label.Edit, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", name, err)
	}
	return mapEdits(doc, name)
}

// YAMLFile parses a flat YAML mapping of fields.
type YAMLFile struct{}

func (YAMLFile) Type() string              { return "yaml" }
func (YAMLFile) Supports(name string) bool { return supportsExt(name, ".yaml", ".yml") }

func (YAMLFile) Parse(data []byte, name string) ([]label.Edit, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", name, err)
	}
	return mapEdits(doc, name)
}

// JSONFile parses a flat JSON object of fields.
type JSONFile struct{}

func (JSONFile) Type() string              { return "json" }
func (JSONFile) Supports(name string) bool { return supportsExt(name, ".json") }

func (JSONFile) Parse(data []byte, name string) ([]label.Edit, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", name, err)
	}
	return mapEdits(doc, name)
}

// mapEdits 将键值表转换为编辑流，顺序固定为 label.Fields。
func mapEdits(doc map[string]any, name string) ([]label.Edit, error) {
	values := make(map[label.Field]string, len(doc))
	keys := make(map[label.Field]string, len(doc))
	for key, raw := range doc {
		f, err := label.ParseField(key)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", name, err)
		}
		if prev, dup := keys[f]; dup {
			return nil, fmt.Errorf("source: %s: keys %q and %q both set %s", name, prev, key, f)
		}
		text, err := valueText(raw)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %s: %w", name, key, err)
		}
		keys[f] = key
		values[f] = text
	}
	edits := make([]label.Edit, 0, len(values))
	for _, f := range label.Fields {
		if v, ok := values[f]; ok {
			edits = append(edits, label.Edit{Field: f, Value: v})
		}
	}
	return edits, nil
}

func valueText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case time.Time:
		return val.Format(label.DateLayout), nil
	case fmt.Stringer:
		// toml.LocalDate 等
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
