package quiz

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a quiz: the document plus optional rules.
type File struct {
	Document `yaml:",inline"`
	Options  Options `yaml:"options,omitempty"`
}

// LoadFile reads and decodes a quiz file. It does not validate the quiz;
// pass the result to NewConfig for that.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFile decodes YAML quiz data. Unknown fields are rejected so that
// typos in answer keys do not silently produce an unanswerable slide.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse quiz: %w", err)
	}
	return &f, nil
}

// LoadOptions reads a YAML file holding server-wide default Options.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read options file: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse options: %w", err)
	}
	return opts, nil
}
