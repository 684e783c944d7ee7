package bytecode

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode reads a method file. JSON input is accepted as well since it is a
// subset of YAML.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read method file: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a method file held in memory.
func DecodeBytes(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("method file is empty")
		}
		return nil, fmt.Errorf("failed to decode method file: %w", err)
	}
	for _, m := range f.Methods {
		if m == nil {
			return nil, fmt.Errorf("method file contains an empty method entry")
		}
		if m.Class == "" {
			m.Class = f.Class
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		m.SortBlocks()
	}
	return &f, nil
}

// DecodeFile reads and decodes the method file at path.
func DecodeFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
