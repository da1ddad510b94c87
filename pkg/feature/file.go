package feature

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type document struct {
	Flags []Flag `yaml:"flags"`
}

// Parse reads a YAML flag document and evaluates it for env:
//
//	flags:
//	  - name: enable-password-manager-sync
//	    enabled: true
//	    environments: [development, staging]
func Parse(data []byte, env string) (*MemoryProvider, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidFile, err)
	}
	for i, f := range doc.Flags {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: flag #%d has no name", ErrInvalidFile, i+1)
		}
	}
	return NewMemoryProvider(env, doc.Flags...)
}

// LoadFile parses the flag document at path. A missing file yields a
// provider without flags.
func LoadFile(path, env string) (*MemoryProvider, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMemoryProvider(env)
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidFile, err)
	}
	return Parse(data, env)
}
