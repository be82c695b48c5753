package protocol

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// registryFile is the YAML layout:
//
//	protocols:
//	  - name: jupiter
//	    programs: [JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB]
type registryFile struct {
	Protocols []Entry `yaml:"protocols"`
}

// LoadRegistry reads a registry from YAML, keeping file order.
func LoadRegistry(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read protocol registry: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f registryFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode protocol registry: %w", err)
	}
	if len(f.Protocols) == 0 {
		return nil, fmt.Errorf("protocol registry: no protocols defined")
	}
	return NewRegistry(f.Protocols)
}

// LoadRegistryFile reads a registry from a YAML file.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open protocol registry: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}
