package patchfile

import (
	"fmt"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/v2"
)

// bytesProvider hands an in-memory document to a koanf parser.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) {
	return b, nil
}

func (b bytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("bytesProvider does not support Read")
}

func parseKoanf(data []byte, format string) (*Patch, error) {
	var parser koanf.Parser
	if format == FormatTOML {
		parser = toml.Parser()
	} else {
		parser = json.Parser()
	}

	k := koanf.New(".")
	if err := k.Load(bytesProvider(data), parser); err != nil {
		return nil, err
	}

	var p Patch
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patch: %w", err)
	}
	return &p, nil
}
