// Package patchfile loads patch descriptions from TOML, JSON or HCL files
// and turns them into graphs the compiler accepts.
package patchfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/settings"
)

// Supported formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatHCL  = "hcl"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported patch format")

// Patch is a decoded patch description.
type Patch struct {
	Nodes       []Node       `json:"nodes" koanf:"nodes"`
	Connections []Connection `json:"connections" koanf:"connections"`

	// Settings holds the compilation settings stored with the patch.
	// Command line and request overrides are applied on top.
	Settings settings.Settings `json:"settings" koanf:"settings"`
}

// Node describes one node. Inlets and outlets are written "<id>:<kind>";
// when both are omitted the layout declared by the node type is used.
type Node struct {
	ID      string         `json:"id" koanf:"id"`
	Type    string         `json:"type" koanf:"type"`
	Args    map[string]any `json:"args,omitempty" koanf:"args"`
	Inlets  []string       `json:"inlets,omitempty" koanf:"inlets"`
	Outlets []string       `json:"outlets,omitempty" koanf:"outlets"`
}

// Connection links "<node>:<outlet>" to "<node>:<inlet>".
type Connection struct {
	From string `json:"from" koanf:"from"`
	To   string `json:"to" koanf:"to"`
}

// FormatOf returns the format implied by the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads and decodes the patch file at path.
func Load(path string) (*Patch, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch: %w", err)
	}
	logging.Debug("loading patch", "path", path, "format", format)
	return parse(data, path, format)
}

// Parse decodes a patch held in memory.
func Parse(data []byte, format string) (*Patch, error) {
	return parse(data, "<"+format+">", format)
}

func parse(data []byte, filename, format string) (*Patch, error) {
	var (
		p   *Patch
		err error
	)
	switch format {
	case FormatTOML, FormatJSON:
		p, err = parseKoanf(data, format)
	case FormatHCL:
		p, err = parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return p, nil
}

// Graph builds the patch graph. Node types are looked up in registry to fill
// in omitted portlet layouts.
func (p *Patch) Graph(registry *node.Registry) (*model.Graph, error) {
	g := model.NewGraph()
	for _, def := range p.Nodes {
		n, err := def.build(registry)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, c := range p.Connections {
		from, outlet, err := splitEndpoint(c.From)
		if err != nil {
			return nil, fmt.Errorf("connection from: %w", err)
		}
		to, inlet, err := splitEndpoint(c.To)
		if err != nil {
			return nil, fmt.Errorf("connection to: %w", err)
		}
		if err := g.Connect(from, outlet, to, inlet); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (n Node) build(registry *node.Registry) (*model.Node, error) {
	if len(n.Inlets) == 0 && len(n.Outlets) == 0 {
		built, err := registry.NewNode(n.ID, n.Type, n.Args)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		return built, nil
	}

	inlets, err := parsePortlets(n.Inlets)
	if err != nil {
		return nil, fmt.Errorf("node %q inlets: %w", n.ID, err)
	}
	outlets, err := parsePortlets(n.Outlets)
	if err != nil {
		return nil, fmt.Errorf("node %q outlets: %w", n.ID, err)
	}
	return &model.Node{ID: n.ID, Type: n.Type, Args: n.Args, Inlets: inlets, Outlets: outlets}, nil
}

func parsePortlets(descs []string) ([]model.Portlet, error) {
	portlets := make([]model.Portlet, 0, len(descs))
	for _, s := range descs {
		id, kind, ok := strings.Cut(s, ":")
		if !ok || id == "" {
			return nil, fmt.Errorf("portlet %q: expected <id>:<kind>", s)
		}
		switch model.PortletKind(kind) {
		case model.Signal, model.Message:
		default:
			return nil, fmt.Errorf("portlet %q: unknown kind %q", s, kind)
		}
		portlets = append(portlets, model.Portlet{ID: id, Kind: model.PortletKind(kind)})
	}
	return portlets, nil
}

// splitEndpoint splits "<node>:<portlet>" at the last colon, so node ids
// may contain colons.
func splitEndpoint(s string) (string, string, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("endpoint %q: expected <node>:<portlet>", s)
	}
	return s[:i], s[i+1:], nil
}
