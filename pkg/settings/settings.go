// Package settings defines the compilation settings shared by the compiler
// and every node implementation.
package settings

import (
	"fmt"
	"sort"

	"github.com/ritzau/patchc/pkg/namespace"
)

// Target names.
const (
	TargetScripting = "scripting"
	TargetSystems   = "systems"
)

// Defaults applied by WithDefaults.
const (
	DefaultBitDepth        = 64
	DefaultChannelCountIn  = 2
	DefaultChannelCountOut = 2
)

// ConfigurationError reports invalid settings. It is raised before any code
// is generated.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ChannelCount holds the number of input and output audio channels.
type ChannelCount struct {
	In  int `json:"in" koanf:"in"`
	Out int `json:"out" koanf:"out"`
}

// Audio holds the audio settings of the generated program.
type Audio struct {
	ChannelCount ChannelCount `json:"channelCount" koanf:"channelcount"`
	BitDepth     int          `json:"bitDepth" koanf:"bitdepth"`
}

// IO lists the portlets exposed to the host, per node id.
type IO struct {
	// MessageReceivers are inlets the host can send messages to.
	MessageReceivers map[string][]string `json:"messageReceivers" koanf:"messagereceivers"`
	// MessageSenders are outlets the host listens to.
	MessageSenders map[string][]string `json:"messageSenders" koanf:"messagesenders"`
}

// Settings configures one compilation.
type Settings struct {
	Target string               `json:"target" koanf:"target"`
	Audio  Audio                `json:"audio" koanf:"audio"`
	Arrays map[string][]float64 `json:"arrays" koanf:"arrays"`
	IO     IO                   `json:"io" koanf:"io"`
	Debug  bool                 `json:"debug" koanf:"debug"`
}

// WithDefaults returns a copy of s with missing values filled in.
func (s Settings) WithDefaults() Settings {
	out := s
	if out.Audio.BitDepth == 0 {
		out.Audio.BitDepth = DefaultBitDepth
	}
	if out.Audio.ChannelCount == (ChannelCount{}) {
		out.Audio.ChannelCount = ChannelCount{In: DefaultChannelCountIn, Out: DefaultChannelCountOut}
	}
	if out.Arrays == nil {
		out.Arrays = map[string][]float64{}
	}
	if out.IO.MessageReceivers == nil {
		out.IO.MessageReceivers = map[string][]string{}
	}
	if out.IO.MessageSenders == nil {
		out.IO.MessageSenders = map[string][]string{}
	}
	return out
}

// Validate checks the settings and returns a *ConfigurationError for the
// first problem found.
func (s Settings) Validate() error {
	switch s.Target {
	case TargetScripting, TargetSystems:
	default:
		return &ConfigurationError{Field: "target", Reason: fmt.Sprintf("unsupported target %q", s.Target)}
	}
	if s.Audio.BitDepth != 32 && s.Audio.BitDepth != 64 {
		return &ConfigurationError{Field: "audio.bitDepth", Reason: fmt.Sprintf("unsupported bit depth %d, expected 32 or 64", s.Audio.BitDepth)}
	}
	if s.Audio.ChannelCount.In < 0 || s.Audio.ChannelCount.Out < 0 {
		return &ConfigurationError{Field: "audio.channelCount", Reason: "channel counts must not be negative"}
	}
	for _, name := range s.ArrayNames() {
		if !namespace.ValidKey(name) {
			return &ConfigurationError{Field: "arrays", Reason: fmt.Sprintf("invalid array name %q", name)}
		}
	}
	return nil
}

// ArrayNames returns the array names in sorted order.
func (s Settings) ArrayNames() []string {
	names := make([]string, 0, len(s.Arrays))
	for name := range s.Arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExposesInlet reports whether the host can send messages to the inlet.
func (s Settings) ExposesInlet(nodeID, inletID string) bool {
	return contains(s.IO.MessageReceivers[nodeID], inletID)
}

// ExposesOutlet reports whether the host listens to the outlet.
func (s Settings) ExposesOutlet(nodeID, outletID string) bool {
	return contains(s.IO.MessageSenders[nodeID], outletID)
}

// ExposedNodes returns the ids of all nodes mentioned in IO, sorted.
func (s Settings) ExposedNodes() []string {
	seen := make(map[string]bool)
	for id := range s.IO.MessageReceivers {
		seen[id] = true
	}
	for id := range s.IO.MessageSenders {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
