package web

import (
	"fmt"
	"strconv"

	"github.com/ritzau/patchc/pkg/config"
)

// queryOverrides reads the settings a compile request may replace. They are
// applied the same way as command line flags.
func queryOverrides(target, bitDepth, debug string) (*config.Config, error) {
	cfg := &config.Config{Target: target}
	if bitDepth != "" {
		n, err := strconv.Atoi(bitDepth)
		if err != nil {
			return nil, fmt.Errorf("bitDepth: %w", err)
		}
		cfg.BitDepth = n
	}
	if debug != "" {
		b, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, fmt.Errorf("debug: %w", err)
		}
		cfg.Debug = b
	}
	return cfg, nil
}
