package settings

import (
	"errors"
	"testing"
)

func TestWithDefaults(t *testing.T) {
	s := Settings{Target: TargetScripting}.WithDefaults()

	if s.Audio.BitDepth != 64 {
		t.Errorf("Expected default bit depth 64, got %d", s.Audio.BitDepth)
	}
	if s.Audio.ChannelCount.In != 2 || s.Audio.ChannelCount.Out != 2 {
		t.Errorf("Expected 2/2 channels, got %+v", s.Audio.ChannelCount)
	}
	if s.Arrays == nil || s.IO.MessageReceivers == nil || s.IO.MessageSenders == nil {
		t.Error("Expected maps to be initialized")
	}
	if s.Debug {
		t.Error("Expected debug to default to false")
	}

	kept := Settings{Target: TargetSystems, Audio: Audio{BitDepth: 32, ChannelCount: ChannelCount{In: 0, Out: 1}}}.WithDefaults()
	if kept.Audio.BitDepth != 32 || kept.Audio.ChannelCount.Out != 1 {
		t.Errorf("WithDefaults must keep explicit values, got %+v", kept.Audio)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		settings  Settings
		wantField string
	}{
		{"valid scripting", Settings{Target: TargetScripting}, ""},
		{"valid systems", Settings{Target: TargetSystems, Audio: Audio{BitDepth: 32}}, ""},
		{"unknown target", Settings{Target: "python"}, "target"},
		{"invalid bit depth", Settings{Target: TargetSystems, Audio: Audio{BitDepth: 16}}, "audio.bitDepth"},
		{"negative channels", Settings{Target: TargetSystems, Audio: Audio{ChannelCount: ChannelCount{In: -1, Out: 2}}}, "audio.channelCount"},
		{"invalid array name", Settings{Target: TargetSystems, Arrays: map[string][]float64{"my-array": {1}}}, "arrays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.WithDefaults().Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestExposes(t *testing.T) {
	s := Settings{IO: IO{
		MessageReceivers: map[string][]string{"f": {"0"}},
		MessageSenders:   map[string][]string{"g": {"0", "1"}},
	}}

	if !s.ExposesInlet("f", "0") || s.ExposesInlet("f", "1") {
		t.Error("ExposesInlet returned unexpected result")
	}
	if !s.ExposesOutlet("g", "1") || s.ExposesOutlet("f", "0") {
		t.Error("ExposesOutlet returned unexpected result")
	}
	if got := s.ExposedNodes(); len(got) != 2 || got[0] != "f" || got[1] != "g" {
		t.Errorf("Expected [f g], got %v", got)
	}
}
