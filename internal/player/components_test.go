package player

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseButton(t *testing.T) {
	cases := map[string]Button{
		"PLAY":           ButtonPlay,
		"play toggle":    ButtonPlayToggle,
		"VOLUME_UP":      ButtonVolumeUp,
		" NEXT  TRACK ":  ButtonNextTrack,
		"power off":      ButtonPowerOff,
		"Shuffle Toggle": ButtonShuffleToggle,
	}
	for in, want := range cases {
		got, err := ParseButton(in)
		if err != nil || got != want {
			t.Fatalf("parse %q => %q, %v", in, got, err)
		}
	}
	if _, err := ParseButton("EJECT"); !errors.Is(err, ErrUnknownButton) {
		t.Fatalf("expected unknown button, got %v", err)
	}
}

func TestParseCommand(t *testing.T) {
	for _, c := range commands {
		got, err := ParseCommand(string(c))
		if err != nil || got != c {
			t.Fatalf("parse %q => %q, %v", c, got, err)
		}
	}
	if _, err := ParseCommand("STOP"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected unknown command, got %v", err)
	}
}

func TestButtonsAreCommands(t *testing.T) {
	for _, b := range Buttons {
		if _, err := ParseCommand(string(b.Command())); err != nil {
			t.Fatalf("button %q has no command: %v", b, err)
		}
	}
}

func TestParseComponent(t *testing.T) {
	got, err := ParseComponent("cover_art")
	if err != nil || got != ComponentCoverArt {
		t.Fatalf("parse cover_art => %q, %v", got, err)
	}
	if _, err := ParseComponent("BASS"); !errors.Is(err, ErrUnknownComponent) {
		t.Fatalf("expected unknown component, got %v", err)
	}
}

func TestComponentKind(t *testing.T) {
	want := map[Component]Kind{
		ComponentPlay:        KindSwitch,
		ComponentMute:        KindSwitch,
		ComponentShuffle:     KindSwitch,
		ComponentRepeat:      KindSwitch,
		ComponentVolume:      KindSlider,
		ComponentCoverArt:    KindSensor,
		ComponentTitle:       KindSensor,
		ComponentDescription: KindSensor,
	}
	for _, c := range Components {
		if got := c.Kind(); got != want[c] {
			t.Fatalf("%s: kind %v, want %v", c, got, want[c])
		}
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		comp Component
		raw  any
		want any
	}{
		{ComponentPlay, true, true},
		{ComponentMute, "false", false},
		{ComponentShuffle, float64(1), true},
		{ComponentVolume, float64(33.6), 34},
		{ComponentVolume, "12", 12},
		{ComponentVolume, json.Number("50"), 50},
		{ComponentTitle, "Song", "Song"},
	}
	for _, tc := range cases {
		got, err := tc.comp.Coerce(tc.raw)
		if err != nil {
			t.Fatalf("%s coerce %v: %v", tc.comp, tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%s coerce %v => %v, want %v", tc.comp, tc.raw, got, tc.want)
		}
	}
}

func TestCoerceRejects(t *testing.T) {
	cases := []struct {
		comp Component
		raw  any
	}{
		{ComponentPlay, "yes please"},
		{ComponentPlay, float64(2)},
		{ComponentVolume, -1},
		{ComponentVolume, "loud"},
		{ComponentVolume, nil},
		{ComponentDescription, 3},
	}
	for _, tc := range cases {
		if _, err := tc.comp.Coerce(tc.raw); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%s coerce %v: expected invalid value, got %v", tc.comp, tc.raw, err)
		}
	}
}
