package player

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Component is a brain-side switch, slider or sensor.
type Component string

const (
	ComponentPlay        Component = "PLAY"
	ComponentMute        Component = "MUTE"
	ComponentShuffle     Component = "SHUFFLE"
	ComponentRepeat      Component = "REPEAT"
	ComponentVolume      Component = "VOLUME"
	ComponentCoverArt    Component = "COVER_ART"
	ComponentTitle       Component = "TITLE"
	ComponentDescription Component = "DESCRIPTION"
)

// Components lists every component in declaration order.
var Components = []Component{
	ComponentPlay,
	ComponentMute,
	ComponentShuffle,
	ComponentRepeat,
	ComponentVolume,
	ComponentCoverArt,
	ComponentTitle,
	ComponentDescription,
}

// Kind is the value type carried by a component.
type Kind int

const (
	KindSwitch Kind = iota
	KindSlider
	KindSensor
)

// VolumeRange is the upper bound of the volume slider.
const VolumeRange = 100

// ParseComponent maps a wire name to a Component.
func ParseComponent(name string) (Component, error) {
	c := Component(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Components {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownComponent, name)
}

// Kind returns the value type of c. Anything that is not a switch or the
// volume slider is a read-only sensor.
func (c Component) Kind() Kind {
	switch c {
	case ComponentPlay, ComponentMute, ComponentShuffle, ComponentRepeat:
		return KindSwitch
	case ComponentVolume:
		return KindSlider
	default:
		return KindSensor
	}
}

// Zero returns the value reported before any state is known.
func (c Component) Zero() any {
	switch c.Kind() {
	case KindSwitch:
		return false
	case KindSlider:
		return 0
	default:
		return ""
	}
}

// Coerce converts a raw value into the component's value type.
func (c Component) Coerce(raw any) (any, error) {
	switch c.Kind() {
	case KindSwitch:
		b, ok := asBool(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a boolean, got %v", ErrInvalidValue, c, raw)
		}
		return b, nil
	case KindSlider:
		v, ok := asNumber(raw)
		if !ok || v < 0 || v > VolumeRange {
			return nil, fmt.Errorf("%w: %s expects 0..%d, got %v", ErrInvalidValue, c, VolumeRange, raw)
		}
		return v, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %v", ErrInvalidValue, c, raw)
		}
		return s, nil
	}
}

// command maps a settable component to the renderer command it drives.
func (c Component) command() (Command, bool) {
	switch c {
	case ComponentPlay:
		return CmdPlaying, true
	case ComponentMute:
		return CmdMute, true
	case ComponentShuffle:
		return CmdShuffle, true
	case ComponentRepeat:
		return CmdRepeat, true
	case ComponentVolume:
		return CmdVolume, true
	default:
		return "", false
	}
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on":
			return true, true
		case "false", "0", "off":
			return false, true
		}
	case float64:
		return v != 0, v == 0 || v == 1
	case int:
		return v != 0, v == 0 || v == 1
	}
	return false, false
}

func asNumber(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(math.Round(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return asNumber(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return asNumber(f)
	}
	return 0, false
}
