package player

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestVolumeUpBounds(t *testing.T) {
	for current := 0; current <= 100; current++ {
		got := VolumeUp(current, 4, 65)
		if current+4 > 65 {
			if got != current {
				t.Fatalf("volume up from %d => %d, want unchanged", current, got)
			}
			continue
		}
		if got != current+4 {
			t.Fatalf("volume up from %d => %d, want %d", current, got, current+4)
		}
		if got > 65 {
			t.Fatalf("volume up from %d exceeded max: %d", current, got)
		}
	}
}

func TestVolumeDownBounds(t *testing.T) {
	for current := 0; current <= 100; current++ {
		got := VolumeDown(current, 4)
		if current < 4 {
			if got != current {
				t.Fatalf("volume down from %d => %d, want unchanged", current, got)
			}
			continue
		}
		if got != current-4 {
			t.Fatalf("volume down from %d => %d, want %d", current, got, current-4)
		}
	}
}

func TestButtonVolumeUp(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	if err := ctrl.OnButtonPressed(context.Background(), ButtonVolumeUp, "Kitchen"); err != nil {
		t.Fatalf("volume up: %v", err)
	}
	if vr.setVol != 24 {
		t.Fatalf("expected renderer volume 24, got %d", vr.setVol)
	}
	notes := outbox.Notes()
	if len(notes) != 1 || notes[0].Component != ComponentVolume || notes[0].Value != 24 {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestButtonVolumeUpAtCeiling(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	vr.volume = "63"
	if err := ctrl.OnButtonPressed(context.Background(), ButtonVolumeUp, "Kitchen"); err != nil {
		t.Fatalf("volume up: %v", err)
	}
	if vr.setVol != 63 {
		t.Fatalf("expected unchanged volume 63, got %d", vr.setVol)
	}
	if got := ctrl.GetComponent("Kitchen", ComponentVolume); got != 63 {
		t.Fatalf("expected recorded volume 63, got %v", got)
	}
	if len(outbox.Notes()) != 1 {
		t.Fatalf("expected notification for unchanged volume")
	}
}

func TestButtonVolumeDownAtFloor(t *testing.T) {
	ctrl, _, vr, _ := newTestController(t)
	vr.volume = "3"
	if err := ctrl.OnButtonPressed(context.Background(), ButtonVolumeDown, "Kitchen"); err != nil {
		t.Fatalf("volume down: %v", err)
	}
	if vr.setVol != 3 {
		t.Fatalf("expected unchanged volume 3, got %d", vr.setVol)
	}
}

func TestButtonVolumeReadFailure(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	vr.volErr = errors.New("timeout")
	if err := ctrl.OnButtonPressed(context.Background(), ButtonVolumeUp, "Kitchen"); err == nil {
		t.Fatalf("expected volume read error")
	}
	if len(outbox.Notes()) != 0 || len(vr.Calls()) != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestButtonVolumeUnknownDevice(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)
	err := ctrl.OnButtonPressed(context.Background(), ButtonVolumeDown, "Attic")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected device not found, got %v", err)
	}
}

func TestPlayToggleInvolution(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := ctrl.OnButtonPressed(ctx, ButtonPlayToggle, "Kitchen"); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	if got := ctrl.GetComponent("Kitchen", ComponentPlay); got != false {
		t.Fatalf("expected play state restored, got %v", got)
	}
	want := []string{"play", "pause"}
	if !reflect.DeepEqual(vr.Calls(), want) {
		t.Fatalf("calls %v, want %v", vr.Calls(), want)
	}
	notes := outbox.Notes()
	if len(notes) != 2 || notes[0].Value != true || notes[1].Value != false {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestMuteToggle(t *testing.T) {
	ctrl, _, vr, _ := newTestController(t)
	if err := ctrl.OnButtonPressed(context.Background(), ButtonMuteToggle, "Kitchen"); err != nil {
		t.Fatalf("mute toggle: %v", err)
	}
	if !vr.mute {
		t.Fatalf("expected renderer muted")
	}
	if got := ctrl.GetComponent("Kitchen", ComponentMute); got != true {
		t.Fatalf("expected mute recorded, got %v", got)
	}
}

func TestPauseButton(t *testing.T) {
	ctrl, _, vr, _ := newTestController(t)
	if err := ctrl.OnButtonPressed(context.Background(), ButtonPause, "Kitchen"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !reflect.DeepEqual(vr.Calls(), []string{"pause"}) {
		t.Fatalf("unexpected calls %v", vr.Calls())
	}
	if got := ctrl.GetComponent("Kitchen", ComponentPlay); got != false {
		t.Fatalf("expected play false, got %v", got)
	}
}

func TestSkipButtonsSetTitle(t *testing.T) {
	cases := map[Button]string{
		ButtonNextTrack:     "next",
		ButtonPreviousTrack: "prev",
	}
	for button, call := range cases {
		ctrl, _, vr, outbox := newTestController(t)
		if err := ctrl.OnButtonPressed(context.Background(), button, "Kitchen"); err != nil {
			t.Fatalf("%s: %v", button, err)
		}
		if !reflect.DeepEqual(vr.Calls(), []string{call}) {
			t.Fatalf("%s calls %v", button, vr.Calls())
		}
		notes := outbox.Notes()
		if len(notes) != 1 || notes[0].Component != ComponentTitle || notes[0].Value != string(button) {
			t.Fatalf("%s notifications %+v", button, notes)
		}
	}
}

func TestPowerButtons(t *testing.T) {
	ctrl, network, vr, outbox := newTestController(t)
	mr := &fakeMediaRenderer{name: "Kitchen", udn: "uuid:mr-kitchen", room: "uuid:room-kitchen"}
	network.media["Kitchen"] = mr
	network.roomUDNs["uuid:mr-kitchen"] = "uuid:room-kitchen"
	vr.standbyErr = errors.New("already awake")

	ctx := context.Background()
	if err := ctrl.OnButtonPressed(ctx, ButtonPowerOn, "Kitchen"); err != nil {
		t.Fatalf("power on: %v", err)
	}
	if vr.standbyRoom != "uuid:room-kitchen" {
		t.Fatalf("leave standby room %q", vr.standbyRoom)
	}
	if err := ctrl.OnButtonPressed(ctx, ButtonPowerOff, "Kitchen"); err != nil {
		t.Fatalf("power off: %v", err)
	}
	if mr.standbyRoom != "uuid:room-kitchen" {
		t.Fatalf("enter standby room %q", mr.standbyRoom)
	}
	if len(outbox.Notes()) != 0 {
		t.Fatalf("power buttons must not notify")
	}
}

func TestUnsupportedButtonsAreNoops(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	for _, b := range []Button{ButtonShuffleToggle, ButtonRepeatToggle, ButtonClearQueue} {
		if err := ctrl.OnButtonPressed(context.Background(), b, "Kitchen"); err != nil {
			t.Fatalf("%s: %v", b, err)
		}
	}
	if len(vr.Calls()) != 0 || len(outbox.Notes()) != 0 {
		t.Fatalf("expected no effect, calls %v", vr.Calls())
	}
}

func TestSetComponentForwardsToRenderer(t *testing.T) {
	ctrl, _, vr, outbox := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentVolume, 30.0); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if vr.setVol != 30 {
		t.Fatalf("expected renderer volume 30, got %d", vr.setVol)
	}
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentPlay, false); err != nil {
		t.Fatalf("set play: %v", err)
	}
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentRepeat, true); err != nil {
		t.Fatalf("set repeat: %v", err)
	}
	if vr.playMode != PlayModeRepeatAll {
		t.Fatalf("expected repeat all, got %q", vr.playMode)
	}
	want := []string{"setVolume", "pause", "setPlayMode"}
	if !reflect.DeepEqual(vr.Calls(), want) {
		t.Fatalf("calls %v, want %v", vr.Calls(), want)
	}
	if len(outbox.Notes()) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(outbox.Notes()))
	}
}

func TestSetComponentValidation(t *testing.T) {
	ctrl, _, vr, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentTitle, "x"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected read only, got %v", err)
	}
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentPlay, "maybe"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}
	if err := ctrl.SetComponent(ctx, "Kitchen", ComponentVolume, 101); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if len(vr.Calls()) != 0 {
		t.Fatalf("rejected sets must not reach the renderer")
	}
}

func TestGetComponentDefaults(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)
	cases := map[Component]any{
		ComponentPlay:     false,
		ComponentVolume:   0,
		ComponentCoverArt: "",
	}
	for comp, want := range cases {
		if got := ctrl.GetComponent("Kitchen", comp); got != want {
			t.Fatalf("%s default %v, want %v", comp, got, want)
		}
	}
}

func TestPlayURI(t *testing.T) {
	ctrl, _, vr, _ := newTestController(t)
	if err := ctrl.PlayURI(context.Background(), "Kitchen", "http://radio/stream"); err != nil {
		t.Fatalf("play uri: %v", err)
	}
	if vr.uri != "http://radio/stream" {
		t.Fatalf("unexpected uri %q", vr.uri)
	}
	if err := ctrl.PlayURI(context.Background(), "Attic", "x"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected device not found, got %v", err)
	}
}
