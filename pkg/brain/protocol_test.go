package brain

import (
	"encoding/json"
	"testing"
)

func TestValidateCommandEnvelope(t *testing.T) {
	cmd, err := NewCommand(TypeButtonPress, ButtonPressBody{DeviceID: "Kitchen", Button: "PLAY"})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected error for missing id")
	}

	cmd.ID = "id"
	cmd.TS = 1
	cmd.From = "tester"
	if err := ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCommandEnvelopeMissingFields(t *testing.T) {
	cmd := CommandEnvelope{}
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNotificationWireNames(t *testing.T) {
	payload, err := json.Marshal(Notification{DeviceID: "Kitchen", Component: "VOLUME", Value: 12, TS: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["uniqueDeviceId"] != "Kitchen" || raw["component"] != "VOLUME" {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestTopics(t *testing.T) {
	if got := TopicCommands(BaseTopic, "bridge"); got != "raumbridge/v1/node/bridge/cmd" {
		t.Fatalf("commands topic %q", got)
	}
	if got := TopicEvents(BaseTopic, "bridge"); got != "raumbridge/v1/node/bridge/evt" {
		t.Fatalf("events topic %q", got)
	}
	if got := TopicReply(BaseTopic, "ctl"); got != "raumbridge/v1/reply/ctl" {
		t.Fatalf("reply topic %q", got)
	}
}

func TestOfflinePresence(t *testing.T) {
	payload := OfflinePresence("node-a")
	if len(payload) == 0 {
		t.Fatalf("expected non-empty payload")
	}
	var presence Presence
	if err := json.Unmarshal(payload, &presence); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if presence.NodeID != "node-a" || presence.Online {
		t.Fatalf("unexpected presence %+v", presence)
	}
}
