package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mikey-austin/raumbridge/pkg/brain"
)

type stubClock struct{}

func (stubClock) NowUnix() int64 { return 100 }

type stubIDGen struct{}

func (stubIDGen) NewID() string { return "id-1" }

type stubBroker struct {
	presence   []brain.Presence
	replies    map[string]brain.ReplyEnvelope
	lastNode   string
	lastCmd    brain.CommandEnvelope
	replyTopic string
	notes      []brain.Notification
}

func (s *stubBroker) ReplyTopic() string { return s.replyTopic }

func (s *stubBroker) PublishCommand(ctx context.Context, nodeID string, cmd brain.CommandEnvelope) (brain.ReplyEnvelope, error) {
	s.lastNode = nodeID
	s.lastCmd = cmd
	if reply, ok := s.replies[cmd.Type]; ok {
		reply.ID = cmd.ID
		return reply, nil
	}
	return brain.ReplyEnvelope{ID: cmd.ID, Type: "ack", OK: true, TS: 101}, nil
}

func (s *stubBroker) ListPresence(ctx context.Context) ([]brain.Presence, error) {
	return s.presence, nil
}

func (s *stubBroker) WatchNotifications(ctx context.Context, nodeID string) (<-chan brain.Notification, <-chan error) {
	out := make(chan brain.Notification, len(s.notes))
	for _, n := range s.notes {
		out <- n
	}
	close(out)
	errs := make(chan error)
	close(errs)
	return out, errs
}

const bridgeNode = "raumbridge:bridge:raumfeld:home:main"

func newService(broker *stubBroker, cfg Config) Service {
	if broker.presence == nil {
		broker.presence = []brain.Presence{
			{NodeID: bridgeNode, Kind: "bridge", Name: "Raumfeld"},
			{NodeID: "other:renderer:x", Kind: "renderer", Name: "Other"},
		}
	}
	broker.replyTopic = "raumbridge/v1/reply/ctl"
	cfg.Identity = "tester"
	return Service{
		Broker:   broker,
		Resolver: Resolver{Presence: broker, Config: cfg},
		Clock:    stubClock{},
		IDGen:    stubIDGen{},
		Config:   cfg,
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestPressDecoratesCommand(t *testing.T) {
	broker := &stubBroker{}
	svc := newService(broker, Config{})

	if err := svc.Press(context.Background(), Target{Device: "Kitchen"}, "VOLUME UP"); err != nil {
		t.Fatalf("press: %v", err)
	}
	cmd := broker.lastCmd
	if broker.lastNode != bridgeNode {
		t.Fatalf("expected bridge node, got %q", broker.lastNode)
	}
	if cmd.Type != brain.TypeButtonPress || cmd.ID != "id-1" || cmd.TS != 100 || cmd.From != "tester" || cmd.ReplyTo != "raumbridge/v1/reply/ctl" {
		t.Fatalf("unexpected envelope %+v", cmd)
	}
	if err := brain.ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	var body brain.ButtonPressBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.DeviceID != "Kitchen" || body.Button != "VOLUME UP" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestPressMapsReplyErrors(t *testing.T) {
	broker := &stubBroker{replies: map[string]brain.ReplyEnvelope{
		brain.TypeButtonPress: {Type: "error", Err: &brain.ReplyError{Code: brain.CodeNotFound, Message: "no room"}},
	}}
	svc := newService(broker, Config{})
	err := svc.Press(context.Background(), Target{Device: "Attic"}, "PLAY")
	if ExitCode(err) != ExitNotFound {
		t.Fatalf("expected not found exit, got %v", err)
	}
}

func TestDeviceAliasesAndDefaults(t *testing.T) {
	broker := &stubBroker{}
	svc := newService(broker, Config{
		Aliases:       map[string]string{"k": "Kitchen"},
		DefaultDevice: "Living Room",
	})

	if err := svc.Press(context.Background(), Target{Device: "k"}, "PLAY"); err != nil {
		t.Fatalf("press: %v", err)
	}
	var body brain.ButtonPressBody
	_ = json.Unmarshal(broker.lastCmd.Body, &body)
	if body.DeviceID != "Kitchen" {
		t.Fatalf("expected alias expansion, got %q", body.DeviceID)
	}

	if err := svc.Press(context.Background(), Target{}, "PLAY"); err != nil {
		t.Fatalf("press: %v", err)
	}
	_ = json.Unmarshal(broker.lastCmd.Body, &body)
	if body.DeviceID != "Living Room" {
		t.Fatalf("expected default device, got %q", body.DeviceID)
	}

	svc = newService(&stubBroker{}, Config{})
	if err := svc.Press(context.Background(), Target{}, "PLAY"); ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error without device, got %v", err)
	}
}

func TestResolveNode(t *testing.T) {
	broker := &stubBroker{presence: []brain.Presence{
		{NodeID: "raumbridge:bridge:raumfeld:a:main", Kind: "bridge", Name: "Upstairs"},
		{NodeID: "raumbridge:bridge:raumfeld:b:main", Kind: "bridge", Name: "Downstairs"},
	}}
	r := Resolver{Presence: broker}

	if _, err := r.ResolveNode(context.Background(), ""); ExitCode(err) != ExitUsage {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	node, err := r.ResolveNode(context.Background(), "downstairs")
	if err != nil || node != "raumbridge:bridge:raumfeld:b:main" {
		t.Fatalf("expected name match, got %q %v", node, err)
	}
	if _, err := r.ResolveNode(context.Background(), "Cellar"); ExitCode(err) != ExitNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	node, err = r.ResolveNode(context.Background(), "raumbridge:bridge:raumfeld:c:main")
	if err != nil || node != "raumbridge:bridge:raumfeld:c:main" {
		t.Fatalf("expected explicit id, got %q %v", node, err)
	}

	empty := Resolver{Presence: &stubBroker{presence: []brain.Presence{}}}
	if _, err := empty.ResolveNode(context.Background(), ""); ExitCode(err) != ExitNotFound {
		t.Fatalf("expected no bridge error, got %v", err)
	}
}

func TestSetParsesValues(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{raw: "true", want: true},
		{raw: "off", want: false},
		{raw: "42", want: float64(42)},
		{raw: "hello", want: "hello"},
	}
	for _, tc := range cases {
		broker := &stubBroker{}
		svc := newService(broker, Config{})
		if err := svc.Set(context.Background(), Target{Device: "Kitchen"}, "VOLUME", tc.raw); err != nil {
			t.Fatalf("set: %v", err)
		}
		var body brain.ComponentSetBody
		if err := json.Unmarshal(broker.lastCmd.Body, &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Value != tc.want {
			t.Fatalf("value %q: expected %v (%T), got %v (%T)", tc.raw, tc.want, tc.want, body.Value, body.Value)
		}
	}
}

func TestGetAndVolume(t *testing.T) {
	broker := &stubBroker{replies: map[string]brain.ReplyEnvelope{
		brain.TypeComponentGet: {Type: "ack", OK: true, Body: mustJSON(t, brain.ComponentReply{DeviceID: "Kitchen", Component: "TITLE", Value: "Band B"})},
		brain.TypeVolumeGet:    {Type: "ack", OK: true, Body: mustJSON(t, brain.VolumeReply{DeviceID: "Kitchen", Volume: 24})},
	}}
	svc := newService(broker, Config{})

	got, err := svc.Get(context.Background(), Target{Device: "Kitchen"}, "TITLE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Component.Value != "Band B" {
		t.Fatalf("unexpected component %+v", got.Component)
	}

	vol, err := svc.Volume(context.Background(), Target{Device: "Kitchen"})
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	if vol.Volume.Volume != 24 {
		t.Fatalf("unexpected volume %+v", vol.Volume)
	}
}

func TestBrowse(t *testing.T) {
	next := 64
	broker := &stubBroker{replies: map[string]brain.ReplyEnvelope{
		brain.TypeBrowseList: {Type: "ack", OK: true, Body: mustJSON(t, brain.BrowsePage{Title: "Player Queue", Limit: 64, Next: &next, Entries: []brain.ListEntry{{Type: "item", Title: "1"}}})},
	}}
	svc := newService(broker, Config{})

	result, err := svc.Browse(context.Background(), Target{Device: "Kitchen"}, BrowseOptions{Queue: true, Limit: 64})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if result.Page.Title != "Player Queue" || result.Page.Next == nil || *result.Page.Next != 64 {
		t.Fatalf("unexpected page %+v", result.Page)
	}
	var body brain.BrowseListBody
	_ = json.Unmarshal(broker.lastCmd.Body, &body)
	if body.Directory != "PLAYER_QUEUE_DIRECTORY" || body.Limit != 64 {
		t.Fatalf("unexpected browse body %+v", body)
	}

	if _, err := svc.Browse(context.Background(), Target{Device: "Kitchen"}, BrowseOptions{Offset: -1}); ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	broker := &stubBroker{replies: map[string]brain.ReplyEnvelope{
		brain.TypeDevicesDiscover: {Type: "ack", OK: true, Body: mustJSON(t, brain.DevicesReply{Devices: []brain.Device{{ID: "Kitchen", Name: "Kitchen", Reachable: true}}})},
	}}
	svc := newService(broker, Config{})
	result, err := svc.Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(result.Devices) != 1 || result.Devices[0].ID != "Kitchen" {
		t.Fatalf("unexpected devices %+v", result.Devices)
	}
}

func TestPlayURIRequiresURI(t *testing.T) {
	svc := newService(&stubBroker{}, Config{})
	if err := svc.PlayURI(context.Background(), Target{Device: "Kitchen"}, " "); ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestWatchFiltersDevice(t *testing.T) {
	broker := &stubBroker{notes: []brain.Notification{
		{DeviceID: "Kitchen", Component: "VOLUME", Value: 20},
		{DeviceID: "Bath", Component: "VOLUME", Value: 30},
		{DeviceID: "Kitchen", Component: "TITLE", Value: "Band B"},
	}}
	svc := newService(broker, Config{})

	notes, _, err := svc.Watch(context.Background(), "", "Kitchen")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	var got []string
	for n := range notes {
		got = append(got, n.Notification.Component)
	}
	if len(got) != 2 || got[0] != "VOLUME" || got[1] != "TITLE" {
		t.Fatalf("unexpected notifications %v", got)
	}
}

func TestListNodesFiltersBridges(t *testing.T) {
	svc := newService(&stubBroker{}, Config{})
	result, err := svc.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(result.Nodes) != 1 || result.Nodes[0].NodeID != bridgeNode {
		t.Fatalf("unexpected nodes %+v", result.Nodes)
	}
}
