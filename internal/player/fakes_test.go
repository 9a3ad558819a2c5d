package player

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mikey-austin/raumbridge/internal/ports"
)

type fakeRenderer struct {
	mu          sync.Mutex
	name        string
	udn         string
	calls       []string
	volume      string
	volErr      error
	standbyErr  error
	standbyRoom string
	playMode    string
	setVol      int
	mute        bool
	loaded      string
	uri         string
}

func (r *fakeRenderer) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *fakeRenderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRenderer) Name() string { return r.name }
func (r *fakeRenderer) UDN() string  { return r.udn }
func (r *fakeRenderer) Play(context.Context) error {
	r.record("play")
	return nil
}
func (r *fakeRenderer) Pause(context.Context) error {
	r.record("pause")
	return nil
}
func (r *fakeRenderer) Next(context.Context) error {
	r.record("next")
	return nil
}
func (r *fakeRenderer) Prev(context.Context) error {
	r.record("prev")
	return nil
}
func (r *fakeRenderer) SetVolume(_ context.Context, v int) error {
	r.record("setVolume")
	r.setVol = v
	return nil
}
func (r *fakeRenderer) SetMute(_ context.Context, m bool) error {
	r.record("setMute")
	r.mute = m
	return nil
}
func (r *fakeRenderer) SetPlayMode(_ context.Context, mode string) error {
	r.record("setPlayMode")
	r.playMode = mode
	return nil
}
func (r *fakeRenderer) LeaveStandby(_ context.Context, roomUDN string) error {
	r.record("leaveStandby")
	r.standbyRoom = roomUDN
	return r.standbyErr
}
func (r *fakeRenderer) GetVolume(context.Context) (string, error) {
	return r.volume, r.volErr
}
func (r *fakeRenderer) LoadSingle(_ context.Context, id string) error {
	r.record("loadSingle")
	r.loaded = id
	return nil
}
func (r *fakeRenderer) LoadURI(_ context.Context, uri string) error {
	r.record("loadUri")
	r.uri = uri
	return nil
}

type fakeMediaRenderer struct {
	name, udn, room string
	standbyRoom     string
}

func (m *fakeMediaRenderer) Name() string    { return m.name }
func (m *fakeMediaRenderer) UDN() string     { return m.udn }
func (m *fakeMediaRenderer) RoomUDN() string { return m.room }
func (m *fakeMediaRenderer) EnterAutomaticStandby(_ context.Context, roomUDN string) error {
	m.standbyRoom = roomUDN
	return nil
}

type fakeServer struct {
	results map[string]string
	err     error
}

func (s *fakeServer) Browse(_ context.Context, id string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	raw, ok := s.results[id]
	if !ok {
		return "", errors.New("no such object")
	}
	return raw, nil
}

type fakeNetwork struct {
	virtual  map[string]*fakeRenderer
	media    map[string]*fakeMediaRenderer
	roomUDNs map[string]string
	topology ports.Topology
	server   *fakeServer
	items    chan ports.MediaItemEvent
	values   chan ports.KeyValueEvent
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		virtual:  map[string]*fakeRenderer{},
		media:    map[string]*fakeMediaRenderer{},
		roomUDNs: map[string]string{},
		items:    make(chan ports.MediaItemEvent, 8),
		values:   make(chan ports.KeyValueEvent, 8),
	}
}

func (n *fakeNetwork) VirtualRenderer(name string) (ports.VirtualRenderer, bool) {
	r, ok := n.virtual[name]
	if !ok {
		return nil, false
	}
	return r, true
}

func (n *fakeNetwork) MediaRenderer(name string) (ports.MediaRenderer, bool) {
	m, ok := n.media[name]
	if !ok {
		return nil, false
	}
	return m, true
}

func (n *fakeNetwork) RoomUDNForRenderer(udn string) (string, bool) {
	room, ok := n.roomUDNs[udn]
	return room, ok
}

func (n *fakeNetwork) Topology(context.Context) (ports.Topology, error) {
	return n.topology, nil
}

func (n *fakeNetwork) MediaServer() (ports.MediaServer, bool) {
	if n.server == nil {
		return nil, false
	}
	return n.server, true
}

func (n *fakeNetwork) Watch(context.Context) (<-chan ports.MediaItemEvent, <-chan ports.KeyValueEvent) {
	return n.items, n.values
}

type recordingOutbox struct {
	mu    sync.Mutex
	notes []Notification
}

func (o *recordingOutbox) Install(NotifyFunc) {}

func (o *recordingOutbox) Enqueue(n Notification) {
	o.mu.Lock()
	o.notes = append(o.notes, n)
	o.mu.Unlock()
}

func (o *recordingOutbox) Notes() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Notification(nil), o.notes...)
}

func newTestController(t testing.TB) (*Controller, *fakeNetwork, *fakeRenderer, *recordingOutbox) {
	t.Helper()
	network := newFakeNetwork()
	vr := &fakeRenderer{name: "Kitchen", udn: "uuid:vr-kitchen", volume: "20"}
	network.virtual["Kitchen"] = vr
	outbox := &recordingOutbox{}
	synchronizer := NewSynchronizer(nil, network, outbox)
	ctrl := NewController(nil, synchronizer, DefaultConfig())
	return ctrl, network, vr, outbox
}
