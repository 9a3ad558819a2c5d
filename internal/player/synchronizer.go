package player

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/mikey-austin/raumbridge/internal/ports"
	"go.uber.org/zap"
)

// PlayModeRepeatAll is the AVTransport play mode set by REPEAT.
const PlayModeRepeatAll = "REPEAT_ALL"

// Renderer state variables reported through key/value events.
const (
	keyName                   = "name"
	keyVolume                 = "Volume"
	keyMute                   = "Mute"
	keyTransportState         = "TransportState"
	keyCurrentTrackMetaData   = "CurrentTrackMetaData"
	keyCurrentPlayMode        = "CurrentPlayMode"
	keyAVTransportURI         = "AVTransportURI"
	keyAVTransportURIMetaData = "AVTransportURIMetaData"
	keyRoomVolumes            = "RoomVolumes"
	keyRoomMutes              = "RoomMutes"
	keyRoomStates             = "RoomStates"
)

// Device is a discovered room as announced to the brain.
type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
}

// StateSink receives component updates derived from renderer events.
type StateSink interface {
	UpdateComponent(deviceID string, c Component, value any)
}

// Synchronizer mirrors renderer state into the component store and applies
// commands to the renderer network.
type Synchronizer struct {
	log     *zap.Logger
	network ports.RendererNetwork
	outbox  Outbox
	store   *Store

	mu        sync.Mutex
	sink      StateSink
	rooms     []ports.Room
	renderers []ports.Renderer
}

// NewSynchronizer creates a synchronizer over network. A nil outbox gets a
// fresh Notifier which the caller must Run.
func NewSynchronizer(log *zap.Logger, network ports.RendererNetwork, outbox Outbox) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	if outbox == nil {
		outbox = NewNotifier(log)
	}
	return &Synchronizer{
		log:     log,
		network: network,
		outbox:  outbox,
		store:   NewStore(),
	}
}

// Outbox returns the notification outbox.
func (s *Synchronizer) Outbox() Outbox {
	return s.outbox
}

// SetOutwardNotifier installs the brain delivery function.
func (s *Synchronizer) SetOutwardNotifier(fn NotifyFunc) {
	s.outbox.Install(fn)
}

// Attach routes renderer events to sink. Events are ignored until a sink is
// attached.
func (s *Synchronizer) Attach(sink StateSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

func (s *Synchronizer) attached() StateSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

// Publish records a component value and notifies the brain.
func (s *Synchronizer) Publish(deviceID string, c Component, value any) {
	s.store.Set(deviceID, c, value)
	s.outbox.Enqueue(Notification{DeviceID: deviceID, Component: c, Value: value})
}

// GetState returns the last recorded value of a component.
func (s *Synchronizer) GetState(deviceID string, c Component) (any, bool) {
	return s.store.Get(deviceID, c)
}

// UpdateState applies cmd to the room renderer of deviceID. Failures are
// logged and never returned.
func (s *Synchronizer) UpdateState(ctx context.Context, deviceID string, cmd Command, value any) {
	s.log.Debug("update state",
		zap.String("device", deviceID),
		zap.String("command", string(cmd)),
		zap.Any("value", value),
	)
	vr, ok := s.network.VirtualRenderer(deviceID)
	if !ok {
		s.log.Error("room renderer not found", zap.String("device", deviceID), zap.String("command", string(cmd)))
		return
	}

	var err error
	switch cmd {
	case CmdPlay:
		err = vr.Play(ctx)
	case CmdPause:
		err = vr.Pause(ctx)
	case CmdPlaying, CmdPlayToggle:
		if b, isBool := value.(bool); isBool && !b {
			err = vr.Pause(ctx)
		} else {
			err = vr.Play(ctx)
		}
	case CmdMute, CmdMuteToggle:
		b, valid := asBool(value)
		if !valid {
			s.log.Warn("invalid mute value", zap.String("device", deviceID), zap.Any("value", value))
			return
		}
		err = vr.SetMute(ctx, b)
	case CmdRepeat:
		err = vr.SetPlayMode(ctx, PlayModeRepeatAll)
	case CmdRepeatToggle, CmdShuffle, CmdShuffleToggle, CmdClearQueue:
		s.log.Debug("command not supported by renderer", zap.String("command", string(cmd)))
	case CmdVolume, CmdVolumeUp, CmdVolumeDown:
		v, valid := asNumber(value)
		if !valid {
			s.log.Warn("invalid volume value", zap.String("device", deviceID), zap.Any("value", value))
			return
		}
		err = vr.SetVolume(ctx, v)
	case CmdNext, CmdNextTrack:
		err = vr.Next(ctx)
	case CmdPrevious, CmdPreviousTrack:
		err = vr.Prev(ctx)
	case CmdPowerOn:
		s.powerOn(ctx, deviceID, vr)
	case CmdPowerOff:
		err = s.powerOff(ctx, deviceID)
	default:
		s.log.Debug("unhandled command", zap.String("command", string(cmd)))
	}
	if err != nil {
		s.log.Warn("renderer command failed",
			zap.String("device", deviceID),
			zap.String("command", string(cmd)),
			zap.Error(err),
		)
	}
}

// powerOn wakes the room owning the physical renderer. Failures are swallowed.
func (s *Synchronizer) powerOn(ctx context.Context, deviceID string, vr ports.VirtualRenderer) {
	var roomUDN string
	if mr, ok := s.network.MediaRenderer(deviceID); ok {
		roomUDN, _ = s.network.RoomUDNForRenderer(mr.UDN())
	}
	if err := vr.LeaveStandby(ctx, roomUDN); err != nil {
		s.log.Debug("leave standby failed", zap.String("device", deviceID), zap.Error(err))
	}
}

func (s *Synchronizer) powerOff(ctx context.Context, deviceID string) error {
	mr, ok := s.network.MediaRenderer(deviceID)
	if !ok {
		return fmt.Errorf("%w: renderer %s", ErrDeviceNotFound, deviceID)
	}
	return mr.EnterAutomaticStandby(ctx, mr.RoomUDN())
}

// GetVolume reads the current volume of the room renderer.
func (s *Synchronizer) GetVolume(ctx context.Context, deviceID string) (int, error) {
	vr, ok := s.network.VirtualRenderer(deviceID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	raw, err := vr.GetVolume(ctx)
	if err != nil {
		return 0, fmt.Errorf("get volume %s: %w", deviceID, err)
	}
	return parseVolume(raw)
}

func parseVolume(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: volume %q", ErrInvalidValue, raw)
	}
	return int(math.Round(f)), nil
}

// DiscoverDevices re-enumerates rooms from the current topology and replaces
// the known room and renderer lists.
func (s *Synchronizer) DiscoverDevices(ctx context.Context) ([]Device, error) {
	topo, err := s.network.Topology(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover devices: %w", err)
	}
	var rooms []ports.Room
	var renderers []ports.Renderer
	for _, zone := range topo.Zones {
		for _, room := range zone.Rooms {
			s.log.Debug("discovered room", zap.String("zone", zone.UDN), zap.String("room", room.Name))
			rooms = append(rooms, room)
			renderers = append(renderers, room.Renderers...)
		}
	}

	s.mu.Lock()
	s.rooms = rooms
	s.renderers = renderers
	s.mu.Unlock()

	devices := make([]Device, 0, len(rooms))
	for _, room := range rooms {
		devices = append(devices, Device{ID: room.Name, Name: room.Name, Reachable: true})
	}
	return devices, nil
}

// Rooms returns the rooms found by the last discovery.
func (s *Synchronizer) Rooms() []ports.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Room(nil), s.rooms...)
}

// Renderers returns the physical renderers found by the last discovery.
func (s *Synchronizer) Renderers() []ports.Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Renderer(nil), s.renderers...)
}

// BrowseCatalog lists the formatted children of a media server node.
func (s *Synchronizer) BrowseCatalog(ctx context.Context, id string) ([]ListItem, error) {
	server, ok := s.network.MediaServer()
	if !ok {
		return nil, ErrCatalogUnavailable
	}
	raw, err := server.Browse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return CatalogList(id, raw)
}

// LoadSingle plays one catalog object on the room renderer.
func (s *Synchronizer) LoadSingle(ctx context.Context, deviceID, objectID string) {
	vr, ok := s.network.VirtualRenderer(deviceID)
	if !ok {
		s.log.Error("room renderer not found", zap.String("device", deviceID))
		return
	}
	if err := vr.LoadSingle(ctx, objectID); err != nil {
		s.log.Warn("load single failed", zap.String("device", deviceID), zap.String("object", objectID), zap.Error(err))
	}
}

// LoadURI plays a URI on the room renderer.
func (s *Synchronizer) LoadURI(ctx context.Context, deviceID, uri string) error {
	vr, ok := s.network.VirtualRenderer(deviceID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if err := vr.LoadURI(ctx, uri); err != nil {
		return fmt.Errorf("load uri on %s: %w", deviceID, err)
	}
	return nil
}

// Run consumes renderer events until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) error {
	items, values := s.network.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			s.HandleMediaItem(ev)
		case ev, ok := <-values:
			if !ok {
				values = nil
				continue
			}
			s.HandleKeyValue(ev)
		}
	}
}

// HandleMediaItem maps now-playing metadata onto the sensor components.
func (s *Synchronizer) HandleMediaItem(ev ports.MediaItemEvent) {
	sink := s.attached()
	if sink == nil || ev.Renderer == "" {
		s.log.Debug("media item ignored", zap.String("renderer", ev.Renderer))
		return
	}
	d := ev.Data
	if d.AlbumArtURI != "" {
		sink.UpdateComponent(ev.Renderer, ComponentCoverArt, d.AlbumArtURI)
	}
	if d.Title != "" {
		sink.UpdateComponent(ev.Renderer, ComponentDescription, d.Title)
	}
	switch {
	case d.Artist != "":
		sink.UpdateComponent(ev.Renderer, ComponentTitle, d.Artist)
	case d.Section != "":
		sink.UpdateComponent(ev.Renderer, ComponentTitle, d.Section)
	}
}

// HandleKeyValue maps a renderer state variable change onto the components.
func (s *Synchronizer) HandleKeyValue(ev ports.KeyValueEvent) {
	if ev.Key == keyCurrentTrackMetaData {
		return
	}
	sink := s.attached()
	if sink == nil || ev.Renderer == "" {
		s.log.Debug("state change ignored", zap.String("renderer", ev.Renderer), zap.String("key", ev.Key))
		return
	}
	switch ev.Key {
	case keyVolume:
		v, err := parseVolume(ev.NewValue)
		if err != nil {
			s.log.Debug("bad volume value", zap.String("renderer", ev.Renderer), zap.Error(err))
			return
		}
		sink.UpdateComponent(ev.Renderer, ComponentVolume, v)
	case keyMute:
		b, ok := asBool(ev.NewValue)
		if !ok {
			s.log.Debug("bad mute value", zap.String("renderer", ev.Renderer), zap.String("value", ev.NewValue))
			return
		}
		sink.UpdateComponent(ev.Renderer, ComponentMute, b)
	case keyTransportState:
		switch ev.NewValue {
		case "PLAYING":
			sink.UpdateComponent(ev.Renderer, ComponentPlay, true)
		case "STOPPED", "NO_MEDIA_PRESENT":
			sink.UpdateComponent(ev.Renderer, ComponentPlay, false)
		}
	case keyName, keyCurrentPlayMode, keyAVTransportURI, keyAVTransportURIMetaData,
		keyRoomVolumes, keyRoomMutes, keyRoomStates:
	default:
		s.log.Debug("unknown state key", zap.String("renderer", ev.Renderer), zap.String("key", ev.Key))
	}
}
