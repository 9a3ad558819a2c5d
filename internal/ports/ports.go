package ports

import (
	"context"

	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// RendererNetwork is the multi-room renderer network as seen by the bridge.
// Handles are looked up by name on every call; callers must not cache them.
type RendererNetwork interface {
	// VirtualRenderer returns the room-level renderer for a room name.
	VirtualRenderer(name string) (VirtualRenderer, bool)
	// MediaRenderer returns the physical renderer with the given name.
	MediaRenderer(name string) (MediaRenderer, bool)
	// RoomUDNForRenderer returns the UDN of the room owning a physical renderer.
	RoomUDNForRenderer(rendererUDN string) (string, bool)
	// Topology returns the current zone/room/renderer snapshot.
	Topology(ctx context.Context) (Topology, error)
	// MediaServer returns the catalog server once it is ready.
	MediaServer() (MediaServer, bool)
	// Watch streams renderer events until ctx is done.
	Watch(ctx context.Context) (<-chan MediaItemEvent, <-chan KeyValueEvent)
}

// VirtualRenderer controls playback for a room.
type VirtualRenderer interface {
	Name() string
	UDN() string
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	SetVolume(ctx context.Context, volume int) error
	SetMute(ctx context.Context, mute bool) error
	SetPlayMode(ctx context.Context, mode string) error
	LeaveStandby(ctx context.Context, roomUDN string) error
	// GetVolume returns the raw volume value as reported by the renderer.
	GetVolume(ctx context.Context) (string, error)
	LoadSingle(ctx context.Context, objectID string) error
	LoadURI(ctx context.Context, uri string) error
}

// MediaRenderer is a physical renderer device.
type MediaRenderer interface {
	Name() string
	UDN() string
	RoomUDN() string
	EnterAutomaticStandby(ctx context.Context, roomUDN string) error
}

// MediaServer exposes the remote media catalog.
type MediaServer interface {
	// Browse returns the raw DIDL-Lite children of objectID.
	Browse(ctx context.Context, objectID string) (string, error)
}

// Topology is a zone/room/renderer snapshot.
type Topology struct {
	Zones           []Zone
	UnassignedRooms []Room
}

// Zone groups rooms for synchronized playback.
type Zone struct {
	UDN   string
	Rooms []Room
}

// Room is a named set of renderers.
type Room struct {
	Name       string
	UDN        string
	PowerState string
	Renderers  []Renderer
}

// Renderer identifies a physical renderer inside a room.
type Renderer struct {
	Name string
	UDN  string
}

// MediaItem is now-playing metadata reported by a renderer.
type MediaItem struct {
	AlbumArtURI string
	Title       string
	Artist      string
	Album       string
	Section     string
}

// MediaItemEvent reports changed now-playing metadata.
type MediaItemEvent struct {
	Renderer string
	Data     MediaItem
}

// KeyValueEvent reports a changed renderer state variable.
type KeyValueEvent struct {
	Renderer string
	Key      string
	OldValue string
	NewValue string
	RoomUDN  string
}

// Broker publishes commands to the bridge and streams its notifications.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, nodeID string, cmd brain.CommandEnvelope) (brain.ReplyEnvelope, error)
	WatchNotifications(ctx context.Context, nodeID string) (<-chan brain.Notification, <-chan error)
	ListPresence(ctx context.Context) ([]brain.Presence, error)
}

// Clock provides the current time.
type Clock interface {
	NowUnix() int64
}

// IDGen generates command ids.
type IDGen interface {
	NewID() string
}
