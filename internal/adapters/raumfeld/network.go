// Package raumfeld adapts a Raumfeld multi-room system to the renderer network
// port. Topology comes from the host config service; playback goes over UPnP
// SOAP to the zone virtual renderers.
package raumfeld

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mikey-austin/raumbridge/internal/ports"
	"go.uber.org/zap"
)

// Config configures the Raumfeld adapter.
type Config struct {
	Host             string
	Timeout          time.Duration
	PollInterval     time.Duration
	TopologyInterval time.Duration
}

type device struct {
	udn       string
	name      string
	kind      string
	location  string
	described bool

	avTransport      service
	renderingControl service
	contentDirectory service
}

var _ ports.RendererNetwork = (*Network)(nil)

// Network is the Raumfeld implementation of ports.RendererNetwork.
type Network struct {
	log  *zap.Logger
	cfg  Config
	http *http.Client
	host *hostClient
	soap *soapClient

	mu      sync.RWMutex
	topo    ports.Topology
	devices map[string]*device // keyed by UDN
}

// New creates an adapter for the host in cfg. No network calls are made until
// Refresh or Run.
func New(log *zap.Logger, cfg Config) (*Network, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base, err := hostBaseURL(cfg.Host)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.TopologyInterval <= 0 {
		cfg.TopologyInterval = time.Minute
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Network{
		log:     log,
		cfg:     cfg,
		http:    client,
		host:    &hostClient{base: base, http: client},
		soap:    &soapClient{log: log, http: client},
		devices: map[string]*device{},
	}, nil
}

// Run keeps the topology current until ctx is done.
func (n *Network) Run(ctx context.Context) error {
	if err := n.Refresh(ctx); err != nil {
		n.log.Warn("raumfeld refresh failed", zap.Error(err))
	}
	ticker := time.NewTicker(n.cfg.TopologyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := n.Refresh(ctx); err != nil {
				n.log.Debug("raumfeld refresh failed", zap.Error(err))
			}
		}
	}
}

// Refresh reloads the zone configuration and device list, describing any
// device that is new or has moved.
func (n *Network) Refresh(ctx context.Context) error {
	topo, err := n.host.zones(ctx)
	if err != nil {
		return err
	}
	listed, err := n.host.devices(ctx)
	if err != nil {
		return err
	}

	n.mu.RLock()
	previous := n.devices
	n.mu.RUnlock()

	next := make(map[string]*device, len(listed))
	for _, ld := range listed {
		if ld.UDN == "" || ld.Location == "" {
			continue
		}
		if prev, ok := previous[ld.UDN]; ok && prev.described && prev.location == ld.Location {
			next[ld.UDN] = prev
			continue
		}
		dev := &device{udn: ld.UDN, name: ld.Name, kind: ld.Type, location: ld.Location}
		if err := describe(ctx, n.http, dev); err != nil {
			n.log.Debug("describe device failed", zap.String("udn", ld.UDN), zap.String("location", ld.Location), zap.Error(err))
		}
		next[ld.UDN] = dev
	}

	n.mu.Lock()
	n.topo = topo
	n.devices = next
	n.mu.Unlock()

	n.log.Debug("raumfeld topology refreshed", zap.Int("zones", len(topo.Zones)), zap.Int("devices", len(next)))
	return nil
}

// Topology re-reads the zone configuration and returns it.
func (n *Network) Topology(ctx context.Context) (ports.Topology, error) {
	if err := n.Refresh(ctx); err != nil {
		return ports.Topology{}, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.topo, nil
}

// VirtualRenderer returns the zone renderer playing in the named room.
func (n *Network) VirtualRenderer(name string) (ports.VirtualRenderer, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, zone := range n.topo.Zones {
		for _, room := range zone.Rooms {
			if room.Name != name {
				continue
			}
			dev, ok := n.devices[zone.UDN]
			if !ok || !dev.avTransport.ok() {
				return nil, false
			}
			return &virtualRenderer{net: n, dev: *dev, room: name}, true
		}
	}
	return nil, false
}

// MediaRenderer returns the physical renderer with the given name. A room
// name resolves to the first renderer of that room.
func (n *Network) MediaRenderer(name string) (ports.MediaRenderer, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, dev := range n.devices {
		if dev.kind != deviceTypeRenderer || dev.name != name || n.isZoneLocked(dev.udn) {
			continue
		}
		room, _ := n.roomForLocked(dev.udn)
		return &mediaRenderer{net: n, udn: dev.udn, name: dev.name, roomUDN: room.UDN}, true
	}
	for _, room := range n.roomsLocked() {
		if room.Name == name && len(room.Renderers) > 0 {
			r := room.Renderers[0]
			return &mediaRenderer{net: n, udn: r.UDN, name: r.Name, roomUDN: room.UDN}, true
		}
	}
	return nil, false
}

// RoomUDNForRenderer returns the room owning a physical renderer.
func (n *Network) RoomUDNForRenderer(rendererUDN string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	room, ok := n.roomForLocked(rendererUDN)
	return room.UDN, ok
}

// MediaServer returns the catalog server if one has been described.
func (n *Network) MediaServer() (ports.MediaServer, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	dev, ok := n.serverLocked()
	if !ok {
		return nil, false
	}
	return &mediaServer{net: n, svc: dev.contentDirectory}, true
}

func (n *Network) serverUDN() (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	dev, ok := n.serverLocked()
	if !ok {
		return "", false
	}
	return dev.udn, true
}

func (n *Network) serverLocked() (*device, bool) {
	for _, dev := range n.devices {
		if dev.kind == deviceTypeServer && dev.contentDirectory.ok() {
			return dev, true
		}
	}
	return nil, false
}

func (n *Network) isZoneLocked(udn string) bool {
	for _, zone := range n.topo.Zones {
		if zone.UDN == udn {
			return true
		}
	}
	return false
}

func (n *Network) roomsLocked() []ports.Room {
	var rooms []ports.Room
	for _, zone := range n.topo.Zones {
		rooms = append(rooms, zone.Rooms...)
	}
	return append(rooms, n.topo.UnassignedRooms...)
}

func (n *Network) roomForLocked(rendererUDN string) (ports.Room, bool) {
	for _, room := range n.roomsLocked() {
		for _, r := range room.Renderers {
			if r.UDN == rendererUDN {
				return room, true
			}
		}
	}
	return ports.Room{}, false
}

type zoneTarget struct {
	zone ports.Zone
	dev  device
}

func (n *Network) zoneTargets() []zoneTarget {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []zoneTarget
	for _, zone := range n.topo.Zones {
		dev, ok := n.devices[zone.UDN]
		if !ok || !dev.avTransport.ok() {
			continue
		}
		out = append(out, zoneTarget{zone: zone, dev: *dev})
	}
	return out
}
