package raumfeld

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/mikey-austin/raumbridge/internal/ports"
	"go.uber.org/zap"
)

const (
	keyTransportState = "TransportState"
	keyVolume         = "Volume"
	keyMute           = "Mute"
	keyPlayMode       = "CurrentPlayMode"
	keyTrackMetaData  = "CurrentTrackMetaData"
)

// stateKeys is the emission order of changed state variables.
var stateKeys = []string{keyTransportState, keyVolume, keyMute, keyPlayMode, keyTrackMetaData}

// Watch polls every zone renderer and reports changes until ctx is done. Both
// channels are closed on return.
func (n *Network) Watch(ctx context.Context) (<-chan ports.MediaItemEvent, <-chan ports.KeyValueEvent) {
	items := make(chan ports.MediaItemEvent, 16)
	values := make(chan ports.KeyValueEvent, 64)
	go n.pollLoop(ctx, items, values)
	return items, values
}

func (n *Network) pollLoop(ctx context.Context, items chan<- ports.MediaItemEvent, values chan<- ports.KeyValueEvent) {
	defer close(items)
	defer close(values)
	last := map[string]map[string]string{}
	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if !n.pollOnce(ctx, last, items, values) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce reads every zone and emits changes; it reports false once ctx is
// done.
func (n *Network) pollOnce(ctx context.Context, last map[string]map[string]string, items chan<- ports.MediaItemEvent, values chan<- ports.KeyValueEvent) bool {
	for _, target := range n.zoneTargets() {
		state, err := n.readState(ctx, target.dev)
		if err != nil {
			n.log.Debug("zone poll failed", zap.String("zone", target.zone.UDN), zap.Error(err))
			continue
		}
		prev := last[target.zone.UDN]
		last[target.zone.UDN] = state
		for _, key := range stateKeys {
			cur, has := state[key]
			old, had := prev[key]
			if !has || (had && old == cur) {
				continue
			}
			for _, room := range target.zone.Rooms {
				ev := ports.KeyValueEvent{Renderer: room.Name, Key: key, OldValue: old, NewValue: cur, RoomUDN: room.UDN}
				select {
				case values <- ev:
				case <-ctx.Done():
					return false
				}
			}
			if key != keyTrackMetaData {
				continue
			}
			item, ok := parseTrackMetaData(cur)
			if !ok {
				continue
			}
			for _, room := range target.zone.Rooms {
				select {
				case items <- ports.MediaItemEvent{Renderer: room.Name, Data: item}:
				case <-ctx.Done():
					return false
				}
			}
		}
	}
	return ctx.Err() == nil
}

// readState reads the polled state variables of a zone renderer. Only the
// transport state is required.
func (n *Network) readState(ctx context.Context, dev device) (map[string]string, error) {
	state := map[string]string{}
	inst := instance()
	info, err := n.soap.call(ctx, dev.avTransport, "GetTransportInfo", inst)
	if err != nil {
		return nil, err
	}
	state[keyTransportState] = info["CurrentTransportState"]

	if out, err := n.soap.call(ctx, dev.renderingControl, "GetVolume", inst, arg{"Channel", "Master"}); err == nil {
		state[keyVolume] = out["CurrentVolume"]
	}
	if out, err := n.soap.call(ctx, dev.renderingControl, "GetMute", inst, arg{"Channel", "Master"}); err == nil {
		state[keyMute] = out["CurrentMute"]
	}
	if out, err := n.soap.call(ctx, dev.avTransport, "GetTransportSettings", inst); err == nil {
		state[keyPlayMode] = out["PlayMode"]
	}
	if out, err := n.soap.call(ctx, dev.avTransport, "GetPositionInfo", inst); err == nil {
		state[keyTrackMetaData] = out["TrackMetaData"]
	}
	return state, nil
}

type trackDIDL struct {
	Items []trackItem `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ item"`
}

type trackItem struct {
	Title       string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Artist      string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ artist"`
	Album       string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ album"`
	AlbumArtURI string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ albumArtURI"`
	Section     string `xml:"urn:schemas-raumfeld-com:meta-data/raumfeld section"`
}

// parseTrackMetaData extracts now-playing metadata from CurrentTrackMetaData.
func parseTrackMetaData(raw string) (ports.MediaItem, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "<") {
		return ports.MediaItem{}, false
	}
	var doc trackDIDL
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil || len(doc.Items) == 0 {
		return ports.MediaItem{}, false
	}
	it := doc.Items[0]
	return ports.MediaItem{
		AlbumArtURI: strings.TrimSpace(it.AlbumArtURI),
		Title:       strings.TrimSpace(it.Title),
		Artist:      strings.TrimSpace(it.Artist),
		Album:       strings.TrimSpace(it.Album),
		Section:     strings.TrimSpace(it.Section),
	}, true
}
