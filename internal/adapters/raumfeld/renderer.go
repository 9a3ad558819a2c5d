package raumfeld

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const contentDirectoryServiceID = "urn:upnp-org:serviceId:ContentDirectory"

type virtualRenderer struct {
	net  *Network
	dev  device
	room string
}

func (r *virtualRenderer) Name() string { return r.room }
func (r *virtualRenderer) UDN() string  { return r.dev.udn }

func (r *virtualRenderer) avt(ctx context.Context, action string, args ...arg) (map[string]string, error) {
	return r.net.soap.call(ctx, r.dev.avTransport, action, append([]arg{instance()}, args...)...)
}

func (r *virtualRenderer) rc(ctx context.Context, action string, args ...arg) (map[string]string, error) {
	return r.net.soap.call(ctx, r.dev.renderingControl, action, append([]arg{instance()}, args...)...)
}

func (r *virtualRenderer) Play(ctx context.Context) error {
	_, err := r.avt(ctx, "Play", arg{"Speed", "1"})
	return err
}

func (r *virtualRenderer) Pause(ctx context.Context) error {
	_, err := r.avt(ctx, "Pause")
	return err
}

func (r *virtualRenderer) Next(ctx context.Context) error {
	_, err := r.avt(ctx, "Next")
	return err
}

func (r *virtualRenderer) Prev(ctx context.Context) error {
	_, err := r.avt(ctx, "Previous")
	return err
}

func (r *virtualRenderer) SetVolume(ctx context.Context, volume int) error {
	volume = max(0, min(volume, 100))
	_, err := r.rc(ctx, "SetVolume", arg{"Channel", "Master"}, arg{"DesiredVolume", strconv.Itoa(volume)})
	return err
}

func (r *virtualRenderer) SetMute(ctx context.Context, mute bool) error {
	on := "0"
	if mute {
		on = "1"
	}
	_, err := r.rc(ctx, "SetMute", arg{"Channel", "Master"}, arg{"DesiredMute", on})
	return err
}

func (r *virtualRenderer) SetPlayMode(ctx context.Context, mode string) error {
	_, err := r.avt(ctx, "SetPlayMode", arg{"NewPlayMode", mode})
	return err
}

func (r *virtualRenderer) LeaveStandby(ctx context.Context, roomUDN string) error {
	return r.net.host.leaveStandby(ctx, roomUDN)
}

func (r *virtualRenderer) GetVolume(ctx context.Context) (string, error) {
	out, err := r.rc(ctx, "GetVolume", arg{"Channel", "Master"})
	if err != nil {
		return "", err
	}
	return out["CurrentVolume"], nil
}

// LoadSingle plays one media server object. The renderer starts playback
// once the transport URI is set.
func (r *virtualRenderer) LoadSingle(ctx context.Context, objectID string) error {
	serverUDN, ok := r.net.serverUDN()
	if !ok {
		return fmt.Errorf("load single %s: media server not available", objectID)
	}
	return r.LoadURI(ctx, playSingleURI(serverUDN, objectID))
}

func (r *virtualRenderer) LoadURI(ctx context.Context, uri string) error {
	_, err := r.avt(ctx, "SetAVTransportURI", arg{"CurrentURI", uri}, arg{"CurrentURIMetaData", ""})
	return err
}

func playSingleURI(serverUDN, objectID string) string {
	return "dlna-playsingle://" + escapeComponent(serverUDN) +
		"?sid=" + escapeComponent(contentDirectoryServiceID) +
		"&iid=" + escapeComponent(objectID)
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type mediaRenderer struct {
	net     *Network
	udn     string
	name    string
	roomUDN string
}

func (m *mediaRenderer) Name() string    { return m.name }
func (m *mediaRenderer) UDN() string     { return m.udn }
func (m *mediaRenderer) RoomUDN() string { return m.roomUDN }

func (m *mediaRenderer) EnterAutomaticStandby(ctx context.Context, roomUDN string) error {
	return m.net.host.enterAutomaticStandby(ctx, roomUDN)
}

type mediaServer struct {
	net *Network
	svc service
}

// Browse returns the DIDL-Lite direct children of objectID.
func (s *mediaServer) Browse(ctx context.Context, objectID string) (string, error) {
	out, err := s.net.soap.call(ctx, s.svc, "Browse",
		arg{"ObjectID", objectID},
		arg{"BrowseFlag", "BrowseDirectChildren"},
		arg{"Filter", "*"},
		arg{"StartingIndex", "0"},
		arg{"RequestedCount", "0"},
		arg{"SortCriteria", ""},
	)
	if err != nil {
		return "", err
	}
	return out["Result"], nil
}
