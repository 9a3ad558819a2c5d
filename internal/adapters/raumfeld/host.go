package raumfeld

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikey-austin/raumbridge/internal/ports"
)

// DefaultHostPort is the port of the Raumfeld host config service.
const DefaultHostPort = "47365"

const (
	deviceTypeRenderer = "urn:schemas-upnp-org:device:MediaRenderer:1"
	deviceTypeServer   = "urn:schemas-upnp-org:device:MediaServer:1"
)

type zoneConfig struct {
	XMLName    xml.Name  `xml:"zoneConfig"`
	Zones      []zoneXML `xml:"zones>zone"`
	Unassigned []roomXML `xml:"unassignedRooms>room"`
}

type zoneXML struct {
	UDN   string    `xml:"udn,attr"`
	Rooms []roomXML `xml:"room"`
}

type roomXML struct {
	Name       string        `xml:"name,attr"`
	UDN        string        `xml:"udn,attr"`
	PowerState string        `xml:"powerState,attr"`
	Renderers  []rendererXML `xml:"renderer"`
}

type rendererXML struct {
	Name string `xml:"name,attr"`
	UDN  string `xml:"udn,attr"`
}

func (r roomXML) room() ports.Room {
	room := ports.Room{Name: r.Name, UDN: r.UDN, PowerState: r.PowerState}
	for _, rr := range r.Renderers {
		room.Renderers = append(room.Renderers, ports.Renderer{Name: rr.Name, UDN: rr.UDN})
	}
	return room
}

func (z zoneConfig) topology() ports.Topology {
	var topo ports.Topology
	for _, zx := range z.Zones {
		zone := ports.Zone{UDN: zx.UDN}
		for _, rx := range zx.Rooms {
			zone.Rooms = append(zone.Rooms, rx.room())
		}
		topo.Zones = append(topo.Zones, zone)
	}
	for _, rx := range z.Unassigned {
		topo.UnassignedRooms = append(topo.UnassignedRooms, rx.room())
	}
	return topo
}

type deviceList struct {
	XMLName xml.Name       `xml:"devices"`
	Devices []listedDevice `xml:"device"`
}

type listedDevice struct {
	Location string `xml:"location,attr"`
	Type     string `xml:"type,attr"`
	UDN      string `xml:"udn,attr"`
	Name     string `xml:",chardata"`
}

// hostClient talks to the config service of the Raumfeld host.
type hostClient struct {
	base string
	http *http.Client
}

// hostBaseURL normalizes a configured host into the config service URL.
func hostBaseURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("raumfeld host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("raumfeld host: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("raumfeld host: missing host in %q", host)
	}
	if u.Port() == "" {
		u.Host = u.Host + ":" + DefaultHostPort
	}
	return u.Scheme + "://" + u.Host, nil
}

func (h *hostClient) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := h.base + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", endpoint, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("host %s: %s", endpoint, resp.Status)
	}
	return body, nil
}

func (h *hostClient) zones(ctx context.Context) (ports.Topology, error) {
	body, err := h.get(ctx, "getZones", nil)
	if err != nil {
		return ports.Topology{}, err
	}
	var cfg zoneConfig
	if err := xml.Unmarshal(body, &cfg); err != nil {
		return ports.Topology{}, fmt.Errorf("decode zone config: %w", err)
	}
	return cfg.topology(), nil
}

func (h *hostClient) devices(ctx context.Context) ([]listedDevice, error) {
	body, err := h.get(ctx, "listDevices", nil)
	if err != nil {
		return nil, err
	}
	var list deviceList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}
	for i := range list.Devices {
		list.Devices[i].Name = strings.TrimSpace(list.Devices[i].Name)
	}
	return list.Devices, nil
}

func (h *hostClient) leaveStandby(ctx context.Context, roomUDN string) error {
	if roomUDN == "" {
		return fmt.Errorf("leave standby: room udn required")
	}
	_, err := h.get(ctx, "leaveStandby", url.Values{"roomUDN": {roomUDN}})
	return err
}

func (h *hostClient) enterAutomaticStandby(ctx context.Context, roomUDN string) error {
	if roomUDN == "" {
		return fmt.Errorf("enter standby: room udn required")
	}
	_, err := h.get(ctx, "enterAutomaticStandby", url.Values{"roomUDN": {roomUDN}})
	return err
}
