package raumfeld

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

type deviceDescription struct {
	URLBase string `xml:"URLBase"`
	Device  struct {
		DeviceType   string          `xml:"deviceType"`
		FriendlyName string          `xml:"friendlyName"`
		UDN          string          `xml:"UDN"`
		Services     []deviceService `xml:"serviceList>service"`
	} `xml:"device"`
}

type deviceService struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	ControlURL  string `xml:"controlURL"`
}

// BaseURL returns the URL that relative control URLs resolve against.
func (d deviceDescription) BaseURL(location string) string {
	if strings.TrimSpace(d.URLBase) != "" {
		return strings.TrimRight(d.URLBase, "/")
	}
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// find returns the first service whose type contains name.
func (d deviceDescription) find(base, name string) service {
	name = strings.ToLower(name)
	for _, svc := range d.Device.Services {
		if strings.Contains(strings.ToLower(svc.ServiceType), name) {
			return service{Type: strings.TrimSpace(svc.ServiceType), ControlURL: resolveURL(base, strings.TrimSpace(svc.ControlURL))}
		}
	}
	return service{}
}

func resolveURL(baseURL string, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		base.Path = path.Join(base.Path, ref)
		return base.String()
	}
	return base.ResolveReference(rel).String()
}

// describe fetches the device description at location and fills in the
// service endpoints of dev.
func describe(ctx context.Context, client *http.Client, dev *device) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dev.location, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("describe %s: %s", dev.udn, resp.Status)
	}
	var desc deviceDescription
	if err := xml.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return fmt.Errorf("describe %s: %w", dev.udn, err)
	}
	base := desc.BaseURL(dev.location)
	if name := strings.TrimSpace(desc.Device.FriendlyName); name != "" {
		dev.name = name
	}
	dev.avTransport = desc.find(base, "avtransport")
	dev.renderingControl = desc.find(base, "renderingcontrol")
	dev.contentDirectory = desc.find(base, "contentdirectory")
	dev.described = true
	return nil
}
