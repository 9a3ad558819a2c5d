package core

import "github.com/mikey-austin/raumbridge/pkg/brain"

// NodesResult holds a list of presence records.
type NodesResult struct {
	Nodes []brain.Presence
}

// DevicesResult holds discovered rooms.
type DevicesResult struct {
	Devices []brain.Device
}

// ComponentResult holds one component value.
type ComponentResult struct {
	Component brain.ComponentReply
}

// VolumeResult holds a live volume reading.
type VolumeResult struct {
	Volume brain.VolumeReply
}

// BrowseResult holds one browse page.
type BrowseResult struct {
	DeviceID string
	Page     brain.BrowsePage
}

// NotificationResult is one streamed notification.
type NotificationResult struct {
	Notification brain.Notification
}
